package playback

import (
	"io"
	"log/slog"
	"reflect"
	"testing"
	"time"

	"github.com/soundbox/soundbox/internal/events"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestPlayer builds a player for the given template with logging silenced.
func newTestPlayer(template string, bus *events.Bus) *Player {
	p := NewPlayer(template, bus)
	p.logger = testLogger()
	return p
}

func subscribeStopped(bus *events.Bus) <-chan events.PlaybackStoppedEvent {
	ch := make(chan events.PlaybackStoppedEvent, 8)
	bus.Subscribe(func(e events.PlaybackStoppedEvent) {
		ch <- e
	})
	return ch
}

func subscribeStarted(bus *events.Bus) <-chan events.PlaybackStartedEvent {
	ch := make(chan events.PlaybackStartedEvent, 8)
	bus.Subscribe(func(e events.PlaybackStartedEvent) {
		ch <- e
	})
	return ch
}

func waitStopped(t *testing.T, ch <-chan events.PlaybackStoppedEvent, timeout time.Duration) events.PlaybackStoppedEvent {
	t.Helper()
	select {
	case e := <-ch:
		return e
	case <-time.After(timeout):
		t.Fatal("timeout waiting for stop event")
		return events.PlaybackStoppedEvent{}
	}
}

func expectNoStopped(t *testing.T, ch <-chan events.PlaybackStoppedEvent, wait time.Duration) {
	t.Helper()
	select {
	case e := <-ch:
		t.Fatalf("unexpected stop event: %+v", e)
	case <-time.After(wait):
	}
}

func TestPlayReportsCleanExit(t *testing.T) {
	bus := events.New()
	started := subscribeStarted(bus)
	stopped := subscribeStopped(bus)

	p := newTestPlayer("true", bus)
	if err := p.Play(3, "default", "/srv/sounds/intro.wav"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	select {
	case e := <-started:
		if e.ButtonID != 3 {
			t.Errorf("started ButtonID = %d, want 3", e.ButtonID)
		}
		if e.FilePath != "/srv/sounds/intro.wav" {
			t.Errorf("started FilePath = %q", e.FilePath)
		}
		if e.PID <= 0 {
			t.Errorf("started PID = %d, want > 0", e.PID)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for start event")
	}

	e := waitStopped(t, stopped, 2*time.Second)
	if e.ButtonID != 3 {
		t.Errorf("stopped ButtonID = %d, want 3", e.ButtonID)
	}
	if e.ExitCode != 0 {
		t.Errorf("stopped ExitCode = %d, want 0", e.ExitCode)
	}
}

func TestPlayReportsNonZeroExit(t *testing.T) {
	bus := events.New()
	stopped := subscribeStopped(bus)

	p := newTestPlayer(`sh -c "exit 3"`, bus)
	if err := p.Play(7, "default", "/x.wav"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	e := waitStopped(t, stopped, 2*time.Second)
	if e.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", e.ExitCode)
	}
}

func TestNewPressInterruptsWithoutStopEvent(t *testing.T) {
	bus := events.New()
	started := subscribeStarted(bus)
	stopped := subscribeStopped(bus)

	p := newTestPlayer("sleep 5", bus)
	if err := p.Play(1, "default", "/a.wav"); err != nil {
		t.Fatalf("first play: %v", err)
	}
	time.Sleep(50 * time.Millisecond)

	// Interrupt with a second press, then stop that one too. Neither
	// playback exits on its own, so neither may report a stop.
	if err := p.Play(2, "default", "/b.wav"); err != nil {
		t.Fatalf("second play: %v", err)
	}
	time.Sleep(50 * time.Millisecond)
	p.Stop()

	for i := 0; i < 2; i++ {
		select {
		case <-started:
		case <-time.After(time.Second):
			t.Fatal("missing start event")
		}
	}
	expectNoStopped(t, stopped, 300*time.Millisecond)
}

func TestStopClearsCurrent(t *testing.T) {
	bus := events.New()
	stopped := subscribeStopped(bus)

	p := newTestPlayer("sleep 5", bus)
	if err := p.Play(4, "default", "/a.wav"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	start := time.Now()
	p.Stop()
	if elapsed := time.Since(start); elapsed > 450*time.Millisecond {
		t.Errorf("Stop took %v, sleep should die on SIGTERM", elapsed)
	}

	p.mu.Lock()
	current := p.current
	p.mu.Unlock()
	if current != nil {
		t.Error("current handle not cleared after Stop")
	}

	expectNoStopped(t, stopped, 200*time.Millisecond)
}

func TestStopKillsTermIgnoringPlayer(t *testing.T) {
	bus := events.New()
	p := newTestPlayer(`sh -c 'trap "" TERM; sleep 10'`, bus)
	if err := p.Play(5, "default", "/a.wav"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	time.Sleep(50 * time.Millisecond)

	start := time.Now()
	p.Stop()
	elapsed := time.Since(start)

	// SIGTERM is ignored, so Stop must escalate to SIGKILL after the
	// termination timeout.
	if elapsed < 400*time.Millisecond {
		t.Errorf("Stop returned after %v, expected to wait out SIGTERM", elapsed)
	}
	if elapsed > 1200*time.Millisecond {
		t.Errorf("Stop took %v, SIGKILL should have ended it", elapsed)
	}
}

func TestSpawnFailureKeepsServing(t *testing.T) {
	bus := events.New()
	stopped := subscribeStopped(bus)

	p := newTestPlayer("{file}", bus)
	if err := p.Play(1, "", "/nonexistent/player/binary"); err == nil {
		t.Fatal("expected spawn error")
	}

	// A failed spawn reports no stop; the LED daemon safety timeout
	// covers the missing transition.
	expectNoStopped(t, stopped, 200*time.Millisecond)

	if err := p.Play(2, "", "true"); err != nil {
		t.Fatalf("play after spawn failure: %v", err)
	}
	e := waitStopped(t, stopped, 2*time.Second)
	if e.ButtonID != 2 {
		t.Errorf("stopped ButtonID = %d, want 2", e.ButtonID)
	}
}

func TestStopWithNothingPlaying(t *testing.T) {
	p := newTestPlayer("true", events.New())
	p.Stop() // must not panic
}

func TestBuildCommand(t *testing.T) {
	tests := []struct {
		name     string
		template string
		device   string
		file     string
		want     []string
		wantErr  bool
	}{
		{
			name:     "default template",
			template: DefaultCommand,
			device:   "plughw:1,0",
			file:     "/srv/sounds/intro.wav",
			want:     []string{"aplay", "-q", "-D", "plughw:1,0", "/srv/sounds/intro.wav"},
		},
		{
			name:     "file path with spaces stays one token",
			template: DefaultCommand,
			device:   "default",
			file:     "/srv/sounds/air horn.wav",
			want:     []string{"aplay", "-q", "-D", "default", "/srv/sounds/air horn.wav"},
		},
		{
			name:     "quoted placeholder",
			template: `aplay -D "{device}" {file}`,
			device:   "hw:0,0",
			file:     "/x.wav",
			want:     []string{"aplay", "-D", "hw:0,0", "/x.wav"},
		},
		{
			name:     "alternative player",
			template: "mpv --no-video {file}",
			device:   "default",
			file:     "/x.opus",
			want:     []string{"mpv", "--no-video", "/x.opus"},
		},
		{
			name:     "empty template",
			template: "",
			wantErr:  true,
		},
		{
			name:     "unclosed quote",
			template: `aplay "{file}`,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := buildCommand(tt.template, tt.device, tt.file)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("buildCommand() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseCommandQuoting(t *testing.T) {
	args, err := parseCommand(`sh -c "echo hello; sleep 1"`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"sh", "-c", "echo hello; sleep 1"}
	if !reflect.DeepEqual(args, want) {
		t.Errorf("parseCommand() = %v, want %v", args, want)
	}
}

func TestParseCommandWithEscapes(t *testing.T) {
	args, err := parseCommand(`aplay hello\ world.wav`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(args) != 2 || args[1] != "hello world.wav" {
		t.Errorf("expected ['aplay', 'hello world.wav'], got %v", args)
	}
}

func TestExitCodeFromError(t *testing.T) {
	if got := exitCodeFromError(nil); got != 0 {
		t.Errorf("exitCodeFromError(nil) = %d, want 0", got)
	}
	if got := exitCodeFromError(io.ErrUnexpectedEOF); got != 1 {
		t.Errorf("exitCodeFromError(non-exit error) = %d, want 1", got)
	}
}
