// Package playback runs the external audio player as an interruptible
// child process. At most one player lives at a time: starting a new one
// always terminates the previous one first, and only the process that is
// still current when it exits reports a stop.
package playback

import (
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/soundbox/soundbox/internal/events"
	"github.com/soundbox/soundbox/internal/logging"
	"github.com/soundbox/soundbox/internal/metrics"
)

// DefaultCommand is the player template. {device} and {file} are expanded
// per press.
const DefaultCommand = "aplay -q -D {device} {file}"

// termTimeout is how long a terminated player gets to exit on SIGTERM
// before the whole process group is killed.
const termTimeout = 500 * time.Millisecond

// handle is one spawned player. done is closed by the waiter goroutine
// after the child is reaped.
type handle struct {
	cmd        *exec.Cmd
	buttonID   int
	generation uint64
	done       chan struct{}
	waitErr    error
}

// Player owns the single playback child process.
type Player struct {
	template string
	bus      *events.Bus
	logger   *slog.Logger

	mu         sync.Mutex
	current    *handle
	generation uint64
}

// NewPlayer creates a player using the given command template, or
// DefaultCommand when empty.
func NewPlayer(template string, bus *events.Bus) *Player {
	if template == "" {
		template = DefaultCommand
	}
	return &Player{
		template: template,
		bus:      bus,
		logger:   logging.GetLogger("playback"),
	}
}

// Play interrupts whatever is playing and spawns the player for file on
// device. It returns once the child is started, never waiting for it to
// finish. On spawn failure no handle is kept and the previous sound stays
// stopped.
func (p *Player) Play(buttonID int, device, file string) error {
	args, err := buildCommand(p.template, device, file)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.terminateLocked()

	cmd := exec.Command(args[0], args[1:]...)
	// Own process group so terminate reaches children the player forks.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		p.logger.Error("Failed to start player", "button", buttonID, "file", file, "error", err)
		metrics.IncPlaybackFailed()
		return fmt.Errorf("start player: %w", err)
	}

	p.generation++
	h := &handle{
		cmd:        cmd,
		buttonID:   buttonID,
		generation: p.generation,
		done:       make(chan struct{}),
	}
	p.current = h

	p.logger.Info("Playback started",
		"button", buttonID, "file", file, "pid", cmd.Process.Pid, "generation", h.generation)

	if p.bus != nil {
		p.bus.Publish(events.PlaybackStartedEvent{
			ButtonID:  buttonID,
			FilePath:  file,
			PID:       cmd.Process.Pid,
			Timestamp: time.Now(),
		})
	}

	go p.wait(h)
	return nil
}

// Stop terminates the current playback, if any. Nothing is reported for
// it; stops are only reported by players that exit on their own.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.terminateLocked()
}

// wait reaps the child and reports its exit exactly once, and only if this
// playback is still the current one. Replaced handles report nothing: the
// press that replaced them owns the next transition.
func (p *Player) wait(h *handle) {
	h.waitErr = h.cmd.Wait()
	close(h.done)

	p.mu.Lock()
	if p.current != h {
		p.mu.Unlock()
		return
	}
	p.current = nil
	p.mu.Unlock()

	exitCode := exitCodeFromError(h.waitErr)
	if exitCode != 0 {
		p.logger.Warn("Player exited with error",
			"button", h.buttonID, "exit_code", exitCode, "generation", h.generation)
		metrics.IncPlaybackFailed()
	} else {
		p.logger.Debug("Playback finished", "button", h.buttonID, "generation", h.generation)
	}

	if p.bus != nil {
		p.bus.Publish(events.PlaybackStoppedEvent{
			ButtonID:  h.buttonID,
			ExitCode:  exitCode,
			Timestamp: time.Now(),
		})
	}
}

// terminateLocked detaches and stops the current handle. Detaching first
// keeps the waiter from reporting a stop for an interrupted playback.
// SIGTERM goes to the whole process group; SIGKILL follows when the child
// has not exited within termTimeout.
func (p *Player) terminateLocked() {
	h := p.current
	if h == nil {
		return
	}
	p.current = nil

	pid := h.cmd.Process.Pid
	if err := syscall.Kill(-pid, syscall.SIGTERM); err != nil && !errors.Is(err, syscall.ESRCH) {
		p.logger.Warn("Failed to signal player group", "pid", pid, "error", err)
	}

	select {
	case <-h.done:
	case <-time.After(termTimeout):
		p.logger.Warn("Player ignored SIGTERM, killing group", "pid", pid)
		if err := syscall.Kill(-pid, syscall.SIGKILL); err != nil && !errors.Is(err, syscall.ESRCH) {
			p.logger.Error("Failed to kill player group", "pid", pid, "error", err)
		}
		select {
		case <-h.done:
		case <-time.After(termTimeout):
			p.logger.Error("Player did not exit after kill", "pid", pid)
		}
	}

	p.logger.Debug("Playback interrupted", "button", h.buttonID, "generation", h.generation)
}

// exitCodeFromError extracts the exit code from a Wait error. Returns 0
// for nil, the code for ExitError (-1 when signalled), 1 otherwise.
func exitCodeFromError(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return 1
}

// buildCommand expands the template into an argv. Placeholders are
// replaced after tokenizing, so file paths with spaces survive without
// quoting.
func buildCommand(template, device, file string) ([]string, error) {
	args, err := parseCommand(template)
	if err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("empty player command")
	}
	for i, arg := range args {
		arg = strings.ReplaceAll(arg, "{device}", device)
		arg = strings.ReplaceAll(arg, "{file}", file)
		args[i] = arg
	}
	return args, nil
}

// parseCommand splits a command string into arguments, handling quoted
// strings and basic escaping.
func parseCommand(command string) ([]string, error) {
	var args []string
	var current strings.Builder
	inQuote := false
	quoteChar := rune(0)

	command = strings.TrimSpace(command)
	runes := []rune(command)

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '"' || r == '\'':
			switch {
			case !inQuote:
				inQuote = true
				quoteChar = r
			case r == quoteChar:
				inQuote = false
				quoteChar = 0
			default:
				current.WriteRune(r)
			}
		case r == ' ' && !inQuote:
			if current.Len() > 0 {
				args = append(args, current.String())
				current.Reset()
			}
		case r == '\\' && i+1 < len(runes):
			i++
			current.WriteRune(runes[i])
		default:
			current.WriteRune(r)
		}
	}

	if current.Len() > 0 {
		args = append(args, current.String())
	}

	if inQuote {
		return nil, fmt.Errorf("unclosed quote in command")
	}

	return args, nil
}
