// Package leddaemon animates the console lights from playback events.
//
// The daemon owns the read side of the event pipe the trigger daemon
// writes to. A press switches the lights to the active animation, the
// stop marker returns them to idle, and a safety timeout catches the
// stop that never arrives because the writer died mid-playback. It runs
// fine without hardware: the output layer degrades to a no-op and the
// animation keeps ticking.
package leddaemon

import (
	"context"
	"log/slog"
	"time"

	"github.com/soundbox/soundbox/internal/eventpipe"
	"github.com/soundbox/soundbox/internal/led"
	"github.com/soundbox/soundbox/internal/logging"
	"github.com/soundbox/soundbox/internal/metrics"
)

const (
	// DefaultSafetyTimeout bounds how long the lights stay active with
	// no stop marker before falling back to idle.
	DefaultSafetyTimeout = 20 * time.Second

	// recoverPause throttles the animation loop after a recovered panic.
	recoverPause = 250 * time.Millisecond
)

// Config carries the LED daemon settings.
type Config struct {
	// PipePath is the event pipe to read. Empty means
	// eventpipe.DefaultPath.
	PipePath string

	// Variant selects the animation set. Empty means pulse.
	Variant string

	// SafetyTimeout forces Active back to Idle when no event arrives
	// for this long. Zero disables the fallback.
	SafetyTimeout time.Duration
}

// Daemon runs the light animation loop. All state past construction is
// owned by the Run goroutine.
type Daemon struct {
	cfg    Config
	out    led.Output
	anim   animator
	logger *slog.Logger

	active    bool
	buttonID  int
	epoch     time.Time // when the current state was entered
	lastEvent time.Time
	duties    []float64
}

// New builds a daemon animating the given output. The variant name is
// the only thing that can be wrong here; hardware trouble already
// degraded inside led.New.
func New(cfg Config, out led.Output) (*Daemon, error) {
	if cfg.PipePath == "" {
		cfg.PipePath = eventpipe.DefaultPath
	}
	if cfg.Variant == "" {
		cfg.Variant = VariantPulse
	}
	anim, err := newAnimator(cfg.Variant, out.Lines())
	if err != nil {
		return nil, err
	}
	now := time.Now()
	return &Daemon{
		cfg:       cfg,
		out:       out,
		anim:      anim,
		logger:    logging.GetLogger("leds"),
		epoch:     now,
		lastEvent: now,
		duties:    make([]float64, out.Lines()),
	}, nil
}

// Run animates until ctx is cancelled, then turns the lights off.
func (d *Daemon) Run(ctx context.Context) error {
	defer func() {
		if err := d.out.Close(); err != nil {
			d.logger.Warn("LED output close failed", "error", err)
		}
	}()

	events := make(chan int, 64)
	reader := eventpipe.NewReader(d.cfg.PipePath, func(id int) {
		select {
		case events <- id:
		default:
			d.logger.Debug("Event dropped, animation loop behind", "id", id)
		}
	})
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		reader.Run(ctx)
	}()

	d.logger.Info("LED daemon running",
		"variant", d.cfg.Variant,
		"lines", d.out.Lines(),
		"pipe", d.cfg.PipePath)

	for {
		if done := d.animate(ctx, events); done {
			break
		}
	}
	<-readerDone
	d.logger.Info("LED daemon stopped")
	return nil
}

// animate runs the select loop until cancellation (true) or a recovered
// panic (false, the caller restarts it).
func (d *Daemon) animate(ctx context.Context, events <-chan int) (done bool) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("Animation loop panicked, restarting", "panic", r)
			metrics.IncPanicRecovered()
			time.Sleep(recoverPause)
		}
	}()

	ticker := time.NewTicker(d.anim.interval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return true
		case id := <-events:
			d.handleEvent(id, time.Now())
		case now := <-ticker.C:
			d.step(now)
		}
	}
}

// handleEvent applies one pipe event to the state machine.
func (d *Daemon) handleEvent(id int, now time.Time) {
	d.lastEvent = now
	if id == eventpipe.StopSignal {
		if d.active {
			d.logger.Debug("Playback stopped, lights idle")
			d.toIdle(now)
		}
		return
	}
	d.logger.Debug("Press event, lights active", "button", id)
	d.active = true
	d.buttonID = id
	d.epoch = now
	d.anim.restart()
}

// step renders one animation frame.
func (d *Daemon) step(now time.Time) {
	if d.active && d.cfg.SafetyTimeout > 0 && now.Sub(d.lastEvent) >= d.cfg.SafetyTimeout {
		d.logger.Warn("No stop event arrived, lights idle", "after", d.cfg.SafetyTimeout)
		d.toIdle(now)
	}
	elapsed := now.Sub(d.epoch)
	if elapsed < 0 {
		// Ticker timestamps can trail an event processed in between.
		elapsed = 0
	}
	d.anim.duties(frame{active: d.active, buttonID: d.buttonID, elapsed: elapsed}, d.duties)
	for line, duty := range d.duties {
		if err := d.out.Set(line, duty); err != nil {
			d.logger.Debug("LED write failed", "line", line, "error", err)
		}
	}
}

func (d *Daemon) toIdle(now time.Time) {
	d.active = false
	d.buttonID = 0
	d.epoch = now
	d.anim.restart()
}
