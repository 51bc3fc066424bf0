// Package trigger runs the control loop that turns button presses into
// sound playback. The service owns the serial connection to the button
// board, debounces presses, resolves them through the mapping store, and
// drives the player and the LED event pipe.
package trigger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/coreos/go-systemd/v22/daemon"

	"github.com/soundbox/soundbox/internal/eventpipe"
	"github.com/soundbox/soundbox/internal/events"
	"github.com/soundbox/soundbox/internal/logging"
	"github.com/soundbox/soundbox/internal/mapping"
	"github.com/soundbox/soundbox/internal/metrics"
	"github.com/soundbox/soundbox/internal/playback"
	"github.com/soundbox/soundbox/internal/serialport"
	"github.com/soundbox/soundbox/internal/wire"
)

// DefaultDebounceWindow rejects repeat presses of the same button that
// arrive within this interval. The firmware debounces contact bounce
// already; this window defends against duplicated lines on the link.
const DefaultDebounceWindow = 200 * time.Millisecond

const (
	minDebounceWindow = 10 * time.Millisecond
	maxDebounceWindow = 5 * time.Second

	// recoverPause throttles the read loop after a recovered panic so a
	// poisoned input line cannot spin the loop at serial speed.
	recoverPause = 250 * time.Millisecond
)

// Config carries the trigger daemon settings.
type Config struct {
	// Port is the preferred serial device path. Empty means auto-detect.
	Port string

	// Baud is the serial line rate. Zero means serialport.DefaultBaud.
	Baud int

	// Device is the ALSA playback device. Empty falls back to the device
	// carried by the mapping source, then to "default".
	Device string

	// Placeholder is played for buttons with no mapping. Empty drops
	// unmapped presses.
	Placeholder string

	// DebounceWindow overrides DefaultDebounceWindow. Values outside
	// [10ms, 5s] are clamped.
	DebounceWindow time.Duration

	// MirrorLEDs echoes playback state back to the board as L lines.
	MirrorLEDs bool
}

// port is the serial surface the service drives. *serialport.Conn
// implements it; tests substitute a scripted fake.
type port interface {
	ReadLine() (string, error)
	WriteLine(line string) error
	Path() string
	Close() error
}

// Service is the trigger daemon core. The read loop, bus handlers, and
// reconnect logic all funnel through mu-guarded state.
type Service struct {
	cfg      Config
	baud     int
	store    mapping.Store
	player   *playback.Player
	pipe     *eventpipe.Writer
	bus      *events.Bus
	logger   *slog.Logger
	debounce *debounceTable

	// dial and nudger exist so tests can run the full loop without
	// hardware. Defaults resolve and open a real port and watch netlink
	// uevents.
	dial   func(preferred string, baud int) (port, error)
	nudger func(ctx context.Context) <-chan struct{}

	mu   sync.Mutex
	conn port
}

// New assembles the service. The store, player, pipe, and bus must be
// ready to use; Run connects the board itself.
func New(cfg Config, store mapping.Store, player *playback.Player, pipe *eventpipe.Writer, bus *events.Bus) *Service {
	logger := logging.GetLogger("trigger")

	window := cfg.DebounceWindow
	if window == 0 {
		window = DefaultDebounceWindow
	}
	if window < minDebounceWindow || window > maxDebounceWindow {
		clamped := window
		if clamped < minDebounceWindow {
			clamped = minDebounceWindow
		}
		if clamped > maxDebounceWindow {
			clamped = maxDebounceWindow
		}
		logger.Warn("Debounce window out of range, clamping",
			"configured", window, "clamped", clamped)
		window = clamped
	}

	baud := cfg.Baud
	if baud == 0 {
		baud = serialport.DefaultBaud
	}

	s := &Service{
		cfg:      cfg,
		baud:     baud,
		store:    store,
		player:   player,
		pipe:     pipe,
		bus:      bus,
		logger:   logger,
		debounce: newDebounceTable(window),
	}
	s.dial = func(preferred string, baud int) (port, error) {
		path, err := serialport.Resolve(preferred)
		if err != nil {
			return nil, err
		}
		return serialport.Open(path, baud)
	}
	s.nudger = func(ctx context.Context) <-chan struct{} {
		return hotplugNudges(ctx, logger)
	}
	return s
}

// Run connects to the board and serves presses until ctx is cancelled.
// Connection failures and serial errors are retried with exponential
// backoff; Run only returns on cancellation.
func (s *Service) Run(ctx context.Context) error {
	unsub := s.bus.Subscribe(func(e events.PlaybackStoppedEvent) {
		s.onPlaybackStopped(e)
	})
	defer unsub()

	if _, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		s.logger.Warn("sd_notify failed", "error", err)
	}
	go s.watchdogLoop(ctx)

	nudge := s.nudger(ctx)

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.Multiplier = 1.5
	bo.MaxInterval = 5 * time.Second
	bo.MaxElapsedTime = 0

	for {
		c, err := s.connect()
		if err != nil {
			wait := bo.NextBackOff()
			s.logger.Warn("Button board unavailable", "error", err, "retry_in", wait)
			select {
			case <-ctx.Done():
				s.shutdown(nil)
				return nil
			case <-nudge:
				s.logger.Debug("Device hotplug detected, retrying connect")
			case <-time.After(wait):
			}
			continue
		}
		bo.Reset()

		err = s.readLoop(ctx, c)
		if ctx.Err() != nil {
			s.shutdown(c)
			return nil
		}
		s.disconnect(c, err)
	}
}

// connect dials the board and requests a state snapshot. The snapshot
// reply arrives asynchronously and is logged by the read loop.
func (s *Service) connect() (port, error) {
	c, err := s.dial(s.cfg.Port, s.baud)
	if err != nil {
		return nil, err
	}
	if err := c.WriteLine(wire.Query); err != nil {
		c.Close()
		return nil, fmt.Errorf("query board state: %w", err)
	}

	s.mu.Lock()
	s.conn = c
	s.mu.Unlock()

	s.logger.Info("Button board connected", "port", c.Path())
	s.bus.Publish(events.BoardConnectedEvent{Port: c.Path(), Timestamp: time.Now()})
	return c, nil
}

// readLoop consumes board lines until a read error or cancellation.
// Timeout ticks keep the loop responsive to ctx without burning CPU.
func (s *Service) readLoop(ctx context.Context, c port) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		line, err := c.ReadLine()
		if errors.Is(err, serialport.ErrTimeout) {
			continue
		}
		if err != nil {
			return err
		}
		s.handleLine(ctx, line)
	}
}

// handleLine dispatches one board line. A panic while handling it is
// recovered here so a bad line cannot take the daemon down.
func (s *Service) handleLine(ctx context.Context, line string) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Recovered from panic handling board line", "panic", r, "line", line)
			metrics.IncPanicRecovered()
			time.Sleep(recoverPause)
		}
	}()

	if id, ok := wire.ParsePress(line); ok {
		s.handlePress(ctx, id)
		return
	}
	if snap, ok := wire.ParseSnapshot(line); ok {
		s.logger.Debug("Board state snapshot", "pressed", snap.Pressed())
		return
	}
	if line != "" {
		s.logger.Debug("Ignoring serial line", "line", line)
	}
}

// handlePress runs the accept path for one press: debounce, resolve,
// notify the pipe, and hand the file to the player. It never waits for
// playback to finish.
func (s *Service) handlePress(ctx context.Context, id int) {
	now := time.Now()
	if since, rejected := s.debounce.press(id, now); rejected {
		s.logger.Debug("Press debounced", "button", id, "since_last", since)
		s.bus.Publish(events.PressDebouncedEvent{ButtonID: id, SinceLast: since, Timestamp: now})
		return
	}
	s.logger.Info("Button pressed", "button", id)
	s.bus.Publish(events.PressEvent{ButtonID: id, Timestamp: now})

	file, err := s.store.Lookup(ctx, id)
	if err != nil {
		if !errors.Is(err, mapping.ErrNoMapping) {
			s.logger.Error("Mapping lookup failed", "button", id, "error", err)
			return
		}
		file = s.placeholder()
		if file == "" {
			s.logger.Warn("Button has no mapping", "button", id)
			return
		}
		s.logger.Info("Playing placeholder for unmapped button", "button", id)
	}

	if err := s.pipe.Notify(id); err != nil {
		s.logger.Warn("Event pipe write failed", "error", err)
	}

	if err := s.player.Play(id, s.device(), file); err != nil {
		// Play already logged and counted the failure.
		return
	}
	if s.cfg.MirrorLEDs {
		s.writeLED(id, wire.LEDOn)
	}
}

// placeholder returns the fallback sound path, or "" when none is
// configured or the file is gone.
func (s *Service) placeholder() string {
	if s.cfg.Placeholder == "" {
		return ""
	}
	if _, err := os.Stat(s.cfg.Placeholder); err != nil {
		s.logger.Warn("Placeholder sound unavailable", "path", s.cfg.Placeholder, "error", err)
		return ""
	}
	return s.cfg.Placeholder
}

// device resolves the playback device: explicit config wins, then the
// device carried by the mapping source, then the ALSA default.
func (s *Service) device() string {
	if s.cfg.Device != "" {
		return s.cfg.Device
	}
	if d := s.store.Device(); d != "" {
		return d
	}
	return "default"
}

// onPlaybackStopped forwards the stop sentinel to the event pipe and
// clears the board LED override. The player publishes this exactly once
// per self-exit, so the pipe sees exactly one 0.
func (s *Service) onPlaybackStopped(e events.PlaybackStoppedEvent) {
	if err := s.pipe.NotifyStop(); err != nil {
		s.logger.Warn("Event pipe write failed", "error", err)
	}
	if s.cfg.MirrorLEDs {
		s.writeLED(e.ButtonID, wire.LEDClear)
	}
}

// writeLED sends an LED override line if a board is connected. Failures
// are expected around replug and only logged at debug.
func (s *Service) writeLED(id, state int) {
	s.mu.Lock()
	c := s.conn
	s.mu.Unlock()
	if c == nil {
		return
	}
	if err := c.WriteLine(wire.FormatLED(id, state)); err != nil {
		s.logger.Debug("LED write failed", "button", id, "error", err)
	}
}

// disconnect tears down a failed connection and reports it. The caller
// loops back to connect, so the reconnect counter moves on the next
// successful dial.
func (s *Service) disconnect(c port, err error) {
	s.mu.Lock()
	s.conn = nil
	s.mu.Unlock()
	c.Close()

	reason := ""
	if err != nil {
		reason = err.Error()
	}
	s.logger.Warn("Button board disconnected", "port", c.Path(), "reason", reason)
	s.bus.Publish(events.BoardDisconnectedEvent{Port: c.Path(), Reason: reason, Timestamp: time.Now()})
}

// shutdown stops accepting presses, terminates any current playback, and
// releases the serial port.
func (s *Service) shutdown(c port) {
	s.mu.Lock()
	s.conn = nil
	s.mu.Unlock()
	if c != nil {
		c.Close()
	}
	s.player.Stop()
	s.logger.Info("Trigger service stopped")
}

// watchdogLoop pings systemd at half the configured WatchdogSec. It is a
// no-op when the watchdog is not armed.
func (s *Service) watchdogLoop(ctx context.Context) {
	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil {
		s.logger.Warn("Watchdog detection failed", "error", err)
		return
	}
	if interval == 0 {
		return
	}

	s.logger.Debug("Systemd watchdog armed", "interval", interval)
	ticker := time.NewTicker(interval / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := daemon.SdNotify(false, daemon.SdNotifyWatchdog); err != nil {
				s.logger.Warn("Watchdog ping failed", "error", err)
			}
		}
	}
}
