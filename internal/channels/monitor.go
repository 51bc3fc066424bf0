// Package channels watches the rotary channel switch and keeps the
// console database's active channel in step with it. The web admin and
// the mapping store read that row; the file watch on the database is
// what makes a turn of the knob swap the button table.
package channels

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	_ "modernc.org/sqlite"

	"github.com/soundbox/soundbox/internal/events"
	"github.com/soundbox/soundbox/internal/logging"
)

const (
	defaultPoll     = 100 * time.Millisecond
	defaultDebounce = 200 * time.Millisecond
)

// DefaultPins are the BCM lines the rotary switch detents land on,
// inputs index i selecting channel i+1.
var DefaultPins = []int{22, 23, 24, 25}

// Config carries the channel monitor settings.
type Config struct {
	// DBPath is the console database shared with the web admin.
	DBPath string

	// Pins are the BCM input lines, one per channel. Empty means
	// DefaultPins.
	Pins []int

	// Poll is the sampling interval. Zero means 100ms.
	Poll time.Duration

	// Debounce is how long a new position must hold before it is
	// committed. Zero means 200ms.
	Debounce time.Duration
}

// Monitor samples the selector pins and upserts the active channel row
// when the position settles somewhere new. When several pins read
// active at once, the lowest-numbered channel wins.
type Monitor struct {
	cfg    Config
	in     inputs
	db     *sql.DB
	bus    *events.Bus
	logger *slog.Logger

	current   int       // last committed channel, 0 before the first commit
	candidate int       // pending position, 0 when none
	since     time.Time // when the candidate was first seen
}

// New builds a monitor. Missing GPIO is not an error: the monitor runs
// in simulation mode holding channel 1 so the rest of the stack still
// works on a dev machine.
func New(cfg Config, bus *events.Bus) (*Monitor, error) {
	logger := logging.GetLogger("channels")
	if len(cfg.Pins) == 0 {
		cfg.Pins = DefaultPins
	}
	if cfg.Poll <= 0 {
		cfg.Poll = defaultPoll
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = defaultDebounce
	}

	// busy_timeout keeps the upsert from failing with SQLITE_BUSY while
	// the web admin is mid-write.
	db, err := sql.Open("sqlite", "file:"+cfg.DBPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open console database: %w", err)
	}

	var in inputs
	if hw, hwErr := newRPIOInputs(cfg.Pins); hwErr != nil {
		logger.Warn("GPIO unavailable, holding channel 1 (simulation mode)", "error", hwErr)
		in = simulated{n: len(cfg.Pins)}
	} else {
		in = hw
	}

	return &Monitor{
		cfg:    cfg,
		in:     in,
		db:     db,
		bus:    bus,
		logger: logger,
	}, nil
}

// Run samples until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) error {
	defer m.db.Close()
	defer m.in.Close()

	m.logger.Info("Channel monitor running",
		"pins", m.cfg.Pins,
		"db", m.cfg.DBPath,
		"debounce", m.cfg.Debounce)

	ticker := time.NewTicker(m.cfg.Poll)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			m.logger.Info("Channel monitor stopped")
			return nil
		case now := <-ticker.C:
			m.poll(ctx, now)
		}
	}
}

// poll takes one sample and commits a position change once it has held
// for the debounce window.
func (m *Monitor) poll(ctx context.Context, now time.Time) {
	ch := m.read()
	if ch == 0 || ch == m.current {
		// Between detents nothing reads active; keep the last position.
		m.candidate = 0
		return
	}
	if ch != m.candidate {
		m.candidate = ch
		m.since = now
		return
	}
	if now.Sub(m.since) < m.cfg.Debounce {
		return
	}
	m.commit(ctx, ch, now)
	m.candidate = 0
}

// read maps the pin states to a channel number, lowest wins. Zero means
// no detent reads active this instant.
func (m *Monitor) read() int {
	for i, active := range m.in.Read() {
		if active {
			return i + 1
		}
	}
	return 0
}

// commit persists the new position. On a write failure the position is
// not adopted, so the next stable window retries.
func (m *Monitor) commit(ctx context.Context, ch int, now time.Time) {
	if err := m.upsert(ctx, ch); err != nil {
		m.logger.Warn("Could not persist channel", "channel", ch, "error", err)
		return
	}
	m.current = ch
	m.logger.Info("Channel changed", "channel", ch)
	m.bus.Publish(events.ChannelChangedEvent{Channel: ch, Timestamp: now})
}

func (m *Monitor) upsert(ctx context.Context, ch int) error {
	_, err := m.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO system_config (key, value) VALUES ('active_channel', ?)`,
		strconv.Itoa(ch))
	return err
}
