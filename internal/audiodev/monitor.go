// Package audiodev watches the configured ALSA playback device and reports
// presence transitions, so an unplugged or dead USB sound card shows up in
// the logs before a button press fails silently.
package audiodev

import (
	"context"
	"log/slog"
	"time"

	"github.com/soundbox/soundbox/internal/events"
	"github.com/soundbox/soundbox/internal/logging"
)

// DefaultInterval is how often the configured device is re-checked.
const DefaultInterval = 30 * time.Second

// Monitor periodically checks that the configured playback device still
// enumerates and publishes an events.AudioDeviceStateEvent on every
// transition. The first check always publishes so subscribers start from a
// known state.
type Monitor struct {
	device   string
	interval time.Duration
	bus      *events.Bus
	probe    func(device string) (bool, error)

	present bool
	known   bool
}

// NewMonitor creates a monitor for the given aplay device string
// ("default", "hw:1,0", "plughw:0,0", ...).
func NewMonitor(device string, bus *events.Bus) *Monitor {
	return &Monitor{
		device:   device,
		interval: DefaultInterval,
		bus:      bus,
		probe:    probeDevice,
	}
}

// Run checks the device immediately and then on every interval tick until
// ctx is cancelled. A missing device never stops the loop.
func (m *Monitor) Run(ctx context.Context) {
	logger := logging.GetLogger("audiodev")

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.check(logger)

	for {
		select {
		case <-ticker.C:
			m.check(logger)
		case <-ctx.Done():
			return
		}
	}
}

func (m *Monitor) check(logger *slog.Logger) {
	present, err := m.probe(m.device)
	if err != nil {
		// Enumeration failure is reported as absence so the gauge and
		// logs reflect that playback would fail right now.
		logger.Warn("Playback device enumeration failed", "device", m.device, "error", err)
		present = false
	}

	if m.known && present == m.present {
		return
	}

	if present {
		logger.Info("Playback device present", "device", m.device)
	} else {
		logger.Warn("Playback device absent", "device", m.device)
	}

	m.present = present
	m.known = true

	if m.bus != nil {
		m.bus.Publish(events.AudioDeviceStateEvent{
			Device:    m.device,
			Present:   present,
			Timestamp: time.Now(),
		})
	}
}
