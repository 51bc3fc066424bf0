//go:build linux

package trigger

import (
	"context"
	"log/slog"

	"github.com/soundbox/soundbox/pkg/linuxhw/hotplug"
)

// hotplugNudges emits a signal per tty or usb uevent so a replugged
// board reconnects without waiting out the backoff timer. When the
// netlink socket cannot be opened the caller gets a nil channel and
// falls back to backoff alone.
func hotplugNudges(ctx context.Context, logger *slog.Logger) <-chan struct{} {
	mon, err := hotplug.NewMonitor()
	if err != nil {
		logger.Debug("Hotplug monitor unavailable", "error", err)
		return nil
	}
	mon.AddSubsystemFilter(hotplug.SubsystemTTY)
	mon.AddSubsystemFilter(hotplug.SubsystemUSB)

	uevents := make(chan hotplug.Event, 16)
	nudge := make(chan struct{}, 1)

	go func() {
		if err := mon.Run(ctx, uevents); err != nil && ctx.Err() == nil {
			logger.Debug("Hotplug monitor stopped", "error", err)
		}
		mon.Close()
	}()
	go func() {
		for ev := range uevents {
			logger.Debug("Device event", "action", ev.Action, "subsystem", ev.Subsystem, "device", ev.DevName)
			select {
			case nudge <- struct{}{}:
			default:
			}
		}
	}()

	return nudge
}
