//go:build !linux

package trigger

import (
	"context"
	"log/slog"
)

// hotplugNudges needs netlink uevents, which only exist on Linux. A nil
// channel makes the reconnect loop rely on the backoff timer alone.
func hotplugNudges(_ context.Context, _ *slog.Logger) <-chan struct{} {
	return nil
}
