package led

import "log/slog"

// noop satisfies Output on machines without LED hardware. It reports a
// single line so animations keep running, which makes simulation mode
// behave like a real deployment minus the light.
type noop struct {
	logger *slog.Logger
}

func newNoop(logger *slog.Logger) *noop {
	return &noop{logger: logger}
}

func (n *noop) Lines() int { return 1 }

func (n *noop) Set(line int, duty float64) error {
	n.logger.Debug("LED output not available (no-op)", "line", line, "duty", duty)
	return nil
}

func (n *noop) Close() error { return nil }
