package eventpipe

import (
	"bufio"
	"context"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/soundbox/soundbox/internal/logging"
)

// reopenDelay paces reconnect attempts after a read or open failure.
const reopenDelay = time.Second

// Reader delivers event IDs from the pipe to a handler. It holds the pipe
// open read-write, so reads park in the poller across writer restarts and
// no press can fall into a close/reopen gap.
type Reader struct {
	path    string
	handler func(id int)
	logger  *slog.Logger
}

// NewReader creates a reader calling handler for every well-formed event
// line. path "" means DefaultPath.
func NewReader(path string, handler func(id int)) *Reader {
	if path == "" {
		path = DefaultPath
	}
	return &Reader{
		path:    path,
		handler: handler,
		logger:  logging.GetLogger("pipe"),
	}
}

// Run reads events until ctx is cancelled. The pipe is created when
// missing, and read failures reconnect after a pause instead of
// propagating. Malformed lines are ignored.
func (r *Reader) Run(ctx context.Context) {
	for {
		if err := r.session(ctx); err != nil && ctx.Err() == nil {
			r.logger.Warn("Event pipe read failed", "path", r.path, "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(reopenDelay):
		}
	}
}

// session opens the pipe and scans lines until an error or cancellation.
func (r *Reader) session(ctx context.Context) error {
	if err := ensureFIFO(r.path); err != nil {
		return err
	}

	// O_RDWR keeps a write end alive on our side, so the scanner never
	// sees EOF when the trigger daemon closes between notifications.
	f, err := os.OpenFile(r.path, os.O_RDWR, 0)
	if err != nil {
		return err
	}
	defer f.Close()

	// Closing the file is what unparks a blocked read on cancellation.
	stop := context.AfterFunc(ctx, func() { f.Close() })
	defer stop()

	r.logger.Info("Listening on event pipe", "path", r.path)

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		id, err := strconv.Atoi(line)
		if err != nil || id < 0 {
			continue
		}
		r.handler(id)
	}
	return scanner.Err()
}
