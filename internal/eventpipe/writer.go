package eventpipe

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"syscall"
	"time"

	"github.com/soundbox/soundbox/internal/logging"
	"github.com/soundbox/soundbox/internal/metrics"
)

// writeTimeout bounds a single notification. The pipe buffer fits
// thousands of events, so hitting this means the reader is wedged.
const writeTimeout = 50 * time.Millisecond

// Writer posts button IDs to the pipe without ever blocking the trigger
// path. Each notification opens the pipe non-blocking; when no reader has
// it open the event is dropped and counted, not retried.
type Writer struct {
	path   string
	logger *slog.Logger
}

// NewWriter ensures the pipe exists and returns a writer for it. path ""
// means DefaultPath.
func NewWriter(path string) (*Writer, error) {
	if path == "" {
		path = DefaultPath
	}
	if err := ensureFIFO(path); err != nil {
		return nil, err
	}
	return &Writer{
		path:   path,
		logger: logging.GetLogger("pipe"),
	}, nil
}

// Path returns the pipe path being written to.
func (w *Writer) Path() string {
	return w.path
}

// Notify writes one event line. An absent reader drops the event silently;
// that is the channel's contract, not a failure.
func (w *Writer) Notify(id int) error {
	f, err := w.open()
	if err != nil {
		if errors.Is(err, syscall.ENXIO) {
			metrics.IncEventPipeDropped()
			return nil
		}
		return fmt.Errorf("open event pipe: %w", err)
	}
	defer f.Close()

	f.SetWriteDeadline(time.Now().Add(writeTimeout))
	if _, err := fmt.Fprintf(f, "%d\n", id); err != nil {
		if errors.Is(err, os.ErrDeadlineExceeded) || errors.Is(err, syscall.EAGAIN) {
			// Reader attached but not draining. Dropping beats
			// stalling a press.
			metrics.IncEventPipeDropped()
			return nil
		}
		return fmt.Errorf("write event pipe: %w", err)
	}
	return nil
}

// NotifyStop writes the stop sentinel.
func (w *Writer) NotifyStop() error {
	return w.Notify(StopSignal)
}

// open opens the pipe for a single non-blocking write, recreating it once
// when something removed it since NewWriter.
func (w *Writer) open() (*os.File, error) {
	f, err := os.OpenFile(w.path, os.O_WRONLY|syscall.O_NONBLOCK, 0)
	if err == nil || !os.IsNotExist(err) {
		return f, err
	}

	w.logger.Warn("Event pipe vanished, recreating", "path", w.path)
	if err := ensureFIFO(w.path); err != nil {
		return nil, err
	}
	return os.OpenFile(w.path, os.O_WRONLY|syscall.O_NONBLOCK, 0)
}
