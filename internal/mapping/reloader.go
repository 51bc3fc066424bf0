package mapping

import (
	"context"
	"time"

	"github.com/soundbox/soundbox/internal/config"
	"github.com/soundbox/soundbox/internal/events"
	"github.com/soundbox/soundbox/internal/logging"
)

// Reloader reloads the store when the web admin rewrites the mapping
// source. The watch covers atomic rename-replacement and, for a SQLite
// source, the -wal sidecar where WAL-mode commits land first.
type Reloader struct {
	watcher *config.Watcher[int]
}

// ReloaderOption configures a Reloader.
type ReloaderOption func(*reloaderSettings)

type reloaderSettings struct {
	debounce time.Duration
}

// WithDebounce sets how long to wait after the last change before
// reloading. Default is 500ms.
func WithDebounce(d time.Duration) ReloaderOption {
	return func(s *reloaderSettings) {
		s.debounce = d
	}
}

// NewReloader creates a reloader for store backed by the file at path.
func NewReloader(store Store, path string, bus *events.Bus, opts ...ReloaderOption) *Reloader {
	settings := reloaderSettings{debounce: 500 * time.Millisecond}
	for _, opt := range opts {
		opt(&settings)
	}

	logger := logging.GetLogger("mapping")
	publish := func(ev events.MappingsReloadedEvent) {
		if bus != nil {
			ev.Source = path
			ev.Timestamp = time.Now()
			bus.Publish(ev)
		}
	}

	watcher := config.NewConfigWatcher(path,
		func(string) (int, error) {
			if err := store.Reload(context.Background()); err != nil {
				return 0, err
			}
			return store.Len(), nil
		},
		logger,
		config.WithDebounce[int](settings.debounce),
		config.WithSiblings[int]("-wal"),
		config.WithErrorHandler[int](func(err error) {
			logger.Error("Mapping reload failed, previous table keeps serving", "error", err)
			publish(events.MappingsReloadedEvent{Error: err.Error()})
		}),
	)
	watcher.OnReload(func(buttons int) {
		logger.Info("Mappings reloaded", "buttons", buttons)
		publish(events.MappingsReloadedEvent{Buttons: buttons})
	})

	return &Reloader{watcher: watcher}
}

// Start begins watching the source file for changes.
func (r *Reloader) Start() error {
	return r.watcher.Start()
}

// Stop stops watching and cleans up resources.
func (r *Reloader) Stop() error {
	return r.watcher.Stop()
}
