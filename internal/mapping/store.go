// Package mapping resolves button IDs to audio file paths. The table is
// owned by the web admin (SQLite) or a local TOML file; either way lookups
// are served from an in-memory snapshot that reloads swap atomically, so
// the press path never touches the backing source.
package mapping

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrNoMapping is returned by Lookup when the active profile has no entry
// for the button.
var ErrNoMapping = errors.New("no mapping for button")

// Store resolves button IDs to playable file paths.
type Store interface {
	// Lookup returns the audio file path mapped to buttonID, or
	// ErrNoMapping when the active profile has no entry for it.
	Lookup(ctx context.Context, buttonID int) (string, error)

	// Reload rebuilds the table from the backing source and swaps it in.
	// On error the previous table keeps serving.
	Reload(ctx context.Context) error

	// Len reports how many buttons the current table maps.
	Len() int

	// Device returns the playback device the source configures, or ""
	// when it does not carry one.
	Device() string

	// Close releases the backing source.
	Close() error
}

// New opens the backend selected by source: "sqlite" (default) or "toml".
func New(source, path string) (Store, error) {
	switch source {
	case "", "sqlite":
		return NewSQLite(path)
	case "toml":
		return NewTOML(path), nil
	default:
		return nil, fmt.Errorf("unknown mapping source %q", source)
	}
}

// table is the snapshot both backends serve lookups from. Reload builds a
// fresh map and swaps it in whole; readers never observe a partial table.
type table struct {
	mu      sync.RWMutex
	buttons map[int]string
	device  string
}

// Lookup implements the read half of Store.
func (t *table) Lookup(_ context.Context, buttonID int) (string, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if path, ok := t.buttons[buttonID]; ok {
		return path, nil
	}
	return "", ErrNoMapping
}

// Len reports how many buttons the current table maps.
func (t *table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.buttons)
}

// Device returns the playback device carried by the source.
func (t *table) Device() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.device
}

func (t *table) swap(buttons map[int]string, device string) {
	t.mu.Lock()
	t.buttons = buttons
	t.device = device
	t.mu.Unlock()
}
