// Package serialport locates and talks to the button board's USB CDC
// serial device.
package serialport

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNotFound is returned when no candidate device exists. Callers
// treat it as retryable: the board may simply not be plugged in yet.
var ErrNotFound = errors.New("serialport: no device found")

// controllerMarkers select /dev/serial/by-id names that look like the
// board's microcontroller.
var controllerMarkers = []string{"Pico", "RP2040"}

// Resolve returns a usable serial device path. The preferred path wins
// when it exists; otherwise stable /dev/serial/by-id links are tried,
// board-like names first; finally the first /dev/ttyACM* device.
func Resolve(preferred string) (string, error) {
	return resolveUnder("/dev", preferred)
}

// resolveUnder implements Resolve against an arbitrary device root so
// tests can run on a fake tree.
func resolveUnder(devRoot, preferred string) (string, error) {
	if preferred != "" {
		if _, err := os.Stat(preferred); err == nil {
			return preferred, nil
		}
	}

	byID := filepath.Join(devRoot, "serial", "by-id")
	if entries, err := os.ReadDir(byID); err == nil {
		var marked, rest []string
		for _, entry := range entries {
			if hasControllerMarker(entry.Name()) {
				marked = append(marked, entry.Name())
			} else {
				rest = append(rest, entry.Name())
			}
		}
		for _, name := range append(marked, rest...) {
			path := filepath.Join(byID, name)
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}
	}

	matches, _ := filepath.Glob(filepath.Join(devRoot, "ttyACM*"))
	sort.Strings(matches)
	for _, path := range matches {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", ErrNotFound
}

func hasControllerMarker(name string) bool {
	for _, marker := range controllerMarkers {
		if strings.Contains(name, marker) {
			return true
		}
	}
	return false
}
