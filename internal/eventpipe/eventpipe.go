// Package eventpipe carries button events from the trigger daemon to the
// LED daemon over a named pipe. The pipe is the only coupling between the
// two processes: either side may restart at any time, and a missing peer
// costs at most the events emitted while it was gone.
//
// Messages are newline-terminated integers. A positive value is a press
// of that button, StopSignal means playback ended and the LEDs should
// return to idle.
package eventpipe

import (
	"errors"
	"fmt"
	"os"
	"syscall"
)

// DefaultPath is where the trigger and LED daemons meet.
const DefaultPath = "/tmp/sound_led_events"

// StopSignal is the sentinel written when the current playback exits on
// its own.
const StopSignal = 0

// ensureFIFO creates the named pipe when missing. A regular file squatting
// on the path is an error, not something to silently read from.
func ensureFIFO(path string) error {
	fi, err := os.Stat(path)
	switch {
	case err == nil:
		if fi.Mode()&os.ModeNamedPipe == 0 {
			return fmt.Errorf("%s exists and is not a named pipe", path)
		}
		return nil
	case os.IsNotExist(err):
		if err := syscall.Mkfifo(path, 0o666); err != nil && !errors.Is(err, syscall.EEXIST) {
			return fmt.Errorf("create event pipe: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("stat event pipe: %w", err)
	}
}
