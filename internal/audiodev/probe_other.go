//go:build !linux

package audiodev

import "fmt"

func probeDevice(device string) (bool, error) {
	return false, fmt.Errorf("audio device enumeration not supported on this platform")
}
