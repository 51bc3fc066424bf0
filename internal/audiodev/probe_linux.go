//go:build linux

package audiodev

import (
	"github.com/soundbox/soundbox/pkg/linuxhw/alsa"
)

func probeDevice(device string) (bool, error) {
	devices, err := alsa.ListPlaybackDevices()
	if err != nil {
		return false, err
	}
	return deviceListed(devices, device), nil
}

// deviceListed reports whether the configured aplay device is backed by one
// of the enumerated playback devices. Named PCMs ("default", "dmix:...")
// route through whatever alsa-lib config points at, so any playback device
// counts; hw:/plughw: addresses must match card and device exactly.
func deviceListed(devices []alsa.Device, configured string) bool {
	card, dev, ok := alsa.ParseALSADevice(configured)
	if !ok {
		return len(devices) > 0
	}
	for _, d := range devices {
		if d.CardNumber == card && d.DeviceNumber == dev {
			return true
		}
	}
	return false
}
