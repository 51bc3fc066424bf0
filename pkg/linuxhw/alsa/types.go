//go:build linux

package alsa

import "strings"

// Device represents an ALSA audio playback device.
type Device struct {
	CardNumber   int
	CardID       string
	CardName     string
	DeviceNumber int
	DeviceName   string
	ALSADevice   string // ALSA device string (e.g., "hw:0,0")
}

// Stream types
const (
	StreamPlayback = 0
	StreamCapture  = 1
)

// FormatALSADevice creates an ALSA device string from card and device numbers.
func FormatALSADevice(cardNum, deviceNum int) string {
	return "hw:" + itoa(cardNum) + "," + itoa(deviceNum)
}

// ParseALSADevice extracts card and device numbers from device strings
// like "hw:1,0" or "plughw:1,0". Returns false for named PCMs such as
// "default" that do not address a card directly.
func ParseALSADevice(device string) (cardNum, deviceNum int, ok bool) {
	rest, found := strings.CutPrefix(device, "plughw:")
	if !found {
		rest, found = strings.CutPrefix(device, "hw:")
	}
	if !found {
		return 0, 0, false
	}
	cardPart, devPart, found := strings.Cut(rest, ",")
	if !found {
		// "hw:1" addresses device 0 on card 1.
		devPart = "0"
	}
	cardNum, ok = atoi(cardPart)
	if !ok {
		return 0, 0, false
	}
	deviceNum, ok = atoi(devPart)
	if !ok {
		return 0, 0, false
	}
	return cardNum, deviceNum, true
}

// itoa is a simple int to string conversion.
func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	var b [20]byte
	pos := len(b)
	neg := i < 0
	if neg {
		i = -i
	}
	for i > 0 {
		pos--
		b[pos] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		pos--
		b[pos] = '-'
	}
	return string(b[pos:])
}

// atoi parses a non-negative decimal integer.
func atoi(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	return n, true
}
