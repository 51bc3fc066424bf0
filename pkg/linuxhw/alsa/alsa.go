//go:build linux

// Package alsa provides pure Go bindings to the ALSA control API for
// audio playback device enumeration.
//
// This package does not use cgo, enabling simple cross-compilation for
// the architectures the console runs on (amd64 for development, arm and
// arm64 for the Pi image).
//
// # Device Enumeration
//
// Use ListPlaybackDevices to discover ALSA playback devices:
//
//	devices, err := alsa.ListPlaybackDevices()
//	for _, dev := range devices {
//	    fmt.Printf("%s: %s (%s)\n", dev.ALSADevice, dev.DeviceName, dev.CardName)
//	}
package alsa
