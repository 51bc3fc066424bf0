package metrics

import (
	"github.com/soundbox/soundbox/internal/events"
)

// Bind subscribes the metrics collectors to the event bus and returns a
// function that removes the subscriptions. Playback failures are counted
// by the player itself, so stop events only clear the active gauge here.
func Bind(bus *events.Bus) func() {
	unsubs := []func(){
		bus.Subscribe(func(e events.PressEvent) {
			IncPress(e.ButtonID)
		}),
		bus.Subscribe(func(_ events.PressDebouncedEvent) {
			IncPressDebounced()
		}),
		bus.Subscribe(func(_ events.PlaybackStartedEvent) {
			IncPlaybackStarted()
			SetPlaybackActive(true)
		}),
		bus.Subscribe(func(_ events.PlaybackStoppedEvent) {
			SetPlaybackActive(false)
		}),
		bus.Subscribe(func(e events.MappingsReloadedEvent) {
			IncMappingReload(e.Error == "")
		}),
		bus.Subscribe(func(_ events.BoardConnectedEvent) {
			IncSerialReconnect()
		}),
		bus.Subscribe(func(e events.AudioDeviceStateEvent) {
			SetAudioDevicePresent(e.Present)
		}),
	}

	return func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}
}
