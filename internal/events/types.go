package events

import "time"

// Event type constants for kelindar/event.
const (
	TypePress uint32 = iota + 1
	TypePressDebounced
	TypePlaybackStarted
	TypePlaybackStopped
	TypeMappingsReloaded
	TypeBoardConnected
	TypeBoardDisconnected
	TypeChannelChanged
	TypeAudioDeviceState
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// PressEvent represents an accepted button press from the board.
type PressEvent struct {
	ButtonID  int
	Timestamp time.Time
}

// Type returns the event type identifier for PressEvent.
func (e PressEvent) Type() uint32 { return TypePress }

// PressDebouncedEvent is published when a press is rejected because it
// arrived inside the host-side debounce window for that button.
type PressDebouncedEvent struct {
	ButtonID  int
	SinceLast time.Duration
	Timestamp time.Time
}

// Type returns the event type identifier for PressDebouncedEvent.
func (e PressDebouncedEvent) Type() uint32 { return TypePressDebounced }

// PlaybackStartedEvent is published after the player process has been
// spawned for a press.
type PlaybackStartedEvent struct {
	ButtonID  int
	FilePath  string
	PID       int
	Timestamp time.Time
}

// Type returns the event type identifier for PlaybackStartedEvent.
func (e PlaybackStartedEvent) Type() uint32 { return TypePlaybackStarted }

// PlaybackStoppedEvent is published exactly once when the current player
// process exits on its own. Playback that was interrupted by a newer
// press publishes nothing.
type PlaybackStoppedEvent struct {
	ButtonID  int
	ExitCode  int
	Timestamp time.Time
}

// Type returns the event type identifier for PlaybackStoppedEvent.
func (e PlaybackStoppedEvent) Type() uint32 { return TypePlaybackStopped }

// MappingsReloadedEvent is published after a mapping store reload
// attempt. Error is empty on success; on failure the previous table
// remains in effect.
type MappingsReloadedEvent struct {
	Source    string
	Buttons   int
	Error     string
	Timestamp time.Time
}

// Type returns the event type identifier for MappingsReloadedEvent.
func (e MappingsReloadedEvent) Type() uint32 { return TypeMappingsReloaded }

// BoardConnectedEvent is published when the serial connection to the
// button board is established.
type BoardConnectedEvent struct {
	Port      string
	Timestamp time.Time
}

// Type returns the event type identifier for BoardConnectedEvent.
func (e BoardConnectedEvent) Type() uint32 { return TypeBoardConnected }

// BoardDisconnectedEvent is published when the serial connection is lost.
type BoardDisconnectedEvent struct {
	Port      string
	Reason    string
	Timestamp time.Time
}

// Type returns the event type identifier for BoardDisconnectedEvent.
func (e BoardDisconnectedEvent) Type() uint32 { return TypeBoardDisconnected }

// ChannelChangedEvent is published by the channel selector monitor when
// the rotary switch position changes.
type ChannelChangedEvent struct {
	Channel   int
	Timestamp time.Time
}

// Type returns the event type identifier for ChannelChangedEvent.
func (e ChannelChangedEvent) Type() uint32 { return TypeChannelChanged }

// AudioDeviceStateEvent marks presence transitions of the configured
// ALSA playback device.
type AudioDeviceStateEvent struct {
	Device    string
	Present   bool
	Timestamp time.Time
}

// Type returns the event type identifier for AudioDeviceStateEvent.
func (e AudioDeviceStateEvent) Type() uint32 { return TypeAudioDeviceState }
