package events

import (
	"github.com/kelindar/event"
)

// Bus wraps kelindar/event dispatcher for event broadcasting
type Bus struct {
	dispatcher *event.Dispatcher
}

// New creates a new event bus
func New() *Bus {
	return &Bus{
		dispatcher: event.NewDispatcher(),
	}
}

// Publish publishes an event to all subscribers
// Usage: bus.Publish(PressEvent{...})
func (b *Bus) Publish(ev Event) {
	// Use type switch to call the generic Publish with the correct type
	switch e := ev.(type) {
	case PressEvent:
		event.Publish(b.dispatcher, e)
	case PressDebouncedEvent:
		event.Publish(b.dispatcher, e)
	case PlaybackStartedEvent:
		event.Publish(b.dispatcher, e)
	case PlaybackStoppedEvent:
		event.Publish(b.dispatcher, e)
	case MappingsReloadedEvent:
		event.Publish(b.dispatcher, e)
	case BoardConnectedEvent:
		event.Publish(b.dispatcher, e)
	case BoardDisconnectedEvent:
		event.Publish(b.dispatcher, e)
	case ChannelChangedEvent:
		event.Publish(b.dispatcher, e)
	case AudioDeviceStateEvent:
		event.Publish(b.dispatcher, e)
	}
}

// Subscribe subscribes to events with a handler function
// The handler type determines which events it receives (type inference)
// Returns an unsubscribe function
// Usage: unsub := bus.Subscribe(func(e PressEvent) { ... })
func (b *Bus) Subscribe(handler any) func() {
	// For each known event type, check if the handler matches
	switch h := handler.(type) {
	case func(PressEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(PressDebouncedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(PlaybackStartedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(PlaybackStoppedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(MappingsReloadedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(BoardConnectedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(BoardDisconnectedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(ChannelChangedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(AudioDeviceStateEvent):
		return event.Subscribe(b.dispatcher, h)
	default:
		// Return a no-op function if handler type is not recognized
		return func() {}
	}
}
