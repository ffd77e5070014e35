// Package events fans engine transitions out to the slower consumers
// (MQTT, metrics, status) without blocking the poll loop.
package events

import (
	"time"

	"github.com/kelindar/event"

	"github.com/sweeney/button-flasher/internal/logic"
)

// Event type constants for kelindar/event.
const (
	TypeTransition uint32 = iota + 1
)

// TransitionEvent is an engine transition stamped with the poll time.
type TransitionEvent struct {
	logic.Transition
	Time time.Time
}

// Type returns the event type identifier for TransitionEvent.
func (e TransitionEvent) Type() uint32 { return TypeTransition }

// Bus wraps a kelindar/event dispatcher.
// Each subscriber receives events asynchronously, in publish order.
type Bus struct {
	dispatcher *event.Dispatcher
}

// New creates a new event bus.
func New() *Bus {
	return &Bus{dispatcher: event.NewDispatcher()}
}

// Publish queues ev for every subscriber and returns immediately.
func (b *Bus) Publish(ev TransitionEvent) {
	event.Publish(b.dispatcher, ev)
}

// Subscribe registers handler and returns an unsubscribe function.
func (b *Bus) Subscribe(handler func(TransitionEvent)) func() {
	return event.Subscribe(b.dispatcher, handler)
}

// Close stops delivery to all subscribers.
func (b *Bus) Close() error {
	return b.dispatcher.Close()
}
