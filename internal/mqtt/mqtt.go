// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/button-flasher/internal/events"
)

// Topic is the MQTT topic for engine transitions.
const Topic = "home/flasher/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "home/flasher/system"

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends an engine transition to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(ev events.TransitionEvent) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(ev SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Flasher FlasherPayload `json:"flasher"`
}

// FlasherPayload contains the transition details.
type FlasherPayload struct {
	Timestamp string `json:"timestamp"`
	From      string `json:"from"`
	To        string `json:"to"`
	Light     string `json:"light,omitempty"`
}

// FormatPayload creates the JSON payload for an engine transition.
// Light is only present when the transition commanded the light.
func FormatPayload(ev events.TransitionEvent) ([]byte, error) {
	p := FlasherPayload{
		Timestamp: ev.Time.UTC().Format(time.RFC3339),
		From:      string(ev.From),
		To:        string(ev.To),
	}
	if ev.Commanded {
		p.Light = string(ev.Light)
	}
	return json.Marshal(Payload{Flasher: p})
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp,omitempty"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
// A zero Timestamp is omitted.
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	inner := SystemPayloadInner{
		Event:  event.Event,
		Reason: event.Reason,
	}
	if !event.Timestamp.IsZero() {
		inner.Timestamp = event.Timestamp.UTC().Format(time.RFC3339)
	}
	return json.Marshal(SystemPayload{System: inner})
}

// WillPayload is the retained last-will message the broker publishes if
// the daemon disappears without a clean shutdown.
func WillPayload() []byte {
	data, _ := FormatSystemPayload(SystemEvent{Event: "OFFLINE", Reason: "CONNECTION_LOST"})
	return data
}
