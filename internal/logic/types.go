// Package logic contains the pure push-button flasher state machine.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Hardware and time are reached only through the Port and Timer interfaces.
package logic

import "time"

// LightState is the commanded output level of the indicator light.
type LightState string

const (
	LightOn  LightState = "ON"
	LightOff LightState = "OFF"
)

// Toggle returns the opposite light state.
func (l LightState) Toggle() LightState {
	if l == LightOn {
		return LightOff
	}
	return LightOn
}

// State is the current state of the flasher engine.
type State string

const (
	StateNotPressed     State = "NOT_PRESSED"
	StateBlinkOn        State = "BLINK_ON"
	StateBlinkOff       State = "BLINK_OFF"
	StateReleasedButton State = "RELEASED_BUTTON"
)

// States lists every engine state, in declaration order.
var States = []State{StateNotPressed, StateBlinkOn, StateBlinkOff, StateReleasedButton}

// Port is the digital I/O surface the engine drives.
// Implementations must never fail towards the engine: read errors are
// normalised to a best-effort boolean by the port itself.
type Port interface {
	// SetLight commands the light. Setting the same state twice is harmless.
	SetLight(state LightState)

	// ButtonPressed reports whether the button is held down right now.
	ButtonPressed() bool

	// ButtonReleased reports whether the button is not held down right now.
	ButtonReleased() bool
}

// Timer is a restartable one-shot countdown.
type Timer interface {
	// Reset rearms the timer for d and clears any prior expiry.
	Reset(d time.Duration)

	// Expired reports whether d has elapsed since the last Reset.
	// Stays true until the next Reset.
	Expired() bool
}

// Transition records a single state change and the light command it issued.
type Transition struct {
	From  State
	To    State
	Light LightState
	// Commanded is false when the transition issued no light command.
	Commanded bool
}
