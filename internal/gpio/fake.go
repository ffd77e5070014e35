package gpio

import "github.com/sweeney/button-flasher/internal/logic"

// FakePort is a test double that returns scripted button levels and
// records light commands.
type FakePort struct {
	// Samples contains scripted pressed levels.
	// Each call to Sample() consumes the next one; the last repeats.
	// With no samples, Pressed is left as set by the test.
	Samples []bool

	// index tracks current position in Samples
	index int

	// Pressed is the current sampled level.
	Pressed bool

	// Released, if set, is returned by ButtonReleased instead of !Pressed.
	Released *bool

	// ReadError, if set, will be returned by Sample()
	ReadError error

	// Light is the last commanded light state.
	Light logic.LightState

	// Commands records every SetLight call in order.
	Commands []logic.LightState

	// Closed tracks if Close was called
	Closed bool
}

// NewFakePort creates a FakePort with the given samples and the light off.
func NewFakePort(samples []bool) *FakePort {
	return &FakePort{Samples: samples, Light: logic.LightOff}
}

// Sample advances to the next scripted level.
func (f *FakePort) Sample() error {
	if f.ReadError != nil {
		return f.ReadError
	}
	if len(f.Samples) == 0 {
		return nil
	}

	f.Pressed = f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}
	return nil
}

// ButtonPressed reports the current level.
func (f *FakePort) ButtonPressed() bool {
	return f.Pressed
}

// ButtonReleased reports Released if set, otherwise the complement of Pressed.
func (f *FakePort) ButtonReleased() bool {
	if f.Released != nil {
		return *f.Released
	}
	return !f.Pressed
}

// SetLight records the command.
func (f *FakePort) SetLight(state logic.LightState) {
	f.Light = state
	f.Commands = append(f.Commands, state)
}

// Close turns the light off and marks the port as closed.
func (f *FakePort) Close() error {
	f.Light = logic.LightOff
	f.Closed = true
	return nil
}

// Reset rewinds the script and clears recorded commands.
func (f *FakePort) Reset() {
	f.index = 0
	f.Pressed = false
	f.Light = logic.LightOff
	f.Commands = nil
	f.Closed = false
}
