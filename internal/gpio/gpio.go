// Package gpio provides the button/light port with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

import (
	"fmt"

	"github.com/sweeney/button-flasher/internal/logic"
)

// Port is the hardware side of the flasher: the engine-facing logic.Port
// plus the sampling and lifecycle calls made by the driver loop.
type Port interface {
	logic.Port

	// Sample reads the button once. ButtonPressed and ButtonReleased answer
	// from the latest sample, so every query within one poll agrees.
	// On error the previous sample is kept.
	Sample() error

	// Close turns the light off and releases GPIO resources.
	Close() error
}

// Default line offsets on gpiochip0 (BCM numbering on a Raspberry Pi).
const (
	DefaultChip      = "gpiochip0"
	DefaultPinButton = 17
	DefaultPinLight  = 27
)

// Bias selects the internal resistor on the button line.
type Bias string

const (
	BiasPullUp   Bias = "pull-up"
	BiasPullDown Bias = "pull-down"
	BiasNone     Bias = "none"
)

// ParseBias validates a bias name.
func ParseBias(s string) (Bias, error) {
	switch b := Bias(s); b {
	case BiasPullUp, BiasPullDown, BiasNone:
		return b, nil
	default:
		return "", fmt.Errorf("unknown bias %q (want pull-up, pull-down or none)", s)
	}
}

// Config describes the lines used by RealPort.
type Config struct {
	Chip      string
	ButtonPin int
	LightPin  int
	// ActiveLow inverts the button line: a low level means pressed.
	ActiveLow bool
	Bias      Bias
}

var (
	_ Port = (*RealPort)(nil)
	_ Port = (*FakePort)(nil)
)
