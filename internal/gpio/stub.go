//go:build !linux

package gpio

import (
	"errors"

	"github.com/rs/zerolog"

	"github.com/sweeney/button-flasher/internal/logic"
)

// RealPort is not available on non-Linux platforms.
type RealPort struct{}

// NewRealPort returns an error on non-Linux platforms.
func NewRealPort(cfg Config, log zerolog.Logger) (*RealPort, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

// Sample is not implemented on non-Linux platforms.
func (p *RealPort) Sample() error {
	return errors.New("gpio: not supported")
}

func (p *RealPort) ButtonPressed() bool  { return false }
func (p *RealPort) ButtonReleased() bool { return true }

func (p *RealPort) SetLight(state logic.LightState) {}

// Close is not implemented on non-Linux platforms.
func (p *RealPort) Close() error {
	return nil
}
