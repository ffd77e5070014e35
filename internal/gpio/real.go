//go:build linux

package gpio

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/warthog618/go-gpiocdev"

	"github.com/sweeney/button-flasher/internal/logic"
)

// RealPort drives the button and light through the Linux GPIO character device.
type RealPort struct {
	chip   *gpiocdev.Chip
	button *gpiocdev.Line
	light  *gpiocdev.Line
	log    zerolog.Logger

	pressed     bool
	readFailing bool
	lit         logic.LightState
}

// NewRealPort requests the button line as input and the light line as an
// output driven low.
func NewRealPort(cfg Config, log zerolog.Logger) (*RealPort, error) {
	chip, err := gpiocdev.NewChip(cfg.Chip, gpiocdev.WithConsumer("button-flasher"))
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", cfg.Chip, err)
	}

	opts := []gpiocdev.LineReqOption{gpiocdev.AsInput}
	switch cfg.Bias {
	case BiasPullUp:
		opts = append(opts, gpiocdev.WithPullUp)
	case BiasPullDown:
		opts = append(opts, gpiocdev.WithPullDown)
	case BiasNone:
		opts = append(opts, gpiocdev.WithBiasDisabled)
	}
	if cfg.ActiveLow {
		opts = append(opts, gpiocdev.AsActiveLow)
	}

	button, err := chip.RequestLine(cfg.ButtonPin, opts...)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request button pin %d: %w", cfg.ButtonPin, err)
	}

	light, err := chip.RequestLine(cfg.LightPin, gpiocdev.AsOutput(0))
	if err != nil {
		button.Close()
		chip.Close()
		return nil, fmt.Errorf("request light pin %d: %w", cfg.LightPin, err)
	}

	return &RealPort{
		chip:   chip,
		button: button,
		light:  light,
		log:    log,
		lit:    logic.LightOff,
	}, nil
}

// Sample reads the button line. Line values are already logical: the
// active-low flag is applied by the kernel.
func (p *RealPort) Sample() error {
	v, err := p.button.Value()
	if err != nil {
		if !p.readFailing {
			p.log.Warn().Err(err).Msg("button read failing, holding last value")
			p.readFailing = true
		}
		return fmt.Errorf("read button pin: %w", err)
	}
	if p.readFailing {
		p.log.Info().Msg("button read recovered")
		p.readFailing = false
	}
	p.pressed = v == 1
	return nil
}

// ButtonPressed reports the latest sample.
func (p *RealPort) ButtonPressed() bool {
	return p.pressed
}

// ButtonReleased reports the complement of the latest sample.
func (p *RealPort) ButtonReleased() bool {
	return !p.pressed
}

// SetLight drives the light line. Repeated commands for the current level
// are skipped. Write errors are logged and retried on the next command.
func (p *RealPort) SetLight(state logic.LightState) {
	if state == p.lit {
		return
	}
	v := 0
	if state == logic.LightOn {
		v = 1
	}
	if err := p.light.SetValue(v); err != nil {
		p.log.Error().Err(err).Str("light", string(state)).Msg("set light failed")
		p.lit = ""
		return
	}
	p.lit = state
}

// Close turns the light off and releases GPIO resources.
// Lines are reconfigured to input with pull-down (matching Pi boot defaults)
// before closing so the pins are left in a clean state.
func (p *RealPort) Close() error {
	var errs []error

	if p.light != nil {
		if err := p.light.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("light off: %w", err))
		}
		if err := p.light.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure light pin: %w", err))
		}
		if err := p.light.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close light pin: %w", err))
		}
	}
	if p.button != nil {
		if err := p.button.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure button pin: %w", err))
		}
		if err := p.button.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close button pin: %w", err))
		}
	}
	if p.chip != nil {
		if err := p.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
