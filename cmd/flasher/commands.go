package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sweeney/button-flasher/internal/config"
	"github.com/sweeney/button-flasher/internal/gpio"
	"github.com/sweeney/button-flasher/internal/logging"
	"github.com/sweeney/button-flasher/internal/logic"
	"github.com/sweeney/button-flasher/internal/timer"
)

func newStateCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "state",
		Short: "Print the current button level and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Decode(v)
			if err != nil {
				return err
			}
			port, err := gpio.NewRealPort(cfg.GPIO, logging.New(cfg.LogLevel))
			if err != nil {
				return fmt.Errorf("init gpio: %w", err)
			}
			defer port.Close()
			return printState(cmd.OutOrStdout(), port)
		},
	}
}

func printState(w io.Writer, port gpio.Port) error {
	if err := port.Sample(); err != nil {
		return fmt.Errorf("read gpio: %w", err)
	}
	level := "RELEASED"
	if port.ButtonPressed() {
		level = "PRESSED"
	}
	_, err := fmt.Fprintf(w, "button: %s\n", level)
	return err
}

func newBlinkCmd(v *viper.Viper) *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "blink",
		Short: "Toggle the light a few times to check the wiring",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Decode(v)
			if err != nil {
				return err
			}
			if count < 1 {
				return fmt.Errorf("--count must be at least 1, got %d", count)
			}
			port, err := gpio.NewRealPort(cfg.GPIO, logging.New(cfg.LogLevel))
			if err != nil {
				return fmt.Errorf("init gpio: %w", err)
			}
			defer port.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "toggling light %d times every %v\n", count, cfg.BlinkPeriod)
			blink(port, timer.New(nil), cfg.BlinkPeriod, count, func() { time.Sleep(cfg.Poll) })
			return nil
		},
	}
	cmd.Flags().IntVar(&count, "count", 6, "number of toggles")
	return cmd
}

// blink toggles the light count times, holding each level for period.
// wait is called while the timer runs. The light is left off.
func blink(port logic.Port, tm logic.Timer, period time.Duration, count int, wait func()) {
	light := logic.LightOff
	for i := 0; i < count; i++ {
		light = light.Toggle()
		port.SetLight(light)
		tm.Reset(period)
		for !tm.Expired() {
			wait()
		}
	}
	if light != logic.LightOff {
		port.SetLight(logic.LightOff)
	}
}
