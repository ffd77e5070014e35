// Command flasher drives an indicator light from a push-button and reports
// engine transitions to MQTT.
package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sweeney/button-flasher/internal/config"
	"github.com/sweeney/button-flasher/internal/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := config.New()
	var configPath string

	root := &cobra.Command{
		Use:           "flasher",
		Short:         "Blink a light while a button is held",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.BindFlags(v, cmd.Flags()); err != nil {
				return err
			}
			return config.Read(v, configPath)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Decode(v)
			if err != nil {
				return err
			}
			log := logging.New("trace")
			logging.SetLevel(cfg.LogLevel)
			return run(v, cfg, log)
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: flasher.yaml in . ./config /etc/flasher)")
	addConfigFlags(root.PersistentFlags(), v)

	root.AddCommand(newStateCmd(v), newBlinkCmd(v))
	return root
}

// addConfigFlags registers one flag per config key, defaulting to the
// built-in value so --help shows it.
func addConfigFlags(f *pflag.FlagSet, v *viper.Viper) {
	f.Duration("poll", v.GetDuration(config.KeyPoll), "GPIO polling interval")
	f.Duration("blink-period", v.GetDuration(config.KeyBlinkPeriod), "Light on/off phase while the button is held")
	f.Duration("heartbeat", v.GetDuration(config.KeyHeartbeat), "Heartbeat interval (0 to disable)")
	f.String("chip", v.GetString(config.KeyChip), "GPIO chip")
	f.Int("pin-button", v.GetInt(config.KeyPinButton), "Line offset of the button")
	f.Int("pin-light", v.GetInt(config.KeyPinLight), "Line offset of the light")
	f.Bool("button-active-low", v.GetBool(config.KeyButtonActiveLow), "Button reads low when pressed")
	f.String("button-bias", v.GetString(config.KeyButtonBias), "Button bias: pull-up, pull-down or none")
	f.String("broker", v.GetString(config.KeyBroker), "MQTT broker address")
	f.String("client-id", v.GetString(config.KeyClientID), "MQTT client ID")
	f.String("username", "", "MQTT username")
	f.String("password", "", "MQTT password")
	f.Int("buffer", v.GetInt(config.KeyBuffer), "Messages kept while the broker is unreachable")
	f.String("http", v.GetString(config.KeyHTTP), "HTTP status address (empty to disable)")
	f.String("log-level", v.GetString(config.KeyLogLevel), "trace, debug, info, warn or error")
}
