// Package config loads daemon configuration from flags, environment and an
// optional flasher.yaml file, and watches the file for live changes.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sweeney/button-flasher/internal/gpio"
	"github.com/sweeney/button-flasher/internal/logic"
	"github.com/sweeney/button-flasher/internal/mqtt"
)

// EnvPrefix prefixes every environment override, e.g. FLASHER_BLINK_PERIOD.
const EnvPrefix = "FLASHER"

// Config keys.
const (
	KeyPoll            = "poll"
	KeyBlinkPeriod     = "blink_period"
	KeyHeartbeat       = "heartbeat"
	KeyChip            = "chip"
	KeyPinButton       = "pin_button"
	KeyPinLight        = "pin_light"
	KeyButtonActiveLow = "button_active_low"
	KeyButtonBias      = "button_bias"
	KeyBroker          = "broker"
	KeyClientID        = "client_id"
	KeyUsername        = "username"
	KeyPassword        = "password"
	KeyBuffer          = "buffer"
	KeyHTTP            = "http"
	KeyLogLevel        = "log_level"
)

// Config is the validated daemon configuration.
type Config struct {
	Poll        time.Duration
	BlinkPeriod time.Duration
	Heartbeat   time.Duration
	GPIO        gpio.Config
	MQTT        mqtt.Options
	HTTPAddr    string
	LogLevel    string
}

// New returns a viper instance with defaults, env binding and the config
// search path set. The file is optional.
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault(KeyPoll, 10*time.Millisecond)
	v.SetDefault(KeyBlinkPeriod, logic.DefaultBlinkPeriod)
	v.SetDefault(KeyHeartbeat, 15*time.Minute)
	v.SetDefault(KeyChip, gpio.DefaultChip)
	v.SetDefault(KeyPinButton, gpio.DefaultPinButton)
	v.SetDefault(KeyPinLight, gpio.DefaultPinLight)
	v.SetDefault(KeyButtonActiveLow, true)
	v.SetDefault(KeyButtonBias, string(gpio.BiasPullUp))
	v.SetDefault(KeyBroker, "tcp://localhost:1883")
	v.SetDefault(KeyClientID, "flasher")
	v.SetDefault(KeyUsername, "")
	v.SetDefault(KeyPassword, "")
	v.SetDefault(KeyBuffer, mqtt.DefaultBufferSize)
	v.SetDefault(KeyHTTP, ":8080")
	v.SetDefault(KeyLogLevel, "info")

	v.SetConfigName("flasher")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/flasher")

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	return v
}

// BindFlags lets command line flags override file and env values.
// Flag names use dashes where keys use underscores (--blink-period).
func BindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	var err error
	flags.VisitAll(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		err = v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f)
	})
	return err
}

// Read loads the config file, if any. A missing file is not an error.
// An explicit path replaces the search path.
func Read(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// Decode builds and validates a Config from v.
func Decode(v *viper.Viper) (Config, error) {
	bias, err := gpio.ParseBias(v.GetString(KeyButtonBias))
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", KeyButtonBias, err)
	}

	cfg := Config{
		Poll:        v.GetDuration(KeyPoll),
		BlinkPeriod: v.GetDuration(KeyBlinkPeriod),
		Heartbeat:   v.GetDuration(KeyHeartbeat),
		GPIO: gpio.Config{
			Chip:      v.GetString(KeyChip),
			ButtonPin: v.GetInt(KeyPinButton),
			LightPin:  v.GetInt(KeyPinLight),
			ActiveLow: v.GetBool(KeyButtonActiveLow),
			Bias:      bias,
		},
		MQTT: mqtt.Options{
			Broker:     v.GetString(KeyBroker),
			ClientID:   v.GetString(KeyClientID),
			Username:   v.GetString(KeyUsername),
			Password:   v.GetString(KeyPassword),
			BufferSize: v.GetInt(KeyBuffer),
		},
		HTTPAddr: v.GetString(KeyHTTP),
		LogLevel: v.GetString(KeyLogLevel),
	}
	return cfg, cfg.Validate()
}

// Validate checks value ranges.
func (c Config) Validate() error {
	var errs []error
	if c.Poll <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %v", KeyPoll, c.Poll))
	}
	if c.BlinkPeriod <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %v", KeyBlinkPeriod, c.BlinkPeriod))
	}
	if c.Heartbeat < 0 {
		errs = append(errs, fmt.Errorf("%s must not be negative, got %v", KeyHeartbeat, c.Heartbeat))
	}
	if c.GPIO.ButtonPin < 0 || c.GPIO.LightPin < 0 {
		errs = append(errs, fmt.Errorf("pins must not be negative (button=%d light=%d)", c.GPIO.ButtonPin, c.GPIO.LightPin))
	}
	if c.GPIO.ButtonPin == c.GPIO.LightPin {
		errs = append(errs, fmt.Errorf("%s and %s must differ, both %d", KeyPinButton, KeyPinLight, c.GPIO.ButtonPin))
	}
	if c.MQTT.Broker == "" {
		errs = append(errs, fmt.Errorf("%s must be set", KeyBroker))
	}
	return errors.Join(errs...)
}

// Watch re-decodes the config file on every change and hands valid
// configs to onChange. Invalid edits are reported to onError and ignored.
// Callbacks run on viper's watcher goroutine.
func Watch(v *viper.Viper, onChange func(Config), onError func(error)) {
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := Decode(v)
		if err != nil {
			onError(fmt.Errorf("reload %s: %w", e.Name, err))
			return
		}
		onChange(cfg)
	})
	v.WatchConfig()
}
