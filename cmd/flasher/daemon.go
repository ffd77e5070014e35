package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/sweeney/button-flasher/internal/config"
	"github.com/sweeney/button-flasher/internal/events"
	"github.com/sweeney/button-flasher/internal/gpio"
	"github.com/sweeney/button-flasher/internal/logging"
	"github.com/sweeney/button-flasher/internal/logic"
	"github.com/sweeney/button-flasher/internal/metrics"
	"github.com/sweeney/button-flasher/internal/mqtt"
	"github.com/sweeney/button-flasher/internal/status"
	"github.com/sweeney/button-flasher/internal/timer"
	"github.com/sweeney/button-flasher/internal/web"
)

func run(v *viper.Viper, cfg config.Config, log zerolog.Logger) error {
	port, err := gpio.NewRealPort(cfg.GPIO, logging.Component(log, "gpio"))
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer port.Close()

	publisher := mqtt.NewRealPublisher(cfg.MQTT, logging.Component(log, "mqtt"))
	defer publisher.Close()

	bus := events.New()
	defer bus.Close()

	m := metrics.New()

	tracker := status.NewTracker(time.Now(), cfg.BlinkPeriod, statusConfig(cfg))
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	subscribe(bus, m, tracker, publisher, logging.Component(log, "mqtt"))

	snap := tracker.Snapshot()
	startup := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startup); err != nil {
		log.Warn().Err(err).Msg("publish startup event")
	}

	if cfg.HTTPAddr != "" {
		srv := web.New(cfg.HTTPAddr, tracker, m.Handler(), logging.Component(log, "web"))
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("http server")
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Info().Str("addr", cfg.HTTPAddr).Msg("http status server listening")
	}

	updates := make(chan config.Config, 1)
	if v.ConfigFileUsed() != "" {
		config.Watch(v, func(c config.Config) {
			select {
			case updates <- c:
			default:
				log.Warn().Msg("config reload dropped, previous one still pending")
			}
		}, func(err error) {
			log.Warn().Err(err).Msg("ignoring invalid config")
		})
		log.Info().Str("file", v.ConfigFileUsed()).Msg("watching config")
	}

	ticker := time.NewTicker(cfg.Poll)
	defer ticker.Stop()

	var heartbeat <-chan time.Time
	if cfg.Heartbeat > 0 {
		hb := time.NewTicker(cfg.Heartbeat)
		defer hb.Stop()
		heartbeat = hb.C
	}

	var watchdog <-chan time.Time
	if interval, err := daemon.SdWatchdogEnabled(false); err == nil && interval > 0 {
		wd := time.NewTicker(interval / 2)
		defer wd.Stop()
		watchdog = wd.C
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	log.Info().
		Dur("poll", cfg.Poll).
		Dur("blink_period", cfg.BlinkPeriod).
		Dur("heartbeat", cfg.Heartbeat).
		Str("broker", cfg.MQTT.Broker).
		Int("pin_button", cfg.GPIO.ButtonPin).
		Int("pin_light", cfg.GPIO.LightPin).
		Msg("started")

	deps := loopDeps{
		port:        port,
		bus:         bus,
		publisher:   publisher,
		mqttStatus:  publisher,
		tracker:     tracker,
		metrics:     m,
		log:         logging.Component(log, "engine"),
		notify:      sdNotify(log),
		now:         time.Now,
		blinkPeriod: cfg.BlinkPeriod,
	}
	return runLoop(deps, ticker.C, heartbeat, watchdog, updates, sigCh)
}

// loopDeps is everything runLoop drives. mqttStatus, tracker, metrics and
// notify may be nil.
type loopDeps struct {
	port        gpio.Port
	bus         *events.Bus
	publisher   mqtt.Publisher
	mqttStatus  mqtt.ConnectionStatus
	tracker     *status.Tracker
	metrics     *metrics.Metrics
	log         zerolog.Logger
	notify      func(state string)
	now         func() time.Time
	blinkPeriod time.Duration
}

// runLoop polls the engine on every tick until a signal arrives. The blink
// timer reads the time of the latest tick, so a test can drive it
// entirely through the tick channel.
func runLoop(d loopDeps, tick, heartbeat, watchdog <-chan time.Time, updates <-chan config.Config, sig <-chan os.Signal) error {
	current := d.now()
	clock := func() time.Time { return current }

	engine := logic.NewEngine(d.port, timer.New(clock), d.blinkPeriod)
	engine.OnTransition(func(tr logic.Transition) {
		e := d.log.Debug().Str("from", string(tr.From)).Str("to", string(tr.To))
		if tr.Commanded {
			e = e.Str("light", string(tr.Light))
		}
		e.Msg("transition")
		d.bus.Publish(events.TransitionEvent{Transition: tr, Time: current})
	})

	notify := d.notify
	if notify == nil {
		notify = func(string) {}
	}
	notify(daemon.SdNotifyReady)

	for {
		select {
		case s := <-sig:
			d.log.Info().Stringer("signal", s).Msg("shutting down")
			notify(daemon.SdNotifyStopping)
			reason := signalName(s)
			event := mqtt.SystemEvent{
				Timestamp: d.now(),
				Event:     "SHUTDOWN",
				Reason:    reason,
				Retained:  true,
			}
			if d.tracker != nil {
				refreshConnection(d)
				event.RawPayload = status.FormatStatusEvent(d.tracker.Snapshot(), "SHUTDOWN", reason)
			}
			if err := d.publisher.PublishSystem(event); err != nil {
				d.log.Warn().Err(err).Msg("publish shutdown event")
			}
			return nil

		case t := <-tick:
			if !t.IsZero() {
				current = t
			}
			// The port logs failure streaks itself and keeps the last level.
			if err := d.port.Sample(); err != nil {
				d.log.Trace().Err(err).Msg("sample")
			}
			engine.DoWork()
			if d.metrics != nil {
				d.metrics.ObservePoll()
			}
			refreshConnection(d)

		case <-heartbeat:
			event := mqtt.SystemEvent{Timestamp: d.now(), Event: "HEARTBEAT"}
			if d.tracker != nil {
				refreshConnection(d)
				if net := readNetworkInfo(); net != nil {
					d.tracker.SetNetwork(net)
				}
				snap := d.tracker.Snapshot()
				d.log.Info().
					Str("state", string(snap.State)).
					Int("presses", snap.Counts.Presses).
					Dur("uptime", snap.Uptime()).
					Msg("heartbeat")
				event.RawPayload = status.FormatStatusEvent(snap, "HEARTBEAT", "")
			}
			if err := d.publisher.PublishSystem(event); err != nil {
				d.log.Warn().Err(err).Msg("publish heartbeat")
			}

		case <-watchdog:
			notify(daemon.SdNotifyWatchdog)

		case c := <-updates:
			if c.BlinkPeriod != engine.BlinkPeriod() {
				d.log.Info().Dur("blink_period", c.BlinkPeriod).Msg("blink period changed")
				engine.SetBlinkPeriod(c.BlinkPeriod)
				if d.tracker != nil {
					d.tracker.SetBlinkPeriod(c.BlinkPeriod)
				}
			}
			logging.SetLevel(c.LogLevel)
		}
	}
}

// subscribe attaches the transition consumers to the bus. Each subscriber
// runs on its own goroutine.
func subscribe(bus *events.Bus, m *metrics.Metrics, tracker *status.Tracker, publisher mqtt.Publisher, log zerolog.Logger) {
	if m != nil {
		bus.Subscribe(m.ObserveTransition)
	}
	if tracker != nil {
		bus.Subscribe(tracker.Observe)
	}
	bus.Subscribe(func(ev events.TransitionEvent) {
		if err := publisher.Publish(ev); err != nil {
			log.Warn().Err(err).Str("to", string(ev.To)).Msg("publish transition")
		}
	})
}

func refreshConnection(d loopDeps) {
	if d.tracker != nil && d.mqttStatus != nil {
		d.tracker.SetMQTTConnected(d.mqttStatus.IsConnected())
	}
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	default:
		return "UNKNOWN"
	}
}

func sdNotify(log zerolog.Logger) func(string) {
	return func(state string) {
		if _, err := daemon.SdNotify(false, state); err != nil {
			log.Warn().Err(err).Str("state", state).Msg("systemd notify")
		}
	}
}

func statusConfig(cfg config.Config) status.Config {
	return status.Config{
		PollMs:      cfg.Poll.Milliseconds(),
		HeartbeatMs: cfg.Heartbeat.Milliseconds(),
		Broker:      cfg.MQTT.Broker,
		HTTPAddr:    cfg.HTTPAddr,
		Chip:        cfg.GPIO.Chip,
		ButtonPin:   cfg.GPIO.ButtonPin,
		LightPin:    cfg.GPIO.LightPin,
	}
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}
