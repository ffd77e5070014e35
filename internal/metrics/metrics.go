// Package metrics provides Prometheus metrics for the flasher engine.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sweeney/button-flasher/internal/events"
	"github.com/sweeney/button-flasher/internal/logic"
)

const namespace = "flasher"

// Metrics holds the flasher collectors on their own registry.
type Metrics struct {
	registry *prometheus.Registry

	transitions   *prometheus.CounterVec
	lightCommands *prometheus.CounterVec
	presses       prometheus.Counter
	polls         prometheus.Counter
	state         *prometheus.GaugeVec
}

// New creates the collectors. The state gauge starts at NOT_PRESSED.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	m := &Metrics{
		registry: reg,
		transitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      "Engine state transitions",
		}, []string{"from", "to"}),
		lightCommands: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "light_commands_total",
			Help:      "Light commands issued by the engine",
		}, []string{"state"}),
		presses: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "presses_total",
			Help:      "Button presses that started a blink sequence",
		}),
		polls: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "polls_total",
			Help:      "DoWork calls made by the driver loop",
		}),
		state: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "state",
			Help:      "1 for the current engine state, 0 otherwise",
		}, []string{"state"}),
	}
	m.setState(logic.StateNotPressed)
	return m
}

// ObserveTransition records one engine transition.
func (m *Metrics) ObserveTransition(ev events.TransitionEvent) {
	m.transitions.WithLabelValues(string(ev.From), string(ev.To)).Inc()
	if ev.Commanded {
		m.lightCommands.WithLabelValues(string(ev.Light)).Inc()
	}
	if ev.From == logic.StateNotPressed && ev.To == logic.StateBlinkOn {
		m.presses.Inc()
	}
	m.setState(ev.To)
}

// ObservePoll counts one driver loop poll.
func (m *Metrics) ObservePoll() {
	m.polls.Inc()
}

func (m *Metrics) setState(current logic.State) {
	for _, s := range logic.States {
		v := 0.0
		if s == current {
			v = 1
		}
		m.state.WithLabelValues(string(s)).Set(v)
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
