// Package status provides a thread-safe status tracker for the flasher daemon.
// It is written by bus subscribers and the run loop, and read by HTTP handlers
// and MQTT lifecycle events.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/button-flasher/internal/events"
	"github.com/sweeney/button-flasher/internal/logic"
)

// NetworkInfo contains network state.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	PollMs      int64
	HeartbeatMs int64
	Broker      string
	HTTPAddr    string
	Chip        string
	ButtonPin   int
	LightPin    int
}

// Counts tracks engine activity since startup.
type Counts struct {
	Presses  int
	Flips    int
	Releases int
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	State          logic.State
	Light          logic.LightState
	LastTransition time.Time
	BlinkPeriod    time.Duration
	Counts         Counts
	StartTime      time.Time
	Now            time.Time
	MQTTConnected  bool
	Network        *NetworkInfo
	Config         Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the engine idle and the light off.
func NewTracker(startTime time.Time, blinkPeriod time.Duration, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			State:       logic.StateNotPressed,
			Light:       logic.LightOff,
			BlinkPeriod: blinkPeriod,
			StartTime:   startTime,
			Config:      cfg,
		},
	}
}

// Observe applies one engine transition.
func (t *Tracker) Observe(ev events.TransitionEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.snap.State = ev.To
	t.snap.LastTransition = ev.Time
	if ev.Commanded {
		t.snap.Light = ev.Light
	}

	switch {
	case ev.From == logic.StateNotPressed && ev.To == logic.StateBlinkOn:
		t.snap.Counts.Presses++
	case ev.To == logic.StateReleasedButton:
		t.snap.Counts.Releases++
	case ev.From == logic.StateBlinkOn && ev.To == logic.StateBlinkOff,
		ev.From == logic.StateBlinkOff && ev.To == logic.StateBlinkOn:
		t.snap.Counts.Flips++
	}
}

// SetBlinkPeriod records the live blink period.
func (t *Tracker) SetBlinkPeriod(d time.Duration) {
	t.mu.Lock()
	t.snap.BlinkPeriod = d
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
