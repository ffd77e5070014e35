package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/sweeney/button-flasher/internal/events"
	"github.com/sweeney/button-flasher/internal/logic"
)

func transition(from, to logic.State, light logic.LightState) events.TransitionEvent {
	return events.TransitionEvent{Transition: logic.Transition{
		From:      from,
		To:        to,
		Light:     light,
		Commanded: light != "",
	}}
}

func TestInitialState(t *testing.T) {
	m := New()
	if v := testutil.ToFloat64(m.state.WithLabelValues(string(logic.StateNotPressed))); v != 1 {
		t.Errorf("NOT_PRESSED gauge: got %v, want 1", v)
	}
	if v := testutil.ToFloat64(m.state.WithLabelValues(string(logic.StateBlinkOn))); v != 0 {
		t.Errorf("BLINK_ON gauge: got %v, want 0", v)
	}
}

func TestObserveTransition(t *testing.T) {
	m := New()

	m.ObserveTransition(transition(logic.StateNotPressed, logic.StateBlinkOn, logic.LightOn))
	m.ObserveTransition(transition(logic.StateBlinkOn, logic.StateBlinkOff, logic.LightOff))
	m.ObserveTransition(transition(logic.StateBlinkOff, logic.StateReleasedButton, ""))
	m.ObserveTransition(transition(logic.StateReleasedButton, logic.StateNotPressed, logic.LightOff))

	if v := testutil.ToFloat64(m.presses); v != 1 {
		t.Errorf("presses: got %v, want 1", v)
	}
	if v := testutil.ToFloat64(m.lightCommands.WithLabelValues("OFF")); v != 2 {
		t.Errorf("OFF commands: got %v, want 2", v)
	}
	if v := testutil.ToFloat64(m.lightCommands.WithLabelValues("ON")); v != 1 {
		t.Errorf("ON commands: got %v, want 1", v)
	}
	if v := testutil.ToFloat64(m.transitions.WithLabelValues("BLINK_OFF", "RELEASED_BUTTON")); v != 1 {
		t.Errorf("BLINK_OFF->RELEASED_BUTTON: got %v, want 1", v)
	}
	if v := testutil.ToFloat64(m.state.WithLabelValues(string(logic.StateNotPressed))); v != 1 {
		t.Errorf("NOT_PRESSED gauge: got %v, want 1", v)
	}
	if v := testutil.ToFloat64(m.state.WithLabelValues(string(logic.StateBlinkOff))); v != 0 {
		t.Errorf("BLINK_OFF gauge: got %v, want 0", v)
	}
}

func TestObservePoll(t *testing.T) {
	m := New()
	for i := 0; i < 3; i++ {
		m.ObservePoll()
	}
	if v := testutil.ToFloat64(m.polls); v != 3 {
		t.Errorf("polls: got %v, want 3", v)
	}
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObservePoll()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if rec.Code != 200 {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"flasher_polls_total 1", `flasher_state{state="NOT_PRESSED"} 1`} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}
}
