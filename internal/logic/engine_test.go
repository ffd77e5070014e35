package logic

import (
	"testing"
	"time"
)

// testPort is a minimal Port double. released follows !pressed unless
// releasedOverride is set.
type testPort struct {
	pressed          bool
	releasedOverride *bool
	light            LightState
	sets             []LightState
	pressedCalls     int
	releasedCalls    int
}

func (p *testPort) SetLight(s LightState) {
	p.light = s
	p.sets = append(p.sets, s)
}

func (p *testPort) ButtonPressed() bool {
	p.pressedCalls++
	return p.pressed
}

func (p *testPort) ButtonReleased() bool {
	p.releasedCalls++
	if p.releasedOverride != nil {
		return *p.releasedOverride
	}
	return !p.pressed
}

type testTimer struct {
	expired bool
	resets  []time.Duration
}

func (t *testTimer) Reset(d time.Duration) {
	t.expired = false
	t.resets = append(t.resets, d)
}

func (t *testTimer) Expired() bool { return t.expired }

func newTestEngine() (*Engine, *testPort, *testTimer) {
	port := &testPort{light: LightOff}
	timer := &testTimer{}
	return NewEngine(port, timer, DefaultBlinkPeriod), port, timer
}

func TestNewEngine(t *testing.T) {
	e, _, _ := newTestEngine()
	if e.State() != StateNotPressed {
		t.Errorf("expected initial state NOT_PRESSED, got %s", e.State())
	}
	if e.BlinkPeriod() != time.Second {
		t.Errorf("expected blink period 1s, got %v", e.BlinkPeriod())
	}
}

func TestToggle(t *testing.T) {
	if LightOn.Toggle() != LightOff {
		t.Error("ON should toggle to OFF")
	}
	if LightOff.Toggle() != LightOn {
		t.Error("OFF should toggle to ON")
	}
}

func TestIdleStaysNotPressed(t *testing.T) {
	e, port, _ := newTestEngine()

	for i := 0; i < 100; i++ {
		if n := e.DoWork(); n != 0 {
			t.Fatalf("iteration %d: expected 0 transitions, got %d", i, n)
		}
		if e.State() != StateNotPressed {
			t.Fatalf("iteration %d: expected NOT_PRESSED, got %s", i, e.State())
		}
		if port.light != LightOff {
			t.Fatalf("iteration %d: expected light OFF, got %s", i, port.light)
		}
	}
	if len(port.sets) != 0 {
		t.Errorf("expected no light commands while idle, got %v", port.sets)
	}
	if port.releasedCalls != 0 {
		t.Errorf("released must not be consulted while idle, got %d calls", port.releasedCalls)
	}
}

func TestPressTurnsLightOn(t *testing.T) {
	e, port, timer := newTestEngine()
	port.pressed = true

	if n := e.DoWork(); n != 1 {
		t.Errorf("expected 1 transition on press, got %d", n)
	}
	if e.State() != StateBlinkOn {
		t.Errorf("expected BLINK_ON, got %s", e.State())
	}
	if port.light != LightOn {
		t.Errorf("expected light ON, got %s", port.light)
	}
	if len(timer.resets) != 1 || timer.resets[0] != time.Second {
		t.Errorf("expected one reset of 1s, got %v", timer.resets)
	}

	for i := 0; i < 100; i++ {
		if n := e.DoWork(); n != 0 {
			t.Fatalf("iteration %d: expected no transition while timer running, got %d", i, n)
		}
		if e.State() != StateBlinkOn || port.light != LightOn {
			t.Fatalf("iteration %d: expected BLINK_ON/ON, got %s/%s", i, e.State(), port.light)
		}
	}
	if port.pressedCalls != 1 {
		t.Errorf("pressed must only be consulted while idle, got %d calls", port.pressedCalls)
	}
}

func TestHandleStateSingleStep(t *testing.T) {
	e, port, timer := newTestEngine()

	if e.HandleState() {
		t.Error("idle HandleState should report no transition")
	}

	port.pressed = true
	if !e.HandleState() {
		t.Error("press should report a transition")
	}
	if e.HandleState() {
		t.Error("BLINK_ON with running timer should be stable")
	}

	timer.expired = true
	port.pressed = false
	if !e.HandleState() {
		t.Fatal("release should report a transition")
	}
	if e.State() != StateReleasedButton {
		t.Fatalf("single step should stop in RELEASED_BUTTON, got %s", e.State())
	}
	if !e.HandleState() {
		t.Error("RELEASED_BUTTON must always transition")
	}
	if e.State() != StateNotPressed {
		t.Errorf("expected NOT_PRESSED, got %s", e.State())
	}
}

func TestBlinkAlternation(t *testing.T) {
	e, port, timer := newTestEngine()
	port.pressed = true
	e.DoWork()

	wantStates := []State{StateBlinkOff, StateBlinkOn, StateBlinkOff, StateBlinkOn, StateBlinkOff}
	wantLights := []LightState{LightOff, LightOn, LightOff, LightOn, LightOff}

	for i := range wantStates {
		timer.expired = true
		if n := e.DoWork(); n != 1 {
			t.Fatalf("flip %d: expected 1 transition, got %d", i, n)
		}
		if e.State() != wantStates[i] {
			t.Errorf("flip %d: expected state %s, got %s", i, wantStates[i], e.State())
		}
		if port.light != wantLights[i] {
			t.Errorf("flip %d: expected light %s, got %s", i, wantLights[i], port.light)
		}
		if timer.expired {
			t.Errorf("flip %d: expiry should be consumed by a reset", i)
		}
	}

	if len(timer.resets) != 1+len(wantStates) {
		t.Errorf("expected %d resets, got %d", 1+len(wantStates), len(timer.resets))
	}
}

func TestReleasePrecedenceOverExpiry(t *testing.T) {
	tests := []struct {
		name  string
		flips int
		from  State
	}{
		{"from BLINK_ON", 0, StateBlinkOn},
		{"from BLINK_OFF", 1, StateBlinkOff},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, port, timer := newTestEngine()
			port.pressed = true
			e.DoWork()
			for i := 0; i < tt.flips; i++ {
				timer.expired = true
				e.DoWork()
			}
			if e.State() != tt.from {
				t.Fatalf("setup: expected %s, got %s", tt.from, e.State())
			}

			setsBefore := len(port.sets)
			resetsBefore := len(timer.resets)

			port.pressed = false
			timer.expired = true
			if n := e.DoWork(); n != 2 {
				t.Errorf("expected 2 chained transitions, got %d", n)
			}
			if e.State() != StateNotPressed {
				t.Errorf("expected NOT_PRESSED, got %s", e.State())
			}
			if port.light != LightOff {
				t.Errorf("expected light OFF, got %s", port.light)
			}

			sets := port.sets[setsBefore:]
			if len(sets) != 1 || sets[0] != LightOff {
				t.Errorf("expected exactly one OFF command on release, got %v", sets)
			}
			if len(timer.resets) != resetsBefore {
				t.Errorf("release must not reset the timer, got %d extra resets", len(timer.resets)-resetsBefore)
			}
		})
	}
}

func TestContradictoryPortIsBounded(t *testing.T) {
	// A port that reports both pressed and released must not spin DoWork.
	e, port, _ := newTestEngine()
	port.pressed = true
	e.DoWork()

	released := true
	port.releasedOverride = &released
	if n := e.DoWork(); n != maxStepsPerWork {
		t.Fatalf("expected DoWork to stop after %d transitions, got %d", maxStepsPerWork, n)
	}
	if e.State() != StateReleasedButton {
		t.Errorf("expected RELEASED_BUTTON after one lap, got %s", e.State())
	}

	// Once the signals agree again, the machine settles.
	port.releasedOverride = nil
	port.pressed = false
	e.DoWork()
	if e.State() != StateNotPressed || port.light != LightOff {
		t.Errorf("expected NOT_PRESSED/OFF, got %s/%s", e.State(), port.light)
	}
}

func TestConcreteScenario(t *testing.T) {
	e, port, timer := newTestEngine()

	if e.State() != StateNotPressed || port.light != LightOff {
		t.Fatalf("start: expected NOT_PRESSED/OFF, got %s/%s", e.State(), port.light)
	}

	port.pressed = true
	e.DoWork()
	if port.light != LightOn || e.State() != StateBlinkOn {
		t.Fatalf("press: expected BLINK_ON/ON, got %s/%s", e.State(), port.light)
	}

	for i := 0; i < 100; i++ {
		e.DoWork()
	}
	if port.light != LightOn || e.State() != StateBlinkOn {
		t.Fatalf("hold: expected BLINK_ON/ON, got %s/%s", e.State(), port.light)
	}

	timer.expired = true
	e.DoWork()
	if port.light != LightOff || e.State() != StateBlinkOff {
		t.Fatalf("first expiry: expected BLINK_OFF/OFF, got %s/%s", e.State(), port.light)
	}

	timer.expired = true
	e.DoWork()
	if port.light != LightOn || e.State() != StateBlinkOn {
		t.Fatalf("second expiry: expected BLINK_ON/ON, got %s/%s", e.State(), port.light)
	}

	port.pressed = false
	e.DoWork()
	if port.light != LightOff || e.State() != StateNotPressed {
		t.Fatalf("release: expected NOT_PRESSED/OFF, got %s/%s", e.State(), port.light)
	}
}

func TestOnTransitionObserver(t *testing.T) {
	e, port, timer := newTestEngine()
	var got []Transition
	e.OnTransition(func(tr Transition) { got = append(got, tr) })

	port.pressed = true
	e.DoWork()
	timer.expired = true
	e.DoWork()
	port.pressed = false
	e.DoWork()

	want := []Transition{
		{From: StateNotPressed, To: StateBlinkOn, Light: LightOn, Commanded: true},
		{From: StateBlinkOn, To: StateBlinkOff, Light: LightOff, Commanded: true},
		{From: StateBlinkOff, To: StateReleasedButton},
		{From: StateReleasedButton, To: StateNotPressed, Light: LightOff, Commanded: true},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d transitions, got %d: %+v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("transition %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}

func TestSetBlinkPeriodAppliesOnNextReset(t *testing.T) {
	e, port, timer := newTestEngine()
	port.pressed = true
	e.DoWork()

	e.SetBlinkPeriod(250 * time.Millisecond)
	if len(timer.resets) != 1 {
		t.Fatalf("changing the period must not rearm the timer, got %d resets", len(timer.resets))
	}

	timer.expired = true
	e.DoWork()
	if last := timer.resets[len(timer.resets)-1]; last != 250*time.Millisecond {
		t.Errorf("expected next reset with 250ms, got %v", last)
	}
}

func TestUnknownStateRecovers(t *testing.T) {
	e, port, _ := newTestEngine()
	e.state = State("BOGUS")

	if n := e.DoWork(); n != 1 {
		t.Errorf("expected 1 recovery transition, got %d", n)
	}
	if e.State() != StateNotPressed {
		t.Errorf("expected NOT_PRESSED, got %s", e.State())
	}
	if port.light != LightOff {
		t.Errorf("expected light OFF, got %s", port.light)
	}
}
