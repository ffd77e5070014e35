package events

import (
	"testing"
	"time"

	"github.com/sweeney/button-flasher/internal/logic"
)

func receive(t *testing.T, ch <-chan TransitionEvent) TransitionEvent {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return TransitionEvent{}
	}
}

func TestBusDeliversInOrder(t *testing.T) {
	bus := New()
	defer bus.Close()

	ch := make(chan TransitionEvent, 8)
	unsub := bus.Subscribe(func(ev TransitionEvent) { ch <- ev })
	defer unsub()

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	want := []logic.Transition{
		{From: logic.StateNotPressed, To: logic.StateBlinkOn, Light: logic.LightOn, Commanded: true},
		{From: logic.StateBlinkOn, To: logic.StateReleasedButton},
		{From: logic.StateReleasedButton, To: logic.StateNotPressed, Light: logic.LightOff, Commanded: true},
	}
	for i, tr := range want {
		bus.Publish(TransitionEvent{Transition: tr, Time: base.Add(time.Duration(i) * time.Second)})
	}

	for i, tr := range want {
		got := receive(t, ch)
		if got.Transition != tr {
			t.Errorf("event %d: expected %+v, got %+v", i, tr, got.Transition)
		}
		if !got.Time.Equal(base.Add(time.Duration(i) * time.Second)) {
			t.Errorf("event %d: unexpected time %v", i, got.Time)
		}
	}
}

func TestBusFanOut(t *testing.T) {
	bus := New()
	defer bus.Close()

	a := make(chan TransitionEvent, 1)
	b := make(chan TransitionEvent, 1)
	defer bus.Subscribe(func(ev TransitionEvent) { a <- ev })()
	defer bus.Subscribe(func(ev TransitionEvent) { b <- ev })()

	bus.Publish(TransitionEvent{Transition: logic.Transition{From: logic.StateBlinkOn, To: logic.StateBlinkOff}})

	if got := receive(t, a); got.To != logic.StateBlinkOff {
		t.Errorf("subscriber a: expected BLINK_OFF, got %s", got.To)
	}
	if got := receive(t, b); got.To != logic.StateBlinkOff {
		t.Errorf("subscriber b: expected BLINK_OFF, got %s", got.To)
	}
}

func TestTransitionEventType(t *testing.T) {
	if (TransitionEvent{}).Type() != TypeTransition {
		t.Error("unexpected event type")
	}
}
