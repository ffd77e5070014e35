package logic

import "time"

// DefaultBlinkPeriod is the on/off phase length while the button is held.
const DefaultBlinkPeriod = time.Second

// maxStepsPerWork bounds DoWork to one lap of the machine, so a port that
// reports pressed and released at once cannot spin the caller.
const maxStepsPerWork = 4

// Engine is the flasher state machine. It never blocks: callers drive it
// by calling DoWork (or HandleState) from their own loop.
// Not safe for concurrent use.
type Engine struct {
	port        Port
	timer       Timer
	blinkPeriod time.Duration
	state       State
	observer    func(Transition)
}

// NewEngine creates an engine in StateNotPressed.
func NewEngine(port Port, timer Timer, blinkPeriod time.Duration) *Engine {
	return &Engine{
		port:        port,
		timer:       timer,
		blinkPeriod: blinkPeriod,
		state:       StateNotPressed,
	}
}

// OnTransition registers fn to be called after every transition.
// fn runs synchronously inside HandleState and must not call back into the engine.
func (e *Engine) OnTransition(fn func(Transition)) {
	e.observer = fn
}

// State returns the current state.
func (e *Engine) State() State {
	return e.state
}

// BlinkPeriod returns the configured blink phase length.
func (e *Engine) BlinkPeriod() time.Duration {
	return e.blinkPeriod
}

// SetBlinkPeriod changes the blink phase length. The running phase keeps
// its original deadline; the new period applies from the next timer reset.
func (e *Engine) SetBlinkPeriod(d time.Duration) {
	e.blinkPeriod = d
}

// DoWork steps the machine until no transition is available at the
// current instant. Returns the number of transitions taken.
func (e *Engine) DoWork() int {
	n := 0
	for n < maxStepsPerWork && e.HandleState() {
		n++
	}
	return n
}

// HandleState performs at most one transition and reports whether it did.
// Within the blink states a release always wins over a timer expiry.
func (e *Engine) HandleState() bool {
	switch e.state {
	case StateNotPressed:
		if !e.port.ButtonPressed() {
			return false
		}
		e.flip(StateBlinkOn, LightOn)
		return true

	case StateBlinkOn, StateBlinkOff:
		if e.port.ButtonReleased() {
			e.moveTo(StateReleasedButton, Transition{})
			return true
		}
		if !e.timer.Expired() {
			return false
		}
		if e.state == StateBlinkOn {
			e.flip(StateBlinkOff, LightOff)
		} else {
			e.flip(StateBlinkOn, LightOn)
		}
		return true

	default:
		// StateReleasedButton is a pass-through; anything unknown recovers the same way.
		e.port.SetLight(LightOff)
		e.moveTo(StateNotPressed, Transition{Light: LightOff, Commanded: true})
		return true
	}
}

// flip commands the light, rearms the blink timer and enters next.
func (e *Engine) flip(next State, light LightState) {
	e.port.SetLight(light)
	e.timer.Reset(e.blinkPeriod)
	e.moveTo(next, Transition{Light: light, Commanded: true})
}

func (e *Engine) moveTo(next State, tr Transition) {
	tr.From = e.state
	tr.To = next
	e.state = next
	if e.observer != nil {
		e.observer(tr)
	}
}
