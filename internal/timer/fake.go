package timer

import "time"

// Fake is a test double whose expiry is set by hand.
type Fake struct {
	// Resets records the duration passed to every Reset call.
	Resets []time.Duration

	expired bool
}

// NewFake creates a Fake that is not expired.
func NewFake() *Fake {
	return &Fake{}
}

// Expire marks the timer expired until the next Reset.
func (f *Fake) Expire() {
	f.expired = true
}

// Reset clears expiry and records d.
func (f *Fake) Reset(d time.Duration) {
	f.expired = false
	f.Resets = append(f.Resets, d)
}

// Expired reports whether Expire was called since the last Reset.
func (f *Fake) Expired() bool {
	return f.expired
}
