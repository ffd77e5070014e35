// Package timer provides the restartable one-shot countdown used by the
// flasher engine. Time is always injectable via a clock function.
package timer

import "time"

// Interval is a one-shot countdown over a clock.
// A fresh Interval that was never reset reports expired.
// Not safe for concurrent use.
type Interval struct {
	now      func() time.Time
	start    time.Time
	duration time.Duration
}

// New creates an Interval reading time from now. A nil now uses time.Now.
func New(now func() time.Time) *Interval {
	if now == nil {
		now = time.Now
	}
	return &Interval{now: now}
}

// Reset rearms the countdown for d. A negative d is clamped to zero,
// which makes the interval expired immediately.
func (i *Interval) Reset(d time.Duration) {
	if d < 0 {
		d = 0
	}
	i.start = i.now()
	i.duration = d
}

// Expired reports whether at least the configured duration has elapsed
// since the last Reset. It stays true until the next Reset.
func (i *Interval) Expired() bool {
	return i.now().Sub(i.start) >= i.duration
}

// Remaining returns the time left before expiry, or zero once expired.
func (i *Interval) Remaining() time.Duration {
	left := i.duration - i.now().Sub(i.start)
	if left < 0 {
		return 0
	}
	return left
}
