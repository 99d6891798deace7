package main

import "time"

// Timer counts simulated time toward a fixed duration. A repeating timer
// wraps its overshoot into the next period; a once timer stays finished
// until Reset.
type Timer struct {
	duration     time.Duration
	elapsed      time.Duration
	repeating    bool
	finished     bool
	justFinished bool
}

func NewTimer(d time.Duration, repeating bool) *Timer {
	return &Timer{duration: d, repeating: repeating}
}

// NewFinishedTimer returns a once timer that has already elapsed
func NewFinishedTimer(d time.Duration) *Timer {
	t := NewTimer(d, false)
	t.elapsed = d
	t.finished = true
	return t
}

// Tick advances the timer by dt. JustFinished reports whether this call
// crossed the end of a period.
func (t *Timer) Tick(dt time.Duration) {
	t.justFinished = false
	if !t.repeating && t.finished {
		return
	}
	t.elapsed += dt
	if t.elapsed < t.duration {
		return
	}
	t.justFinished = true
	if t.repeating {
		if t.duration > 0 {
			t.elapsed %= t.duration
		} else {
			t.elapsed = 0
		}
		return
	}
	t.elapsed = t.duration
	t.finished = true
}

func (t *Timer) Finished() bool { return t.finished }

func (t *Timer) JustFinished() bool { return t.justFinished }

// Reset starts a fresh period
func (t *Timer) Reset() {
	t.elapsed = 0
	t.finished = false
	t.justFinished = false
}

// Remaining returns the time left in the current period
func (t *Timer) Remaining() time.Duration {
	if t.finished {
		return 0
	}
	return t.duration - t.elapsed
}

func (t *Timer) Duration() time.Duration { return t.duration }
