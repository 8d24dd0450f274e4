package goGate

import "time"

// Clock supplies the current time to the engine. Tests inject a fake
// clock to move windows and sessions forward deterministically.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// ClockFunc adapts a function to [Clock].
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }
