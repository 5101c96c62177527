package game

import "time"

// Clock supplies time and timers to a match so tests can drive them.
type Clock interface {
	Now() time.Time
	// AfterFunc runs f once after d on its own goroutine.
	AfterFunc(d time.Duration, f func())
	// NewTicker returns a tick channel and its stop function.
	NewTicker(d time.Duration) (<-chan time.Time, func())
}

// SystemClock is the wall-clock implementation.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() time.Time { return time.Now() }

// AfterFunc implements Clock. Timers are never cancelled; the callback is
// expected to re-validate its target.
func (SystemClock) AfterFunc(d time.Duration, f func()) {
	time.AfterFunc(d, f)
}

// NewTicker implements Clock.
func (SystemClock) NewTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}
