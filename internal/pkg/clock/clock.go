package clock

import "time"

// Clocker abstracts time so callers can replace real time in tests.
type Clocker interface {
	Now() time.Time
}

// Timer is a scheduled callback that can be cancelled before it fires.
type Timer interface {
	// Stop cancels the timer. It reports false when the timer already fired or was stopped.
	Stop() bool
}

// Scheduler runs callbacks after a delay on the clock it belongs to.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// Clock is both a time source and a callback scheduler.
type Clock interface {
	Clocker
	Scheduler
}

// TimeClocker is the production clock implementation backed by time.Now.
type TimeClocker struct{}

// New returns a TimeClocker that reads the current system time.
func New() *TimeClocker {
	return &TimeClocker{}
}

// Now returns the current system time.
func (*TimeClocker) Now() time.Time {
	return time.Now()
}

// AfterFunc schedules f on its own goroutine once d has elapsed.
func (*TimeClocker) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
