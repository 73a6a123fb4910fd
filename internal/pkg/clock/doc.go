// Package clock keeps wall time behind an interface so the session, OTP
// countdown and debounce logic can run against Fake in tests, where time only
// moves when the test says so.
package clock
