// Package retry describes bounded retry policies for remote calls and runs
// functions under them using github.com/sethvargo/go-retry.
package retry

import (
	"context"
	"time"

	goretry "github.com/sethvargo/go-retry"
)

// Strategy selects how the delay between attempts grows.
type Strategy int

const (
	// StrategyConstant waits Base between every attempt.
	StrategyConstant Strategy = iota
	// StrategyExponential doubles the delay after each attempt, starting at Base.
	StrategyExponential
)

// String returns the name of the strategy.
func (s Strategy) String() string {
	switch s {
	case StrategyExponential:
		return "exponential"
	default:
		return "constant"
	}
}

// Policy bounds how often and how quickly a failed call is retried.
type Policy struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries uint64
	// Base is the first delay. Zero retries immediately.
	Base time.Duration
	// Cap limits any single delay. Zero means no cap.
	Cap time.Duration
	// Strategy controls delay growth.
	Strategy Strategy
}

// NoRetry runs the call exactly once.
var NoRetry = Policy{}

// Backoff builds a fresh go-retry backoff for a single call.
func (p Policy) Backoff() goretry.Backoff {
	var b goretry.Backoff
	switch {
	case p.Base <= 0:
		b = goretry.BackoffFunc(func() (time.Duration, bool) { return 0, false })
	case p.Strategy == StrategyExponential:
		b = goretry.NewExponential(p.Base)
	default:
		b = goretry.NewConstant(p.Base)
	}

	if p.Base > 0 && p.Cap > 0 {
		b = goretry.WithCappedDuration(p.Cap, b)
	}

	return goretry.WithMaxRetries(p.MaxRetries, b)
}

// Delays lists the waits the policy would perform if every attempt failed.
func (p Policy) Delays() []time.Duration {
	b := p.Backoff()
	delays := make([]time.Duration, 0, p.MaxRetries)
	for {
		next, stop := b.Next()
		if stop {
			return delays
		}
		delays = append(delays, next)
	}
}

// Retryable marks err as transient so Do attempts the call again.
func Retryable(err error) error {
	return goretry.RetryableError(err)
}

// Do runs fn until it succeeds, returns an error not marked Retryable, the
// policy is exhausted, or ctx is done. The last underlying error is returned
// unwrapped.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	return goretry.Do(ctx, p.Backoff(), fn)
}
