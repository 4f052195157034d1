package undo

import "time"

// RetryPolicy is the backoff schedule for requests whose background undo
// execution has failed. It is deliberately simple: a fixed
// delay for the first failure, a different fixed delay for every failure
// after that. No jitter, no per-attempt exponential growth.
type RetryPolicy struct {
	// FirstDelay is applied after a request's first background failure
	// since it was finalized (or since the process restarted: retry
	// history is never persisted across restarts).
	FirstDelay time.Duration
	// SubsequentDelay is applied after every failure after the first.
	SubsequentDelay time.Duration
}

// DefaultRetryPolicy is the standard schedule: 10 seconds after the first
// failure, 30 seconds after every failure thereafter.
var DefaultRetryPolicy = RetryPolicy{
	FirstDelay:      10 * time.Second,
	SubsequentDelay: 30 * time.Second,
}

// delayFor returns the backoff to apply given whether the request has
// already failed at least once before this reschedule.
func (p RetryPolicy) delayFor(alreadyFailed bool) time.Duration {
	if alreadyFailed {
		return p.SubsequentDelay
	}
	return p.FirstDelay
}
