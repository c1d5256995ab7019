package queue

import "time"

// BackoffPolicy computes the retry delay for an entry. The delay doubles per failed
// attempt starting from Base and never exceeds Cap.
type BackoffPolicy struct {
	Base time.Duration
	Cap  time.Duration
}

// Delay returns the delay before the next attempt given the number of failed attempts
// so far. Delay(0) is Base; the sequence is monotonically non-decreasing.
func (policy BackoffPolicy) Delay(failedAttempts uint) time.Duration {
	delay := policy.Base
	for i := uint(0); i < failedAttempts; i++ {
		delay *= 2
		if delay >= policy.Cap || delay <= 0 {
			return policy.Cap
		}
	}
	if delay > policy.Cap {
		return policy.Cap
	}
	return delay
}
