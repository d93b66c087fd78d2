package worker

import "time"

// RetryPolicy is the backoff a Poller applies after failed rounds.
// Zero fields fall back to one second and a factor of two.
type RetryPolicy struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// BackoffFrom doubles the polling interval per failed round, up to 8x.
func BackoffFrom(interval time.Duration) RetryPolicy {
	return RetryPolicy{
		MaxRetries:    4,
		InitialDelay:  interval,
		MaxDelay:      8 * interval,
		BackoffFactor: 2,
	}
}

// NextDelay is the pause after the n-th consecutive failure. Past
// MaxRetries the delay stops growing.
func (r RetryPolicy) NextDelay(failures int) time.Duration {
	base, factor := r.InitialDelay, r.BackoffFactor
	if base <= 0 {
		base = time.Second
	}
	if factor <= 0 {
		factor = 2
	}
	steps := failures - 1
	if r.MaxRetries > 0 && steps > r.MaxRetries-1 {
		steps = r.MaxRetries - 1
	}

	delay := float64(base)
	for i := 0; i < steps; i++ {
		delay *= factor
		if r.MaxDelay > 0 && delay >= float64(r.MaxDelay) {
			return r.MaxDelay
		}
	}
	if r.MaxDelay > 0 && time.Duration(delay) > r.MaxDelay {
		return r.MaxDelay
	}
	return time.Duration(delay)
}
