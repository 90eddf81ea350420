package market

import "time"

// retryPolicy controls bounded retry against one upstream source. Delays grow
// exponentially from BaseDelay: attempt 1 waits BaseDelay, attempt 2 twice
// that, and so on.
type retryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

func defaultRetryPolicy() retryPolicy {
	return retryPolicy{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
	}
}

// Delay returns how long to wait after the given failed attempt (1-based).
// Returns zero for the last attempt since no retry follows it.
func (p retryPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 || attempt >= p.MaxAttempts {
		return 0
	}
	d := p.BaseDelay
	for i := 1; i < attempt; i++ {
		d *= 2
	}
	return d
}
