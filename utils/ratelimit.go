package utils

import "time"

// RateLimiter enforces a minimum interval between consecutive calls
// against one external API. Failed requests consume a slot just like
// successful ones, so retries can never breach the upstream quota.
//
// The limiter is owned by a single pipeline run and touched serially;
// it is not safe for concurrent use.
type RateLimiter struct {
	interval time.Duration
	last     time.Time

	now   func() time.Time
	sleep func(time.Duration)
}

func NewRateLimiter(interval time.Duration) *RateLimiter {
	return &RateLimiter{
		interval: interval,
		now:      time.Now,
		sleep:    time.Sleep,
	}
}

// NewRateLimiterWithClock injects the clock, for deterministic tests.
func NewRateLimiterWithClock(interval time.Duration, now func() time.Time, sleep func(time.Duration)) *RateLimiter {
	return &RateLimiter{
		interval: interval,
		now:      now,
		sleep:    sleep,
	}
}

// Acquire blocks until at least the configured interval has elapsed
// since the previous Acquire returned. The first call never blocks.
func (rl *RateLimiter) Acquire() {
	if !rl.last.IsZero() {
		if wait := rl.interval - rl.now().Sub(rl.last); wait > 0 {
			rl.sleep(wait)
		}
	}
	rl.last = rl.now()
}
