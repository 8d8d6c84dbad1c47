package supervisor

import (
	"math"
	"math/rand"
	"time"
)

// RetryPolicy decides how long to wait before reconnect attempt n (n >= 1 counts
// consecutive failed sessions). Policies never give up.
type RetryPolicy interface {
	Delay(attempt int) time.Duration
}

// FixedDelay waits the same interval after every failure
type FixedDelay struct {
	Interval time.Duration
}

func (p FixedDelay) Delay(int) time.Duration {
	return p.Interval
}

// ExponentialBackoff doubles the delay per consecutive failure, clamped to [Min, Max],
// then spreads it by up to JitterPct percent in either direction.
type ExponentialBackoff struct {
	Min       time.Duration
	Max       time.Duration
	JitterPct int

	// Rand returns a value in [0, 1); math/rand when nil
	Rand func() float64
}

func (p ExponentialBackoff) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	// clamp in float space, large attempts overflow time.Duration
	scaled := float64(p.Min) * math.Pow(2, float64(attempt-1))
	base := p.Max
	if scaled < float64(p.Max) {
		base = time.Duration(scaled)
	}
	if base < p.Min {
		base = p.Min
	}

	r := p.Rand
	if r == nil {
		r = rand.Float64
	}
	jitterPct := float64(p.JitterPct) / 100.0
	jitter := time.Duration(float64(base) * jitterPct * (r()*2 - 1))

	return base + jitter
}

// NewRetryPolicy builds the policy named by strategy; anything but "exponential" is fixed
func NewRetryPolicy(strategy string, interval, min, max time.Duration, jitterPct int) RetryPolicy {
	if strategy == "exponential" {
		return ExponentialBackoff{Min: min, Max: max, JitterPct: jitterPct}
	}
	return FixedDelay{Interval: interval}
}
