package worker

import (
	"math"
	"math/rand"
	"time"
)

type Backoff struct {
	Base   time.Duration
	Max    time.Duration
	Jitter time.Duration
}

var DefaultBackoff = Backoff{
	Base:   2 * time.Second,
	Max:    5 * time.Minute,
	Jitter: 250 * time.Millisecond,
}

// Next returns the delay before retry number attempt (0-based):
// Base * 2^attempt capped at Max, plus up to Jitter of random spread.
func (b Backoff) Next(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}

	delay := time.Duration(float64(b.Base) * math.Pow(2, float64(attempt)))

	if delay > b.Max || delay <= 0 {
		delay = b.Max
	}

	if b.Jitter > 0 {
		delay += time.Duration(rand.Int63n(int64(b.Jitter)))
	}
	return delay
}
