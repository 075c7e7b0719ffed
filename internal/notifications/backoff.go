package notifications

import (
	"math"
	"math/rand"
	"time"
)

type Backoff struct {
	Base   time.Duration
	Max    time.Duration
	Jitter time.Duration // upper bound of the random extra delay; 0 disables it
}

func DefaultBackoff() Backoff {
	return Backoff{Base: 200 * time.Millisecond, Max: 5 * time.Second, Jitter: 100 * time.Millisecond}
}

// Delay returns the wait before retry number attempt.
// attempt=0 => Base, attempt=1 => 2*Base, attempt=2 => 4*Base, capped at Max.
func (b Backoff) Delay(attempt int) time.Duration {
	multiple := math.Pow(2, float64(attempt))
	delay := time.Duration(float64(b.Base) * multiple)

	if b.Max > 0 && delay > b.Max {
		delay = b.Max
	}

	if b.Jitter > 0 {
		delay += time.Duration(rand.Int63n(int64(b.Jitter)))
	}
	return delay
}
