package ws

import (
	"math"
	"time"
)

// Backoff is the schedule of reconnection attempts after a connection
// failure.
type Backoff struct {
	// Initial is the wait before the first retry.
	Initial time.Duration
	// Max caps the wait between retries, DefaultBackoff.Max when zero.
	Max time.Duration
	// Multiplier grows the wait after each failed retry.
	Multiplier float64
	// MaxRetries is the number of retries before giving up and going to
	// Failed. Zero retries forever.
	MaxRetries int
}

// DefaultBackoff starts at a second and grows by 1.7 up to a minute, forever.
var DefaultBackoff = Backoff{
	Initial:    time.Second,
	Max:        time.Minute,
	Multiplier: 1.7,
}

// Delay is the wait before retry number attempt, counting from 1. A zero
// Initial or Max takes the default.
func (b Backoff) Delay(attempt int) (d time.Duration) {
	if b.Initial <= 0 {
		b.Initial = DefaultBackoff.Initial
	}
	if b.Max <= 0 {
		b.Max = DefaultBackoff.Max
	}
	if b.Multiplier < 1 {
		b.Multiplier = 1
	}
	d = min(b.Initial, b.Max)
	for i := 1; i < attempt && d < b.Max; i++ {
		d = time.Duration(math.Min(float64(d)*b.Multiplier, float64(b.Max)))
	}
	return
}

// Exhausted reports whether attempt is past the allowed retries.
func (b Backoff) Exhausted(attempt int) bool {
	return b.MaxRetries > 0 && attempt > b.MaxRetries
}
