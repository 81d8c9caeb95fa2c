package utils

import (
	"math/rand"
	"time"
)

// RandomDuration returns a uniform duration in [min, max).
func RandomDuration(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int63n(int64(max-min)))
}

// RandomDelay sleeps for a random duration between min and max. Fixed delays
// are a detectable pattern; randomized ones look like a person browsing.
func RandomDelay(min, max time.Duration) {
	time.Sleep(RandomDuration(min, max))
}

// Jitter returns a uniform duration in [0, max).
func Jitter(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(max)))
}
