package utils

import (
	"fmt"
	"time"

	"github.com/crokau/szcraper/proxy"
)

// Retrier wraps a unit of work with bounded retries, backoff, and proxy
// rotation. An operation runs Retries+1 times in total. Before every attempt
// after the first, a fresh proxy is drawn uniformly at random from the pool
// (empty string when the pool is empty, meaning the caller keeps its default)
// and the retrier waits base + attempt*step + jitter.
//
// The attempt function owns any resource it acquires (browser session, page
// handle) and must release it on every path; the retrier only sequences
// attempts. Only the last failure is surfaced — earlier ones are logged.
type Retrier struct {
	Retries int
	Pool    *proxy.Pool
	Logger  *Logger

	// sleep is overridable in tests.
	sleep func(time.Duration)
}

const (
	backoffBase   = 1 * time.Second
	backoffStep   = 500 * time.Millisecond
	backoffJitter = 500 * time.Millisecond
)

// NewRetrier creates a Retrier. pool may be nil.
func NewRetrier(retries int, pool *proxy.Pool, logger *Logger) *Retrier {
	return &Retrier{
		Retries: retries,
		Pool:    pool,
		Logger:  logger,
		sleep:   time.Sleep,
	}
}

// Do runs fn until it succeeds or attempts are exhausted. fn receives the
// proxy endpoint chosen for the attempt ("" on the first attempt and whenever
// no pool is configured).
func (r *Retrier) Do(op string, fn func(proxyAddr string) error) error {
	attempts := r.Retries + 1
	sleep := r.sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		proxyAddr := ""
		if attempt > 1 {
			proxyAddr = r.Pool.Random()
			wait := backoffBase + time.Duration(attempt-1)*backoffStep + Jitter(backoffJitter)
			if r.Logger != nil {
				r.Logger.Warn("[retry] %s failed (attempt %d/%d): %v — retrying in %v",
					op, attempt-1, attempts, lastErr, wait.Round(time.Millisecond))
			}
			sleep(wait)
		}

		lastErr = fn(proxyAddr)
		if lastErr == nil {
			return nil
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", op, attempts, lastErr)
}
