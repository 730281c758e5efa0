package store

import (
	"context"
	"math"
	"time"

	"github.com/mattn/go-sqlite3"

	"strategy-pricer/internal/errors"
)

// retryPolicy bounds retries of statements that lose a lock race with another
// process sharing the cache file.
type retryPolicy struct {
	attempts int
	initial  time.Duration
	max      time.Duration
	factor   float64
}

var defaultRetry = retryPolicy{
	attempts: 4,
	initial:  50 * time.Millisecond,
	max:      time.Second,
	factor:   2,
}

// backoff returns the wait before retry number attempt (zero based).
func (p retryPolicy) backoff(attempt int) time.Duration {
	d := float64(p.initial) * math.Pow(p.factor, float64(attempt))
	if d > float64(p.max) {
		d = float64(p.max)
	}
	return time.Duration(d)
}

// do runs fn until it succeeds, fails with something other than a lock
// conflict, or runs out of attempts.
func (p retryPolicy) do(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; attempt < p.attempts; attempt++ {
		if err = fn(); err == nil || !isBusy(err) {
			return err
		}
		if attempt == p.attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.backoff(attempt)):
		}
	}
	return err
}

func isBusy(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.Code == sqlite3.ErrBusy || se.Code == sqlite3.ErrLocked
	}
	return false
}
