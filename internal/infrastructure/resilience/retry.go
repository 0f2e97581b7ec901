package resilience

import (
	"context"
	"math/rand"
	"time"
)

// Backoff controls Retry. Delays grow as Base*2^attempt, capped at Max,
// plus up to Base of jitter.
type Backoff struct {
	Retries int
	Base    time.Duration
	Max     time.Duration
}

// DefaultBackoff suits short local contention such as a busy SQLite file.
var DefaultBackoff = Backoff{
	Retries: 3,
	Base:    50 * time.Millisecond,
	Max:     500 * time.Millisecond,
}

// Retry calls fn until it succeeds, returns an error retryable rejects, the
// retries run out, or ctx ends. It returns fn's last error, or ctx's error
// if ctx ended while waiting.
func Retry(ctx context.Context, cfg Backoff, retryable func(error) bool, fn func() error) error {
	var err error
	for attempt := 0; ; attempt++ {
		if err = fn(); err == nil || !retryable(err) || attempt >= cfg.Retries {
			return err
		}

		timer := time.NewTimer(cfg.delay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (cfg Backoff) delay(attempt int) time.Duration {
	d := cfg.Base << uint(attempt)
	if cfg.Max > 0 && d > cfg.Max {
		d = cfg.Max
	}
	if cfg.Base > 0 {
		d += time.Duration(rand.Int63n(int64(cfg.Base)))
	}
	return d
}
