// Package retry re-runs store and cache calls that failed transiently,
// backing off exponentially between attempts.
package retry

import (
	"context"
	"math/rand/v2"
	"time"
)

// Policy describes how often and how patiently to retry.
type Policy struct {
	Attempts int           // total tries, including the first
	Base     time.Duration // wait before the second try
	Cap      time.Duration // upper bound on any single wait
	Factor   float64       // growth per attempt
	Jitter   float64       // fraction of each wait randomized, 0..1

	// RetryIf selects the errors worth another attempt. Nil retries nothing.
	RetryIf func(error) bool
	// OnRetry runs before each wait.
	OnRetry func(attempt int, err error, wait time.Duration)
}

// Retrier applies a Policy.
type Retrier struct {
	p     Policy
	sleep func(context.Context, time.Duration) error
}

// New normalizes p and returns a Retrier for it.
func New(p Policy) *Retrier {
	if p.Attempts < 1 {
		p.Attempts = 1
	}
	if p.Factor < 1 {
		p.Factor = 2
	}
	if p.Cap < p.Base {
		p.Cap = p.Base
	}
	if p.Jitter < 0 || p.Jitter > 1 {
		p.Jitter = 0
	}
	return &Retrier{p: p, sleep: sleepCtx}
}

// Do calls fn until it succeeds, returns an error RetryIf rejects, or the
// attempts run out. The last error from fn is returned as is. A context that
// ends while waiting stops the loop with fn's last error.
func (r *Retrier) Do(ctx context.Context, fn func(context.Context) error) error {
	var err error
	for attempt := 1; ; attempt++ {
		if cerr := ctx.Err(); cerr != nil {
			if err != nil {
				return err
			}
			return cerr
		}
		if err = fn(ctx); err == nil {
			return nil
		}
		if attempt >= r.p.Attempts || r.p.RetryIf == nil || !r.p.RetryIf(err) {
			return err
		}
		wait := r.Backoff(attempt)
		if r.p.OnRetry != nil {
			r.p.OnRetry(attempt, err, wait)
		}
		if r.sleep(ctx, wait) != nil {
			return err
		}
	}
}

// Backoff is the wait after the given failed attempt (1-based).
func (r *Retrier) Backoff(attempt int) time.Duration {
	wait := float64(r.p.Base)
	for i := 1; i < attempt && wait < float64(r.p.Cap); i++ {
		wait *= r.p.Factor
	}
	if wait > float64(r.p.Cap) {
		wait = float64(r.p.Cap)
	}
	if r.p.Jitter > 0 {
		wait += wait * r.p.Jitter * (2*rand.Float64() - 1)
	}
	return time.Duration(max(wait, 0))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// StoreRetrier retries match record store calls that retryIf accepts.
// Zero arguments fall back to 3 attempts, 50ms base and 1s cap.
func StoreRetrier(attempts int, base, limit time.Duration, retryIf func(error) bool, onRetry func(attempt int, err error, wait time.Duration)) *Retrier {
	if attempts <= 0 {
		attempts = 3
	}
	if base <= 0 {
		base = 50 * time.Millisecond
	}
	if limit <= 0 {
		limit = time.Second
	}
	return New(Policy{
		Attempts: attempts,
		Base:     base,
		Cap:      limit,
		Factor:   2,
		Jitter:   0.05,
		RetryIf:  retryIf,
		OnRetry:  onRetry,
	})
}

// CacheRetrier allows one quick retry; a slow cache is worse than a miss.
func CacheRetrier(retryIf func(error) bool) *Retrier {
	return New(Policy{Attempts: 2, Base: 20 * time.Millisecond, Cap: 100 * time.Millisecond, RetryIf: retryIf})
}
