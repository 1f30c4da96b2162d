// Package retry runs idempotent operations with capped exponential backoff
// on top of sethvargo/go-retry.
package retry

import (
	"context"
	"errors"
	"time"

	goretry "github.com/sethvargo/go-retry"
)

type Operation = func() error

type Config struct {
	// MaxRetries counts attempts after the first one.
	MaxRetries    int
	BackoffFactor float64
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	// Jitter shifts every delay by a random amount in [-Jitter, Jitter).
	Jitter time.Duration
}

func NewDefaultConfig() *Config {
	return &Config{
		MaxRetries:    5,
		BackoffFactor: 2.15,
		InitialDelay:  300 * time.Millisecond,
		MaxDelay:      20 * time.Second,
		Jitter:        50 * time.Millisecond,
	}
}

// NewReadConfig is tuned for idempotent reads on the query path:
// few attempts and short delays so a request never stalls on backoff.
func NewReadConfig(maxRetries int) *Config {
	return &Config{
		MaxRetries:    maxRetries,
		BackoffFactor: 2,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      time.Second,
		Jitter:        25 * time.Millisecond,
	}
}

type permanentError struct {
	err error
}

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent marks err as not worth retrying. Do returns the wrapped error as is.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

type Retrier struct {
	config *Config
}

func NewRetrier(config *Config) *Retrier {
	return &Retrier{config: config}
}

func NewDefaultRetrier() *Retrier {
	return NewRetrier(NewDefaultConfig())
}

// backoff builds a fresh schedule; go-retry backoffs are stateful.
func (r *Retrier) backoff() goretry.Backoff {
	cfg := r.config
	delay := cfg.InitialDelay
	var b goretry.Backoff = goretry.BackoffFunc(func() (time.Duration, bool) {
		cur := delay
		delay = time.Duration(float64(delay) * cfg.BackoffFactor)
		return cur, false
	})
	if cfg.MaxDelay > 0 {
		b = goretry.WithCappedDuration(cfg.MaxDelay, b)
	}
	if cfg.Jitter > 0 {
		b = goretry.WithJitter(cfg.Jitter, b)
	}
	return goretry.WithMaxRetries(uint64(max(cfg.MaxRetries, 0)), b)
}

func (r *Retrier) Do(ctx context.Context, op Operation) error {
	return goretry.Do(ctx, r.backoff(), func(context.Context) error {
		err := op()
		if err == nil {
			return nil
		}
		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		return goretry.RetryableError(err)
	})
}

// DoValue is Do for operations that produce a value.
func DoValue[T any](ctx context.Context, r *Retrier, op func() (T, error)) (T, error) {
	var out T
	err := r.Do(ctx, func() error {
		v, err := op()
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}
