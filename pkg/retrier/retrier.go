package retrier

import (
	"context"
	"math/rand"
	"time"
)

const (
	defaultInitialInterval = 250 * time.Millisecond
	defaultMaxInterval     = 2 * time.Second
	defaultMultiplier      = 1.0
	defaultMaxRetries      = 2
	defaultJitter          = 0.1
)

// Policy retries an operation with a bounded backoff. With the default
// multiplier of 1 the delay is fixed.
type Policy struct {
	initialInterval time.Duration
	maxInterval     time.Duration
	multiplier      float64
	maxRetries      int
	jitter          float64
	retryIf         func(error) bool
	onRetry         func(attempt int, err error)
}

type Option func(*Policy)

func WithInitialInterval(d time.Duration) Option {
	return func(p *Policy) { p.initialInterval = d }
}

func WithMaxInterval(d time.Duration) Option {
	return func(p *Policy) { p.maxInterval = d }
}

// WithMultiplier turns the fixed delay into exponential backoff.
func WithMultiplier(m float64) Option {
	return func(p *Policy) { p.multiplier = m }
}

// WithMaxRetries sets retries after the first attempt. Zero disables retrying.
func WithMaxRetries(n int) Option {
	return func(p *Policy) {
		if n < 0 {
			n = 0
		}
		p.maxRetries = n
	}
}

// WithJitter sets the jitter factor in [0, 1].
func WithJitter(j float64) Option {
	return func(p *Policy) { p.jitter = j }
}

// WithRetryIf restricts retries to errors accepted by fn.
func WithRetryIf(fn func(error) bool) Option {
	return func(p *Policy) { p.retryIf = fn }
}

// WithOnRetry registers a hook called before every retry.
func WithOnRetry(fn func(attempt int, err error)) Option {
	return func(p *Policy) { p.onRetry = fn }
}

func New(opts ...Option) *Policy {
	p := &Policy{
		initialInterval: defaultInitialInterval,
		maxInterval:     defaultMaxInterval,
		multiplier:      defaultMultiplier,
		maxRetries:      defaultMaxRetries,
		jitter:          defaultJitter,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Attempts is the total number of calls Do may make.
func (p *Policy) Attempts() int { return p.maxRetries + 1 }

// Do calls fn until it succeeds, the error is not retryable, retries run
// out or ctx is done. A deadline that fn applies to a single attempt is
// retried like any other failure as long as ctx itself is still live. The
// last error of fn is returned.
func (p *Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	interval := p.initialInterval
	var err error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if attempt > 0 {
			if !p.retryable(err) {
				return err
			}
			if p.onRetry != nil {
				p.onRetry(attempt, err)
			}
			if werr := sleep(ctx, p.withJitter(interval)); werr != nil {
				return werr
			}
			interval = p.next(interval)
		}
		if err = fn(ctx); err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return err
		}
	}
	return err
}

// DoWithData is Do for functions that return a value.
func DoWithData[T any](ctx context.Context, p *Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := p.Do(ctx, func(ctx context.Context) error {
		v, e := fn(ctx)
		if e != nil {
			return e
		}
		out = v
		return nil
	})
	return out, err
}

func (p *Policy) retryable(err error) bool {
	if p.retryIf != nil {
		return p.retryIf(err)
	}
	return true
}

func (p *Policy) withJitter(d time.Duration) time.Duration {
	if p.jitter <= 0 {
		return d
	}
	delta := (rand.Float64()*2 - 1) * p.jitter * float64(d)
	out := time.Duration(float64(d) + delta)
	if out < 0 {
		return 0
	}
	return out
}

func (p *Policy) next(d time.Duration) time.Duration {
	if p.multiplier <= 1 {
		return d
	}
	d = time.Duration(float64(d) * p.multiplier)
	if p.maxInterval > 0 && d > p.maxInterval {
		d = p.maxInterval
	}
	return d
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
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
