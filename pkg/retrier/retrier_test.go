package retrier

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func TestPolicy_Do(t *testing.T) {
	t.Run("first attempt succeeds", func(t *testing.T) {
		calls := 0
		err := New().Do(context.Background(), func(ctx context.Context) error {
			calls++
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("recovers within budget", func(t *testing.T) {
		p := New(WithMaxRetries(2), WithInitialInterval(time.Millisecond), WithJitter(0))
		calls := 0
		err := p.Do(context.Background(), func(ctx context.Context) error {
			calls++
			if calls < 3 {
				return errBoom
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("returns last error when exhausted", func(t *testing.T) {
		p := New(WithMaxRetries(2), WithInitialInterval(time.Millisecond))
		calls := 0
		err := p.Do(context.Background(), func(ctx context.Context) error {
			calls++
			return errBoom
		})
		assert.ErrorIs(t, err, errBoom)
		assert.Equal(t, 3, calls)
		assert.Equal(t, 3, p.Attempts())
	})

	t.Run("zero retries makes one call", func(t *testing.T) {
		p := New(WithMaxRetries(0))
		calls := 0
		_ = p.Do(context.Background(), func(ctx context.Context) error {
			calls++
			return errBoom
		})
		assert.Equal(t, 1, calls)
	})

	t.Run("non retryable error stops", func(t *testing.T) {
		stop := errors.New("stop")
		p := New(WithMaxRetries(5), WithInitialInterval(time.Millisecond),
			WithRetryIf(func(err error) bool { return !errors.Is(err, stop) }))
		calls := 0
		err := p.Do(context.Background(), func(ctx context.Context) error {
			calls++
			return stop
		})
		assert.ErrorIs(t, err, stop)
		assert.Equal(t, 1, calls)
	})

	t.Run("cancelled caller stops after the failed attempt", func(t *testing.T) {
		p := New(WithMaxRetries(5), WithInitialInterval(time.Millisecond))
		ctx, cancel := context.WithCancel(context.Background())
		calls := 0
		err := p.Do(ctx, func(ctx context.Context) error {
			calls++
			cancel()
			return errBoom
		})
		assert.ErrorIs(t, err, errBoom)
		assert.Equal(t, 1, calls)
	})

	t.Run("cancellation interrupts backoff", func(t *testing.T) {
		p := New(WithMaxRetries(5), WithInitialInterval(time.Second), WithJitter(0))
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		calls := 0
		err := p.Do(ctx, func(ctx context.Context) error {
			calls++
			return errBoom
		})
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Equal(t, 1, calls)
	})

	t.Run("attempt deadline is retried while caller is live", func(t *testing.T) {
		p := New(WithMaxRetries(2), WithInitialInterval(time.Millisecond), WithJitter(0))
		calls := 0
		err := p.Do(context.Background(), func(ctx context.Context) error {
			calls++
			if calls == 1 {
				attemptCtx, cancel := context.WithTimeout(ctx, time.Millisecond)
				defer cancel()
				<-attemptCtx.Done()
				return attemptCtx.Err()
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 2, calls)
	})

	t.Run("retry predicate may still refuse deadlines", func(t *testing.T) {
		p := New(WithMaxRetries(3), WithInitialInterval(time.Millisecond),
			WithRetryIf(func(err error) bool { return !errors.Is(err, context.DeadlineExceeded) }))
		calls := 0
		err := p.Do(context.Background(), func(ctx context.Context) error {
			calls++
			return context.DeadlineExceeded
		})
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Equal(t, 1, calls)
	})

	t.Run("on retry hook sees attempts", func(t *testing.T) {
		var seen []int
		p := New(WithMaxRetries(2), WithInitialInterval(time.Millisecond),
			WithOnRetry(func(attempt int, err error) { seen = append(seen, attempt) }))
		_ = p.Do(context.Background(), func(ctx context.Context) error { return errBoom })
		assert.Equal(t, []int{1, 2}, seen)
	})
}

func TestDoWithData(t *testing.T) {
	p := New(WithMaxRetries(1), WithInitialInterval(time.Millisecond))

	v, err := DoWithData(context.Background(), p, func(ctx context.Context) (int, error) { return 42, nil })
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	v, err = DoWithData(context.Background(), p, func(ctx context.Context) (int, error) { return 7, errBoom })
	assert.ErrorIs(t, err, errBoom)
	assert.Zero(t, v)
}

func TestPolicy_next(t *testing.T) {
	fixed := New()
	assert.Equal(t, 100*time.Millisecond, fixed.next(100*time.Millisecond))

	exp := New(WithMultiplier(2), WithMaxInterval(300*time.Millisecond))
	assert.Equal(t, 200*time.Millisecond, exp.next(100*time.Millisecond))
	assert.Equal(t, 300*time.Millisecond, exp.next(200*time.Millisecond))
}
