package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiter_AllowBurstPerKey(t *testing.T) {
	l := New(0.001, 2)
	assert.True(t, l.Allow("klines"))
	assert.True(t, l.Allow("klines"))
	assert.False(t, l.Allow("klines"))
	// buckets are independent
	assert.True(t, l.Allow("depth"))
}

func TestLimiter_Unlimited(t *testing.T) {
	l := New(0, 1)
	for i := 0; i < 100; i++ {
		require.True(t, l.Allow("aggTrades"))
	}
}

func TestLimiter_WaitHonoursContext(t *testing.T) {
	l := New(0.001, 1)
	require.NoError(t, l.Wait(context.Background(), "k"))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.Error(t, l.Wait(ctx, "k"))
}
