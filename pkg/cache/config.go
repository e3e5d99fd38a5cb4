package cache

import "time"

// MemoryOption configures MemoryCache.
type MemoryOption func(*MemoryConfig)

// MemoryConfig holds in-memory cache configuration.
type MemoryConfig struct {
	MaxSize         int
	IdleTTL         time.Duration
	CleanupInterval time.Duration
	Clock           func() time.Time
}

// WithMaxSize bounds the number of entries; the least recently used is evicted.
func WithMaxSize(size int) MemoryOption {
	return func(c *MemoryConfig) {
		c.MaxSize = size
	}
}

// WithIdleTTL drops entries not read for d, even if unexpired.
func WithIdleTTL(d time.Duration) MemoryOption {
	return func(c *MemoryConfig) {
		c.IdleTTL = d
	}
}

// WithCleanupInterval sets the background sweep period. Zero disables it.
func WithCleanupInterval(d time.Duration) MemoryOption {
	return func(c *MemoryConfig) {
		c.CleanupInterval = d
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) MemoryOption {
	return func(c *MemoryConfig) {
		c.Clock = now
	}
}
