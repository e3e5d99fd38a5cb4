package cache

import (
	"sync"
	"time"
)

type memoryItem[V any] struct {
	value      V
	expireAt   time.Time
	lastAccess time.Time
}

// MemoryCache is a mutex-guarded map with per-entry expiry, LRU eviction at
// capacity and idle eviction.
type MemoryCache[V any] struct {
	mu      sync.Mutex
	data    map[string]*memoryItem[V]
	maxSize int
	idleTTL time.Duration
	now     func() time.Time

	ticker    *time.Ticker
	done      chan struct{}
	closeOnce sync.Once
}

// NewMemoryCache creates an in-memory cache.
func NewMemoryCache[V any](opts ...MemoryOption) *MemoryCache[V] {
	cfg := &MemoryConfig{
		MaxSize:         1000,
		CleanupInterval: time.Minute,
		Clock:           time.Now,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	mc := &MemoryCache[V]{
		data:    make(map[string]*memoryItem[V]),
		maxSize: cfg.MaxSize,
		idleTTL: cfg.IdleTTL,
		now:     cfg.Clock,
		done:    make(chan struct{}),
	}

	if cfg.CleanupInterval > 0 {
		mc.ticker = time.NewTicker(cfg.CleanupInterval)
		go mc.cleanupLoop()
	}
	return mc
}

// Get returns the value if present and unexpired.
func (mc *MemoryCache[V]) Get(key string) (V, bool) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	now := mc.now()
	item, ok := mc.data[key]
	if !ok || !now.Before(item.expireAt) {
		if ok {
			delete(mc.data, key)
		}
		var zero V
		return zero, false
	}
	item.lastAccess = now
	return item.value, true
}

// Set stores value until expireAt, evicting the least recently used entry
// when a new key would exceed capacity.
func (mc *MemoryCache[V]) Set(key string, value V, expireAt time.Time) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if _, exists := mc.data[key]; !exists && mc.maxSize > 0 && len(mc.data) >= mc.maxSize {
		mc.evictLRU()
	}

	mc.data[key] = &memoryItem[V]{
		value:      value,
		expireAt:   expireAt,
		lastAccess: mc.now(),
	}
}

// Len returns the number of stored entries, expired ones included until swept.
func (mc *MemoryCache[V]) Len() int {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return len(mc.data)
}

// Cleanup removes expired and idle entries and returns how many were dropped.
func (mc *MemoryCache[V]) Cleanup() int {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	now := mc.now()
	removed := 0
	for key, item := range mc.data {
		expired := !now.Before(item.expireAt)
		idle := mc.idleTTL > 0 && now.Sub(item.lastAccess) >= mc.idleTTL
		if expired || idle {
			delete(mc.data, key)
			removed++
		}
	}
	return removed
}

func (mc *MemoryCache[V]) evictLRU() {
	var (
		oldestKey  string
		oldestTime time.Time
		found      bool
	)
	for key, item := range mc.data {
		if !found || item.lastAccess.Before(oldestTime) {
			oldestKey, oldestTime, found = key, item.lastAccess, true
		}
	}
	if found {
		delete(mc.data, oldestKey)
	}
}

func (mc *MemoryCache[V]) cleanupLoop() {
	for {
		select {
		case <-mc.done:
			return
		case <-mc.ticker.C:
			mc.Cleanup()
		}
	}
}

// Close stops the cleanup goroutine.
func (mc *MemoryCache[V]) Close() error {
	mc.closeOnce.Do(func() {
		if mc.ticker != nil {
			mc.ticker.Stop()
		}
		close(mc.done)
	})
	return nil
}
