package cache

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"BarSnap/internal/domain/models"
	drepo "BarSnap/internal/domain/repository"
	pkgcache "BarSnap/pkg/cache"
	applogger "BarSnap/pkg/logger"
	"BarSnap/pkg/util"
)

// Lookup results reported to metrics.
const (
	ResultHit    = "hit"
	ResultMiss   = "miss"
	ResultShared = "shared"
)

type Config struct {
	// Interval is the base bar duration the expiry is anchored to.
	Interval        time.Duration
	MinTTL          time.Duration
	MaxEntries      int
	IdleTTL         time.Duration
	CleanupInterval time.Duration
}

// ComputeFunc builds a fresh snapshot. It must not return a partially built
// document together with a nil error.
type ComputeFunc func(ctx context.Context) (*models.Snapshot, error)

// SnapshotCache memoizes snapshots per (symbol, n) until the bar after the
// snapshot's last candle closes. Concurrent misses on one key share a
// single computation; errors are never stored.
type SnapshotCache struct {
	store    *pkgcache.MemoryCache[*models.Snapshot]
	group    singleflight.Group
	interval time.Duration
	minTTL   time.Duration
	now      func() time.Time
	metrics  drepo.Metrics
	log      *applogger.Logger
}

type Option func(*SnapshotCache)

// WithClock overrides the clock used for expiry.
func WithClock(now func() time.Time) Option {
	return func(c *SnapshotCache) { c.now = now }
}

func New(cfg Config, m drepo.Metrics, log *applogger.Logger, opts ...Option) *SnapshotCache {
	c := &SnapshotCache{
		interval: cfg.Interval,
		minTTL:   cfg.MinTTL,
		now:      time.Now,
		metrics:  m,
		log:      log,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.store = pkgcache.NewMemoryCache[*models.Snapshot](
		pkgcache.WithMaxSize(cfg.MaxEntries),
		pkgcache.WithIdleTTL(cfg.IdleTTL),
		pkgcache.WithCleanupInterval(cfg.CleanupInterval),
		pkgcache.WithClock(func() time.Time { return c.now() }),
	)
	return c
}

// Key is the cache key of a normalized request.
func Key(symbol string, n int) string {
	return pkgcache.GenerateKeyWithParams("snapshot", symbol, n)
}

// GetOrCompute returns the cached snapshot for (symbol, n) or computes it.
// The computation is detached from ctx so that one caller giving up does not
// fail the others waiting on the same key. hit reports a cache hit.
func (c *SnapshotCache) GetOrCompute(ctx context.Context, symbol string, n int, compute ComputeFunc) (doc *models.Snapshot, hit bool, err error) {
	key := Key(symbol, n)
	defer func() { c.metrics.SetCacheEntries(c.store.Len()) }()
	if doc, ok := c.store.Get(key); ok {
		c.metrics.RecordCache(ResultHit)
		return doc, true, nil
	}

	detached := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (interface{}, error) {
		if doc, ok := c.store.Get(key); ok {
			return doc, nil
		}
		doc, err := compute(detached)
		if err != nil {
			return nil, err
		}
		c.put(key, doc)
		return doc, nil
	})

	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, false, res.Err
		}
		if res.Shared {
			c.metrics.RecordCache(ResultShared)
		} else {
			c.metrics.RecordCache(ResultMiss)
		}
		return res.Val.(*models.Snapshot), false, nil
	}
}

func (c *SnapshotCache) put(key string, doc *models.Snapshot) {
	now := c.now()
	var lastClose int64
	if last, ok := doc.LastCandle(); ok {
		lastClose = last.CloseTime
	}
	expiry := c.ExpiryFor(lastClose, now)
	doc.Meta.ExpiresAt = expiry.UnixMilli()
	c.store.Set(key, doc, expiry)
	c.log.Debug("snapshot cached",
		applogger.String("key", key),
		applogger.Int64("expires_at", doc.Meta.ExpiresAt),
	)
}

// ExpiryFor is max(now + min TTL, lastClose + interval): the close of the bar
// following the snapshot's newest candle, but never sooner than the floor.
func (c *SnapshotCache) ExpiryFor(lastCloseMs int64, now time.Time) time.Time {
	next := util.FromMillis(lastCloseMs).Add(c.interval)
	return util.MaxTime(next, now.Add(c.minTTL))
}

// Len returns the number of cached documents.
func (c *SnapshotCache) Len() int { return c.store.Len() }

func (c *SnapshotCache) Close() error { return c.store.Close() }
