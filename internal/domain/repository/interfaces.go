package repository

import (
	"context"
	"net/url"
	"time"

	"BarSnap/internal/domain/models"
)

// MarketData is the exchange read surface the snapshot engine depends on.
// Implementations wrap transport failures in models.ErrUpstreamUnavailable.
type MarketData interface {
	// Klines returns the most recent bars in ascending open-time order.
	Klines(ctx context.Context, symbol string, interval Interval, limit int) ([]models.RawBar, error)
	// AggTrades returns trades with timestamps in [startMs, endMs], ascending.
	AggTrades(ctx context.Context, symbol string, startMs, endMs int64, limit int) ([]models.TradePrint, error)
	Depth(ctx context.Context, symbol string, limit int) (*models.DepthBook, error)
}

// RawUpstream forwards a request verbatim and returns the upstream status and body.
type RawUpstream interface {
	Get(ctx context.Context, path string, query url.Values) (status int, body []byte, err error)
}

type Metrics interface {
	RecordSnapshot(result string, d time.Duration)
	RecordUpstream(op, outcome string, d time.Duration)
	RecordTradePages(pages int)
	RecordDegraded(stage, reason string)
	RecordCache(result string)
	SetCacheEntries(n int)
}
