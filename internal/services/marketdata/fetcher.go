package marketdata

import (
	"context"
	"fmt"
	"time"

	"BarSnap/internal/domain/models"
	drepo "BarSnap/internal/domain/repository"
	domsvc "BarSnap/internal/domain/service"
	applogger "BarSnap/pkg/logger"
)

const (
	// overfetch covers a still-open newest bar plus one spare.
	overfetch = 2

	defaultPageLimit = 1000
	defaultMaxPages  = 50
)

// Fetcher turns raw exchange reads into closed candles and complete-as-possible
// trade windows.
type Fetcher struct {
	md        drepo.MarketData
	pageLimit int
	maxPages  int
	now       func() time.Time
	metrics   drepo.Metrics
	log       *applogger.Logger
}

var (
	_ domsvc.CandleSource = (*Fetcher)(nil)
	_ domsvc.TradeSource  = (*Fetcher)(nil)
)

type Option func(*Fetcher)

// WithClock overrides the wall clock used for the closed-bar filter.
func WithClock(now func() time.Time) Option {
	return func(f *Fetcher) { f.now = now }
}

// WithPaging sets the trade page size and the page ceiling per window.
func WithPaging(pageLimit, maxPages int) Option {
	return func(f *Fetcher) {
		if pageLimit > 0 {
			f.pageLimit = pageLimit
		}
		if maxPages > 0 {
			f.maxPages = maxPages
		}
	}
}

func NewFetcher(md drepo.MarketData, m drepo.Metrics, log *applogger.Logger, opts ...Option) *Fetcher {
	f := &Fetcher{
		md:        md,
		pageLimit: defaultPageLimit,
		maxPages:  defaultMaxPages,
		now:       time.Now,
		metrics:   m,
		log:       log,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// ClosedCandles returns the last count bars whose close instant is not in the
// future, oldest first.
func (f *Fetcher) ClosedCandles(ctx context.Context, symbol string, interval drepo.Interval, count int) ([]models.Candle, error) {
	if count <= 0 {
		return nil, fmt.Errorf("%w: non-positive count %d", models.ErrInsufficientData, count)
	}
	raw, err := f.md.Klines(ctx, symbol, interval, count+overfetch)
	if err != nil {
		return nil, err
	}

	nowMs := f.now().UnixMilli()
	closed := make([]models.Candle, 0, len(raw))
	for i, b := range raw {
		closeTime := closeTimeAt(raw, i, interval.Millis())
		if closeTime > nowMs {
			continue
		}
		closed = append(closed, models.Candle{
			OpenTime:  b.OpenTime,
			CloseTime: closeTime,
			Open:      b.Open,
			High:      b.High,
			Low:       b.Low,
			Close:     b.Close,
			Volume:    b.Volume,
		})
	}
	if len(closed) == 0 {
		return nil, fmt.Errorf("%w: %s %s", models.ErrInsufficientData, symbol, interval)
	}
	if len(closed) > count {
		closed = closed[len(closed)-count:]
	}
	return closed, nil
}

// closeTimeAt uses the next bar's open when present, else extrapolates the
// previous spacing, else falls back to the nominal interval.
func closeTimeAt(raw []models.RawBar, i int, step int64) int64 {
	switch {
	case i+1 < len(raw):
		return raw[i+1].OpenTime
	case i > 0:
		return raw[i].OpenTime + (raw[i].OpenTime - raw[i-1].OpenTime)
	default:
		return raw[i].OpenTime + step
	}
}

// TradesInWindow pages through trades in [startMs, endMs). It never fails:
// the returned history records how many pages were read and why it stopped.
func (f *Fetcher) TradesInWindow(ctx context.Context, symbol string, startMs, endMs int64) models.TradeHistory {
	var h models.TradeHistory
	cursor := startMs
	for {
		if cursor >= endMs {
			h.StopReason = models.StopWindowComplete
			break
		}
		if h.Pages >= f.maxPages {
			h.StopReason = models.StopPageCeiling
			break
		}

		page, err := f.md.AggTrades(ctx, symbol, cursor, endMs-1, f.pageLimit)
		h.Pages++
		if err != nil {
			h.StopReason = models.StopUpstreamError
			h.Err = err
			break
		}
		if len(page) == 0 {
			h.StopReason = models.StopEmptyPage
			break
		}

		last := cursor
		for _, t := range page {
			if t.Timestamp >= startMs && t.Timestamp < endMs {
				h.Trades = append(h.Trades, t)
			}
			if t.Timestamp > last {
				last = t.Timestamp
			}
		}
		if len(page) < f.pageLimit {
			h.StopReason = models.StopShortPage
			break
		}
		cursor = last + 1
	}

	f.metrics.RecordTradePages(h.Pages)
	if h.Truncated() {
		f.log.Debug("trade window truncated",
			applogger.String("symbol", symbol),
			applogger.Int64("start", startMs),
			applogger.Int64("end", endMs),
			applogger.Int("pages", h.Pages),
			applogger.String("reason", h.StopReason),
		)
	}
	return h
}
