package analytics

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"BarSnap/internal/domain/models"
	drepo "BarSnap/internal/domain/repository"
	domsvc "BarSnap/internal/domain/service"
	"BarSnap/internal/services/features"
	applogger "BarSnap/pkg/logger"
)

var hundred = decimal.NewFromInt(100)

type FlowConfig struct {
	CoverageTolerance time.Duration
	DeltaHistory      int
	Workers           int
}

// FlowAnalyzer reconstructs aggressor-side volume from paginated trades.
type FlowAnalyzer struct {
	trades  domsvc.TradeSource
	cfg     FlowConfig
	metrics drepo.Metrics
	log     *applogger.Logger
}

var _ domsvc.FlowAnalyzer = (*FlowAnalyzer)(nil)

func NewFlowAnalyzer(trades domsvc.TradeSource, cfg FlowConfig, m drepo.Metrics, log *applogger.Logger) *FlowAnalyzer {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &FlowAnalyzer{trades: trades, cfg: cfg, metrics: m, log: log}
}

// Statistics computes flow over [startMs, endMs). It never fails.
func (a *FlowAnalyzer) Statistics(ctx context.Context, symbol string, startMs, endMs int64) models.FlowStats {
	h := a.trades.TradesInWindow(ctx, symbol, startMs, endMs)
	return SummarizeFlow(h, startMs, endMs, a.cfg.CoverageTolerance)
}

// SummarizeFlow classifies trades by aggressor side and derives coverage.
func SummarizeFlow(h models.TradeHistory, startMs, endMs int64, tolerance time.Duration) models.FlowStats {
	stats := models.FlowStats{
		OpenTime:   startMs,
		CloseTime:  endMs,
		Coverage:   models.CoverageUnknown,
		TradeCount: len(h.Trades),
		Pages:      h.Pages,
		Truncated:  h.Truncated(),
		Provenance: models.OK(),
	}
	if h.Truncated() {
		stats.Provenance = models.Degraded(h.StopReason)
	}
	if len(h.Trades) == 0 {
		return stats
	}

	buy, sell := decimal.Zero, decimal.Zero
	first, last := h.Trades[0].Timestamp, h.Trades[0].Timestamp
	for _, t := range h.Trades {
		if t.AggressorIsSeller {
			sell = sell.Add(t.Quantity)
		} else {
			buy = buy.Add(t.Quantity)
		}
		if t.Timestamp < first {
			first = t.Timestamp
		}
		if t.Timestamp > last {
			last = t.Timestamp
		}
	}

	stats.BuyVolume = buy.InexactFloat64()
	stats.SellVolume = sell.InexactFloat64()
	stats.Delta = buy.Sub(sell).InexactFloat64()
	if total := buy.Add(sell); total.IsPositive() {
		stats.PctAggressiveBuy = buy.Div(total).Mul(hundred).InexactFloat64()
	}

	tol := tolerance.Milliseconds()
	if first <= startMs+tol && last >= endMs-tol {
		stats.Coverage = models.CoverageFull
	} else {
		stats.Coverage = models.CoveragePartial
	}
	return stats
}

// RecentDeltaHistory returns the deltas of up to k candles preceding the
// newest one, oldest first. Windows lost to an upstream failure are skipped
// so they do not pose as genuine zero deltas.
func (a *FlowAnalyzer) RecentDeltaHistory(ctx context.Context, symbol string, candles []models.Candle, k int) []float64 {
	if len(candles) < 2 || k <= 0 {
		return nil
	}
	prior := candles[:len(candles)-1]
	if len(prior) > k {
		prior = prior[len(prior)-k:]
	}

	results := make([]models.FlowStats, len(prior))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.Workers)
	for i, c := range prior {
		g.Go(func() error {
			results[i] = a.Statistics(gctx, symbol, c.OpenTime, c.CloseTime)
			return nil
		})
	}
	_ = g.Wait()

	out := make([]float64, 0, len(results))
	for _, s := range results {
		if lostWindow(s) {
			continue
		}
		out = append(out, s.Delta)
	}
	return out
}

// LastBar computes flow for the newest candle together with its delta
// z-score against the preceding candles.
func (a *FlowAnalyzer) LastBar(ctx context.Context, symbol string, candles []models.Candle) models.FlowStats {
	if len(candles) == 0 {
		return models.FlowStats{Coverage: models.CoverageUnknown, Provenance: models.Degraded("no_candles")}
	}
	last := candles[len(candles)-1]

	var (
		stats   models.FlowStats
		history []float64
		wg      sync.WaitGroup
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		stats = a.Statistics(ctx, symbol, last.OpenTime, last.CloseTime)
	}()
	go func() {
		defer wg.Done()
		history = a.RecentDeltaHistory(ctx, symbol, candles, a.cfg.DeltaHistory)
	}()
	wg.Wait()

	stats.DeltaHistorySize = len(history)
	if !lostWindow(stats) {
		stats.DeltaZScore = features.ZScore(stats.Delta, history)
	}
	if stats.IsDegraded() {
		a.metrics.RecordDegraded("flow", stats.Reason)
		a.log.Warn("flow degraded",
			applogger.String("symbol", symbol),
			applogger.String("reason", stats.Reason),
			applogger.Int("trades", stats.TradeCount),
			applogger.Int("pages", stats.Pages),
		)
	}
	return stats
}

// lostWindow is true when nothing could be read for the window at all.
func lostWindow(s models.FlowStats) bool {
	return s.IsDegraded() && s.TradeCount == 0
}
