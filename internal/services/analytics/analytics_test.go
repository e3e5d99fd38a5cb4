package analytics

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BarSnap/internal/domain/models"
	drepo "BarSnap/internal/domain/repository"
	applogger "BarSnap/pkg/logger"
	"BarSnap/pkg/metrics"
)

const fiveMin = int64(5 * 60 * 1000)

// tradeSource serves a fixed history per window start.
type tradeSource struct {
	mu      sync.Mutex
	windows map[int64]models.TradeHistory
	calls   int
}

func (s *tradeSource) TradesInWindow(ctx context.Context, symbol string, startMs, endMs int64) models.TradeHistory {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if h, ok := s.windows[startMs]; ok {
		return h
	}
	return models.TradeHistory{Pages: 1, StopReason: models.StopEmptyPage}
}

type candleSource struct {
	candles []models.Candle
	err     error
}

func (s candleSource) ClosedCandles(ctx context.Context, symbol string, interval drepo.Interval, count int) ([]models.Candle, error) {
	return s.candles, s.err
}

type depthSource struct {
	book *models.DepthBook
	err  error
}

func (d depthSource) Klines(context.Context, string, drepo.Interval, int) ([]models.RawBar, error) {
	return nil, errors.New("not used")
}

func (d depthSource) AggTrades(context.Context, string, int64, int64, int) ([]models.TradePrint, error) {
	return nil, errors.New("not used")
}

func (d depthSource) Depth(context.Context, string, int) (*models.DepthBook, error) {
	return d.book, d.err
}

func tp(ts int64, qty string, seller bool) models.TradePrint {
	return models.TradePrint{Timestamp: ts, Quantity: decimal.RequireFromString(qty), AggressorIsSeller: seller}
}

func fmtf(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func series(n int, start int64, closeAt func(i int) float64) []models.Candle {
	out := make([]models.Candle, n)
	for i := range out {
		c := closeAt(i)
		out[i] = models.Candle{
			OpenTime:  start + int64(i)*fiveMin,
			CloseTime: start + int64(i+1)*fiveMin,
			Open:      fmtf(c),
			High:      fmtf(c + 1),
			Low:       fmtf(c - 1),
			Close:     fmtf(c),
			Volume:    "1",
		}
	}
	return out
}

func newFlow(src *tradeSource) *FlowAnalyzer {
	return NewFlowAnalyzer(src, FlowConfig{CoverageTolerance: 30 * time.Second, DeltaHistory: 12, Workers: 4}, metrics.Nop{}, applogger.Nop())
}

func TestFlowScenario(t *testing.T) {
	candles := series(22, 1_700_000_000_000, func(i int) float64 { return 100 })
	last := candles[len(candles)-1]
	src := &tradeSource{windows: map[int64]models.TradeHistory{
		last.OpenTime: {
			Trades: []models.TradePrint{
				tp(last.OpenTime+1_000, "1.5", false),
				tp(last.OpenTime+150_000, "2.0", true),
				tp(last.CloseTime-1_000, "1.5", false),
			},
			Pages:      1,
			StopReason: models.StopShortPage,
		},
	}}

	stats := newFlow(src).LastBar(context.Background(), "BTCUSDT", candles)
	assert.Equal(t, 3.0, stats.BuyVolume)
	assert.Equal(t, 2.0, stats.SellVolume)
	assert.Equal(t, 1.0, stats.Delta)
	assert.Equal(t, 60.0, stats.PctAggressiveBuy)
	assert.Equal(t, models.CoverageFull, stats.Coverage)
	assert.Equal(t, 3, stats.TradeCount)
	assert.Equal(t, models.StatusOK, stats.Status)
	assert.Equal(t, 12, stats.DeltaHistorySize)
	// history is all zero deltas: sd floors and z-score is large but finite
	assert.Greater(t, stats.DeltaZScore, 0.0)
	assert.Equal(t, 13, src.calls)
}

func TestSummarizeFlow(t *testing.T) {
	const start, end = int64(0), fiveMin
	tol := 30 * time.Second

	t.Run("no trades is unknown coverage", func(t *testing.T) {
		s := SummarizeFlow(models.TradeHistory{StopReason: models.StopEmptyPage}, start, end, tol)
		assert.Equal(t, models.CoverageUnknown, s.Coverage)
		assert.Zero(t, s.PctAggressiveBuy)
		assert.False(t, s.IsDegraded())
	})

	t.Run("late first trade is partial", func(t *testing.T) {
		h := models.TradeHistory{Trades: []models.TradePrint{tp(start+31_000, "1", false), tp(end-1, "1", true)}}
		s := SummarizeFlow(h, start, end, tol)
		assert.Equal(t, models.CoveragePartial, s.Coverage)
		assert.Equal(t, 50.0, s.PctAggressiveBuy)
	})

	t.Run("upstream failure degrades", func(t *testing.T) {
		h := models.TradeHistory{Pages: 1, StopReason: models.StopUpstreamError, Err: models.ErrUpstreamUnavailable}
		s := SummarizeFlow(h, start, end, tol)
		assert.True(t, s.IsDegraded())
		assert.Equal(t, models.StopUpstreamError, s.Reason)
		assert.Equal(t, models.CoverageUnknown, s.Coverage)
		assert.True(t, s.Truncated)
	})
}

func TestLastBarUpstreamFailureZeroesZScore(t *testing.T) {
	candles := series(5, 0, func(i int) float64 { return 100 })
	last := candles[len(candles)-1]
	windows := map[int64]models.TradeHistory{
		last.OpenTime: {Pages: 1, StopReason: models.StopUpstreamError, Err: models.ErrUpstreamUnavailable},
	}
	for i, c := range candles[:4] {
		windows[c.OpenTime] = models.TradeHistory{Trades: []models.TradePrint{tp(c.OpenTime, strconv.Itoa(i+1), false)}, StopReason: models.StopShortPage}
	}

	stats := newFlow(&tradeSource{windows: windows}).LastBar(context.Background(), "BTCUSDT", candles)
	assert.True(t, stats.IsDegraded())
	assert.Equal(t, models.CoverageUnknown, stats.Coverage)
	assert.Zero(t, stats.Delta)
	assert.Zero(t, stats.DeltaZScore)
	assert.Equal(t, 4, stats.DeltaHistorySize)
}

func TestRecentDeltaHistory(t *testing.T) {
	candles := series(20, 0, func(i int) float64 { return 100 })
	windows := map[int64]models.TradeHistory{}
	for i, c := range candles {
		windows[c.OpenTime] = models.TradeHistory{Trades: []models.TradePrint{tp(c.OpenTime, strconv.Itoa(i), false)}, StopReason: models.StopShortPage}
	}
	// one lost window is skipped
	windows[candles[10].OpenTime] = models.TradeHistory{Pages: 1, StopReason: models.StopUpstreamError, Err: errors.New("x")}

	got := newFlow(&tradeSource{windows: windows}).RecentDeltaHistory(context.Background(), "BTCUSDT", candles, 12)
	// candles 7..18 precede the newest; 10 is lost
	assert.Equal(t, []float64{7, 8, 9, 11, 12, 13, 14, 15, 16, 17, 18}, got)

	assert.Nil(t, newFlow(&tradeSource{}).RecentDeltaHistory(context.Background(), "BTCUSDT", candles[:1], 12))
}

func TestRegime(t *testing.T) {
	cfg := RegimeConfig{Interval: drepo.Interval1h, Bars: 250, EMAPeriod: 200, SlopeLookback: 5, ATRPeriod: 14}

	t.Run("uptrend sits above the EMA", func(t *testing.T) {
		candles := series(250, 0, func(i int) float64 { return 100 + float64(i) })
		r, err := NewRegimeAnalyzer(candleSource{candles: candles}, cfg).Regime(context.Background(), "BTCUSDT")
		require.NoError(t, err)
		assert.Equal(t, models.StatusOK, r.Status)
		assert.True(t, r.Above)
		assert.False(t, r.Below)
		assert.Equal(t, 1, r.SlopeDirection)
		assert.InDelta(t, 2.0, r.ATR, 1e-9)
		assert.InDelta(t, (r.LastClose-r.LongEMA)/r.ATR, r.DistanceNormalized, 1e-9)
		assert.Equal(t, 250, r.Bars)
	})

	t.Run("flat price is neither above nor below", func(t *testing.T) {
		candles := series(250, 0, func(i int) float64 { return 100 })
		r := ComputeRegime(candles, cfg)
		assert.False(t, r.Above)
		assert.False(t, r.Below)
		assert.Equal(t, 0, r.SlopeDirection)
		assert.Zero(t, r.DistanceNormalized)
	})

	t.Run("upstream failure is regime unavailable", func(t *testing.T) {
		a := NewRegimeAnalyzer(candleSource{err: models.ErrUpstreamUnavailable}, cfg)
		r, err := a.Regime(context.Background(), "BTCUSDT")
		assert.ErrorIs(t, err, models.ErrRegimeUnavailable)
		assert.ErrorIs(t, err, models.ErrUpstreamUnavailable)
		assert.True(t, r.IsDegraded())
		assert.Zero(t, r.LongEMA)
		assert.Equal(t, "1h", r.Interval)
	})

	t.Run("short history degrades", func(t *testing.T) {
		r := ComputeRegime(series(50, 0, func(i int) float64 { return 100 }), cfg)
		assert.True(t, r.IsDegraded())
		assert.Equal(t, "insufficient_history", r.Reason)
		assert.Zero(t, r.LongEMA)
	})
}

func lvl(p, q string) models.PriceLevel {
	return models.PriceLevel{Price: decimal.RequireFromString(p), Quantity: decimal.RequireFromString(q)}
}

func TestSummarizeBook(t *testing.T) {
	t.Run("spread and quantity", func(t *testing.T) {
		s := SummarizeBook(&models.DepthBook{
			Bids: []models.PriceLevel{lvl("99.95", "2"), lvl("99.90", "3")},
			Asks: []models.PriceLevel{lvl("100.05", "1.5"), lvl("100.10", "0.5")},
		})
		assert.InDelta(t, 10.0, s.SpreadBps, 1e-9)
		assert.Equal(t, 7.0, s.TopQty)
		assert.Equal(t, 4, s.Levels)
		assert.False(t, s.IsDegraded())
	})

	t.Run("empty book is sentinel", func(t *testing.T) {
		s := SummarizeBook(&models.DepthBook{})
		assert.Equal(t, models.SpreadSentinelBps, s.SpreadBps)
		assert.Zero(t, s.TopQty)
		assert.True(t, s.IsDegraded())

		g := EvaluateGuards(models.GuardThresholds{SpreadMaxBps: 1e6}, GuardInputsFrom(models.Regime{}, s, models.IndicatorBlock{}))
		assert.False(t, g.SpreadOK)
	})

	t.Run("crossed book fails closed", func(t *testing.T) {
		s := SummarizeBook(&models.DepthBook{
			Bids: []models.PriceLevel{lvl("101", "1")},
			Asks: []models.PriceLevel{lvl("100", "1")},
		})
		assert.Equal(t, models.SpreadSentinelBps, s.SpreadBps)
	})

	t.Run("upstream failure", func(t *testing.T) {
		s := NewDepthAnalyzer(depthSource{err: models.ErrUpstreamUnavailable}, 5).Depth(context.Background(), "BTCUSDT")
		assert.Equal(t, models.SpreadSentinelBps, s.SpreadBps)
		assert.Equal(t, "upstream_unavailable", s.Reason)
	})
}

func TestEvaluateGuards(t *testing.T) {
	in := models.GuardInputs{ATRH1: 10, Distance: 1.2, SpreadBps: 1.5, DepthQty: 40, ATRM5: 3, ATRM5Pctl: 0.6}
	th := models.GuardThresholds{DistMin: 1, SpreadMaxBps: 2, MinDepthQty: 30, ATRPctlMin: 0.5}

	g := EvaluateGuards(th, in)
	assert.True(t, g.AllOK())
	assert.Equal(t, in, g.Inputs)
	assert.Equal(t, th, g.Thresholds)

	t.Run("zero ATR fails distance", func(t *testing.T) {
		z := in
		z.ATRH1 = 0
		assert.False(t, EvaluateGuards(th, z).DistanceOK)
	})

	t.Run("depth guard is monotonic", func(t *testing.T) {
		prev := true
		for _, threshold := range []float64{0, 10, 39.9, 40, 40.1, 100} {
			th := th
			th.MinDepthQty = threshold
			ok := EvaluateGuards(th, in).DepthOK
			if !prev {
				assert.False(t, ok, "depth_ok flipped back at %v", threshold)
			}
			prev = ok
		}
		assert.False(t, prev)
	})
}

func TestBaseVolatility(t *testing.T) {
	candles := series(60, 0, func(i int) float64 { return 100 })
	b := BaseVolatility(candles, 14, 50)
	assert.InDelta(t, 2.0, b.ATR14M5, 1e-9)
	assert.Equal(t, 1.0, b.ATR14M5Pctl)
	assert.Equal(t, 46, b.ATRHistorySize)

	b = BaseVolatility(series(100, 0, func(i int) float64 { return 100 }), 14, 50)
	assert.Equal(t, 50, b.ATRHistorySize)

	b = BaseVolatility(series(10, 0, func(i int) float64 { return 100 }), 14, 50)
	assert.Zero(t, b.ATR14M5)
	assert.Equal(t, 1.0, b.ATR14M5Pctl)
}
