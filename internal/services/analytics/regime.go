package analytics

import (
	"context"
	"fmt"
	"math"

	"BarSnap/internal/domain/models"
	drepo "BarSnap/internal/domain/repository"
	domsvc "BarSnap/internal/domain/service"
	"BarSnap/internal/services/features"
)

type RegimeConfig struct {
	Interval      drepo.Interval
	Bars          int
	EMAPeriod     int
	SlopeLookback int
	ATRPeriod     int
}

// RegimeAnalyzer measures where price sits relative to a long EMA on a
// higher timeframe.
type RegimeAnalyzer struct {
	candles domsvc.CandleSource
	cfg     RegimeConfig
}

var _ domsvc.RegimeAnalyzer = (*RegimeAnalyzer)(nil)

func NewRegimeAnalyzer(candles domsvc.CandleSource, cfg RegimeConfig) *RegimeAnalyzer {
	return &RegimeAnalyzer{candles: candles, cfg: cfg}
}

// Regime fails with models.ErrRegimeUnavailable when candles cannot be read.
// The returned block is always usable: on failure it is zeroed and degraded.
func (a *RegimeAnalyzer) Regime(ctx context.Context, symbol string) (models.Regime, error) {
	candles, err := a.candles.ClosedCandles(ctx, symbol, a.cfg.Interval, a.cfg.Bars)
	if err != nil {
		return a.Unavailable("upstream_unavailable"), fmt.Errorf("%w: %s: %w", models.ErrRegimeUnavailable, symbol, err)
	}
	return ComputeRegime(candles, a.cfg), nil
}

// Unavailable is the zeroed block substituted when the regime cannot be computed.
func (a *RegimeAnalyzer) Unavailable(reason string) models.Regime {
	return models.Regime{
		Interval:   string(a.cfg.Interval),
		EMAPeriod:  a.cfg.EMAPeriod,
		Provenance: models.Degraded(reason),
	}
}

// ComputeRegime derives the regime from closed candles, oldest first.
func ComputeRegime(candles []models.Candle, cfg RegimeConfig) models.Regime {
	r := models.Regime{
		Interval:   string(cfg.Interval),
		EMAPeriod:  cfg.EMAPeriod,
		Bars:       len(candles),
		Provenance: models.OK(),
	}
	if len(candles) == 0 {
		r.Provenance = models.Degraded("no_candles")
		return r
	}

	closes := features.Closes(candles)
	r.LastClose = closes[len(closes)-1]
	r.ATR = features.ATR(candles, cfg.ATRPeriod)

	series := features.EMASeries(closes, cfg.EMAPeriod)
	if series == nil {
		r.Provenance = models.Degraded("insufficient_history")
		return r
	}
	r.LongEMA = series[len(series)-1]
	r.SlopeDirection = features.SlopeDirection(series, cfg.SlopeLookback)
	if r.ATR > 0 {
		r.DistanceNormalized = math.Abs(r.LastClose-r.LongEMA) / r.ATR
	}
	r.Above = r.LastClose > r.LongEMA
	r.Below = r.LastClose < r.LongEMA
	return r
}
