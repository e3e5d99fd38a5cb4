package analytics

import (
	"BarSnap/internal/domain/models"
	"BarSnap/internal/services/features"
)

// EvaluateGuards compares inputs against thresholds. It never fails and
// always returns every flag with its inputs.
func EvaluateGuards(th models.GuardThresholds, in models.GuardInputs) models.GuardSet {
	return models.GuardSet{
		DistanceOK: in.ATRH1 > 0 && in.Distance >= th.DistMin,
		SpreadOK:   in.SpreadBps <= th.SpreadMaxBps,
		DepthOK:    in.DepthQty >= th.MinDepthQty,
		MarketOK:   in.ATRM5Pctl >= th.ATRPctlMin,
		Inputs:     in,
		Thresholds: th,
	}
}

// GuardInputsFrom collects the raw metrics the guards look at.
func GuardInputsFrom(regime models.Regime, depth models.DepthStats, ind models.IndicatorBlock) models.GuardInputs {
	return models.GuardInputs{
		ATRH1:     regime.ATR,
		Distance:  regime.DistanceNormalized,
		SpreadBps: depth.SpreadBps,
		DepthQty:  depth.TopQty,
		ATRM5:     ind.ATR14M5,
		ATRM5Pctl: ind.ATR14M5Pctl,
	}
}

// BaseVolatility returns the current base ATR and its percentile rank within
// the last history ATR readings, the current one included.
func BaseVolatility(candles []models.Candle, period, history int) models.IndicatorBlock {
	current := features.ATR(candles, period)
	series := features.ATRSeries(candles, period)
	if history > 0 && len(series) > history {
		series = series[len(series)-history:]
	}
	return models.IndicatorBlock{
		ATR14M5:        current,
		ATR14M5Pctl:    features.PercentileRank(series, current),
		ATRHistorySize: len(series),
	}
}
