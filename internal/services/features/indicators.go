package features

import (
	"math"

	"BarSnap/internal/domain/models"
)

const (
	// DefaultATRPeriod is the ATR lookback used throughout the snapshot.
	DefaultATRPeriod = 14
	// DefaultSlopeLookback is the number of bars compared by SlopeDirection.
	DefaultSlopeLookback = 5

	minStdDev = 1e-12
)

// EMA returns the final exponential moving average of values, seeded with the
// first value and smoothed with 2/(period+1). Returns 0 if len(values) < period.
func EMA(values []float64, period int) float64 {
	series := EMASeries(values, period)
	if len(series) == 0 {
		return 0
	}
	return series[len(series)-1]
}

// EMASeries returns the running EMA aligned with values, or nil when
// len(values) < period.
func EMASeries(values []float64, period int) []float64 {
	if period <= 0 || len(values) < period {
		return nil
	}
	alpha := 2.0 / float64(period+1)
	out := make([]float64, len(values))
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = out[i-1] + alpha*(values[i]-out[i-1])
	}
	return out
}

// TrueRanges returns the true range of every candle. The first candle has no
// previous close and uses high-low.
func TrueRanges(candles []models.Candle) []float64 {
	if len(candles) == 0 {
		return nil
	}
	out := make([]float64, len(candles))
	var prevClose float64
	for i, c := range candles {
		h, l, cl := c.HLC()
		tr := h - l
		if i > 0 {
			tr = math.Max(tr, math.Max(math.Abs(h-prevClose), math.Abs(l-prevClose)))
		}
		out[i] = tr
		prevClose = cl
	}
	return out
}

// ATR returns the mean of the last period true ranges, or 0 when fewer than
// period+1 candles are supplied.
func ATR(candles []models.Candle, period int) float64 {
	if period <= 0 || len(candles) < period+1 {
		return 0
	}
	return mean(TrueRanges(candles)[len(candles)-period:])
}

// ATRSeries returns the ATR reading at every bar from index period onwards,
// oldest first. Its last element equals ATR(candles, period).
func ATRSeries(candles []models.Candle, period int) []float64 {
	if period <= 0 || len(candles) < period+1 {
		return nil
	}
	trs := TrueRanges(candles)
	out := make([]float64, 0, len(candles)-period)
	for end := period + 1; end <= len(trs); end++ {
		out = append(out, mean(trs[end-period:end]))
	}
	return out
}

// SlopeDirection compares the last value with the one lookback positions
// earlier and returns +1, -1 or 0 within a relative tolerance.
func SlopeDirection(series []float64, lookback int) int {
	if lookback <= 0 || len(series) <= lookback {
		return 0
	}
	last := series[len(series)-1]
	diff := last - series[len(series)-1-lookback]
	tol := math.Max(1e-9, math.Abs(last)*1e-4)
	switch {
	case diff > tol:
		return 1
	case diff < -tol:
		return -1
	default:
		return 0
	}
}

// ZScore returns (value-mean)/stddev over series using the sample standard
// deviation. Populations of fewer than two elements yield 0.
func ZScore(value float64, series []float64) float64 {
	n := len(series)
	if n < 2 {
		return 0
	}
	m := mean(series)
	var ss float64
	for _, v := range series {
		d := v - m
		ss += d * d
	}
	sd := math.Sqrt(ss / float64(n-1))
	if sd < minStdDev {
		sd = minStdDev
	}
	return (value - m) / sd
}

// PercentileRank returns the fraction of series elements <= value.
// An empty series ranks at 1.0.
func PercentileRank(series []float64, value float64) float64 {
	if len(series) == 0 {
		return 1.0
	}
	var le int
	for _, v := range series {
		if v <= value {
			le++
		}
	}
	return float64(le) / float64(len(series))
}

// Closes extracts close prices in order.
func Closes(candles []models.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.ClosePrice()
	}
	return out
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var s float64
	for _, x := range xs {
		s += x
	}
	return s / float64(len(xs))
}
