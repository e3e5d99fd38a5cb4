package models

// Regime is the higher-timeframe trend context.
type Regime struct {
	Interval           string  `json:"interval"`
	EMAPeriod          int     `json:"ema_period"`
	LongEMA            float64 `json:"long_ema"`
	SlopeDirection     int     `json:"slope_direction"`
	ATR                float64 `json:"atr"`
	LastClose          float64 `json:"last_close"`
	DistanceNormalized float64 `json:"distance_normalized"`
	Above              bool    `json:"regime_above"`
	Below              bool    `json:"regime_below"`
	Bars               int     `json:"bars"`
	Provenance
}
