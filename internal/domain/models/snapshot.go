package models

// IndicatorBlock holds base-timeframe indicators.
type IndicatorBlock struct {
	ATR14M5        float64 `json:"atr14_m5"`
	ATR14M5Pctl    float64 `json:"atr14_m5_pctl"`
	ATRHistorySize int     `json:"atr_history_size"`
}

type SnapshotMeta struct {
	DataVersion string   `json:"data_version"`
	N           int      `json:"n"`
	ExpiresAt   int64    `json:"expires_at"`
	Degraded    []string `json:"degraded,omitempty"`
}

// Snapshot is the cached document describing the latest closed base bar.
// It is immutable once stored in the cache.
type Snapshot struct {
	Symbol         string         `json:"symbol"`
	Interval       string         `json:"interval"`
	ServerTime     int64          `json:"server_time"`
	Candles        []Candle       `json:"candles"`
	FlowLastCandle FlowStats      `json:"flow_last_candle"`
	Indicators     IndicatorBlock `json:"indicators"`
	Regime         Regime         `json:"regime"`
	Depth          DepthStats     `json:"depth"`
	Guards         GuardSet       `json:"guards"`
	Meta           SnapshotMeta   `json:"meta"`
}

// LastCandle returns the most recent closed candle.
func (s *Snapshot) LastCandle() (Candle, bool) {
	if s == nil || len(s.Candles) == 0 {
		return Candle{}, false
	}
	return s.Candles[len(s.Candles)-1], true
}
