package models

// GuardThresholds are the configured admissibility limits.
type GuardThresholds struct {
	DistMin      float64 `json:"dist_min"`
	SpreadMaxBps float64 `json:"spread_max_bps"`
	MinDepthQty  float64 `json:"min_depth_qty"`
	ATRPctlMin   float64 `json:"atr_m5_pctl_min"`
}

// GuardInputs are the raw metrics the flags were computed from.
type GuardInputs struct {
	ATRH1     float64 `json:"atr_h1"`
	Distance  float64 `json:"distance_normalized"`
	SpreadBps float64 `json:"spread_bps"`
	DepthQty  float64 `json:"depth_qty"`
	ATRM5     float64 `json:"atr_m5"`
	ATRM5Pctl float64 `json:"atr_m5_pctl"`
}

type GuardSet struct {
	DistanceOK bool            `json:"distance_ok"`
	SpreadOK   bool            `json:"spread_ok"`
	DepthOK    bool            `json:"depth_ok"`
	MarketOK   bool            `json:"market_ok"`
	Inputs     GuardInputs     `json:"inputs"`
	Thresholds GuardThresholds `json:"thresholds"`
}

// AllOK is true when every guard passes.
func (g GuardSet) AllOK() bool {
	return g.DistanceOK && g.SpreadOK && g.DepthOK && g.MarketOK
}
