package models

// Coverage is a heuristic confidence that a trade window was fully captured.
type Coverage string

const (
	CoverageFull    Coverage = "full"
	CoveragePartial Coverage = "partial"
	CoverageUnknown Coverage = "unknown"
)

// FlowStats describes aggressor-side volume over [OpenTime, CloseTime).
type FlowStats struct {
	OpenTime         int64    `json:"open_time"`
	CloseTime        int64    `json:"close_time"`
	BuyVolume        float64  `json:"buy_volume"`
	SellVolume       float64  `json:"sell_volume"`
	Delta            float64  `json:"delta"`
	PctAggressiveBuy float64  `json:"pct_aggressive_buy"`
	Coverage         Coverage `json:"coverage"`
	TradeCount       int      `json:"trade_count"`
	Pages            int      `json:"pages"`
	Truncated        bool     `json:"truncated"`
	// DeltaZScore places Delta against the deltas of the preceding bars.
	DeltaZScore      float64 `json:"delta_zscore"`
	DeltaHistorySize int     `json:"delta_history_size"`
	Provenance
}
