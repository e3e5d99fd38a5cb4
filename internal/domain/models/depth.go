package models

import "github.com/shopspring/decimal"

// SpreadSentinelBps stands in for an unmeasurable spread. It is large enough
// to fail any sane threshold and still encodes as a JSON number.
const SpreadSentinelBps = 1e9

type PriceLevel struct {
	Price    decimal.Decimal
	Quantity decimal.Decimal
}

// DepthBook is an order-book snapshot, best levels first.
type DepthBook struct {
	Bids []PriceLevel
	Asks []PriceLevel
	Time int64
}

// DepthStats is the spread/depth block of a snapshot.
type DepthStats struct {
	BestBid   float64 `json:"best_bid"`
	BestAsk   float64 `json:"best_ask"`
	SpreadBps float64 `json:"spread_bps"`
	TopQty    float64 `json:"top_qty"`
	Levels    int     `json:"levels"`
	Provenance
}

// UnmeasuredDepth is the fail-closed default used when the book is unusable.
func UnmeasuredDepth(reason string) DepthStats {
	return DepthStats{SpreadBps: SpreadSentinelBps, Provenance: Degraded(reason)}
}
