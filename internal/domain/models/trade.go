package models

import "github.com/shopspring/decimal"

// TradePrint is one executed (aggregated) trade.
type TradePrint struct {
	Timestamp int64
	Quantity  decimal.Decimal
	// AggressorIsSeller is true when a seller hit the bid.
	AggressorIsSeller bool
}

// Reasons a trade-window pagination stopped.
const (
	StopWindowComplete = "window_complete"
	StopEmptyPage      = "empty_page"
	StopShortPage      = "short_page"
	StopPageCeiling    = "page_ceiling"
	StopUpstreamError  = "upstream_error"
)

// TradeHistory is the result of paginating a trade window. It is never an
// error: a failed page ends the walk and is recorded in StopReason/Err.
type TradeHistory struct {
	Trades     []TradePrint
	Pages      int
	StopReason string
	Err        error
}

// Truncated reports whether the walk ended before the window was exhausted.
func (h TradeHistory) Truncated() bool {
	return h.StopReason == StopPageCeiling || h.StopReason == StopUpstreamError
}
