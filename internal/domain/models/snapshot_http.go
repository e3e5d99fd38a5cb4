package models

// Query parameters of the HTTP surface. N stays a string so that any input
// can be clamped instead of rejected.

type SnapshotRequest struct {
	Symbol string `query:"symbol" json:"symbol" default:"BTCUSDT" validate:"alphanum,max=32"`
	N      string `query:"n" json:"n"`
}

type DepthRequest struct {
	Symbol string `query:"symbol" json:"symbol" default:"BTCUSDT" validate:"alphanum,max=32"`
	Limit  int    `query:"limit" json:"limit" default:"5" validate:"gte=1,lte=1000"`
}

type KlinesRequest struct {
	Symbol   string `query:"symbol" json:"symbol" default:"BTCUSDT" validate:"alphanum,max=32"`
	Interval string `query:"interval" json:"interval" default:"1m" validate:"oneof=1m 3m 5m 15m 30m 1h 2h 4h 6h 8h 12h 1d 3d 1w 1M"`
	Limit    int    `query:"limit" json:"limit" default:"100" validate:"gte=1,lte=1500"`
}

type TradesRequest struct {
	Symbol string `query:"symbol" json:"symbol" default:"BTCUSDT" validate:"alphanum,max=32"`
	Limit  int    `query:"limit" json:"limit" default:"10" validate:"gte=1,lte=1000"`
}
