package models

import "github.com/shopspring/decimal"

// RawBar is a bar as reported upstream. Its close instant is not known yet.
type RawBar struct {
	OpenTime int64
	Open     string
	High     string
	Low      string
	Close    string
	Volume   string
}

// Candle is a bar confirmed closed. Prices keep the exact decimal strings
// received upstream; CloseTime is exclusive (OpenTime + bar duration).
type Candle struct {
	OpenTime  int64  `json:"open_time"`
	CloseTime int64  `json:"close_time"`
	Open      string `json:"open"`
	High      string `json:"high"`
	Low       string `json:"low"`
	Close     string `json:"close"`
	Volume    string `json:"volume"`
}

// HLC returns high, low and close as floats for indicator math.
// Unparsable fields read as zero; the exchange adapter rejects them earlier.
func (c Candle) HLC() (high, low, closePrice float64) {
	return parseFloat(c.High), parseFloat(c.Low), parseFloat(c.Close)
}

// ClosePrice returns the close as a float.
func (c Candle) ClosePrice() float64 {
	return parseFloat(c.Close)
}

func parseFloat(s string) float64 {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0
	}
	return d.InexactFloat64()
}
