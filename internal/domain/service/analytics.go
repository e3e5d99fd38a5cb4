package service

import (
	"context"

	"BarSnap/internal/domain/models"
	drepo "BarSnap/internal/domain/repository"
)

// CandleSource returns closed bars only, oldest first.
type CandleSource interface {
	ClosedCandles(ctx context.Context, symbol string, interval drepo.Interval, count int) ([]models.Candle, error)
}

// TradeSource paginates trades over a half-open window.
type TradeSource interface {
	TradesInWindow(ctx context.Context, symbol string, startMs, endMs int64) models.TradeHistory
}

// FlowAnalyzer derives order-flow statistics for the newest candle.
type FlowAnalyzer interface {
	LastBar(ctx context.Context, symbol string, candles []models.Candle) models.FlowStats
}

// RegimeAnalyzer computes the higher-timeframe trend context.
type RegimeAnalyzer interface {
	Regime(ctx context.Context, symbol string) (models.Regime, error)
}

// DepthAnalyzer summarizes the order book. It never fails; an unusable book
// yields models.UnmeasuredDepth.
type DepthAnalyzer interface {
	Depth(ctx context.Context, symbol string) models.DepthStats
}
