package analytics

import (
	"context"

	"github.com/shopspring/decimal"

	"BarSnap/internal/domain/models"
	drepo "BarSnap/internal/domain/repository"
	domsvc "BarSnap/internal/domain/service"
)

var bps = decimal.NewFromInt(10_000)

// DepthAnalyzer reads the top of the book and reports spread and resting size.
type DepthAnalyzer struct {
	md     drepo.MarketData
	levels int
}

var _ domsvc.DepthAnalyzer = (*DepthAnalyzer)(nil)

func NewDepthAnalyzer(md drepo.MarketData, levels int) *DepthAnalyzer {
	if levels <= 0 {
		levels = 5
	}
	return &DepthAnalyzer{md: md, levels: levels}
}

func (a *DepthAnalyzer) Depth(ctx context.Context, symbol string) models.DepthStats {
	book, err := a.md.Depth(ctx, symbol, a.levels)
	if err != nil {
		return models.UnmeasuredDepth("upstream_unavailable")
	}
	return SummarizeBook(book)
}

// SummarizeBook computes spread in basis points of the mid price and the
// summed quantity of every bid and ask level. Books without both sides, or
// crossed books, fail closed.
func SummarizeBook(book *models.DepthBook) models.DepthStats {
	if book == nil || len(book.Bids) == 0 || len(book.Asks) == 0 {
		return models.UnmeasuredDepth("empty_book")
	}
	bid, ask := book.Bids[0].Price, book.Asks[0].Price
	if !bid.IsPositive() || !ask.IsPositive() || ask.LessThan(bid) {
		return models.UnmeasuredDepth("crossed_book")
	}

	mid := bid.Add(ask).Div(decimal.NewFromInt(2))
	spread := ask.Sub(bid).Div(mid).Mul(bps)

	qty := decimal.Zero
	for _, l := range book.Bids {
		qty = qty.Add(l.Quantity)
	}
	for _, l := range book.Asks {
		qty = qty.Add(l.Quantity)
	}

	return models.DepthStats{
		BestBid:    bid.InexactFloat64(),
		BestAsk:    ask.InexactFloat64(),
		SpreadBps:  spread.InexactFloat64(),
		TopQty:     qty.InexactFloat64(),
		Levels:     len(book.Bids) + len(book.Asks),
		Provenance: models.OK(),
	}
}
