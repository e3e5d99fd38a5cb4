package usecase

import (
	"context"
	"net/url"
	"strconv"

	"BarSnap/internal/domain/models"
	drepo "BarSnap/internal/domain/repository"
	"BarSnap/pkg/util"
)

// Upstream REST paths relayed verbatim.
const (
	PathDepth  = "depth"
	PathKlines = "klines"
	PathTrades = "trades"
)

// RelayResult is an upstream answer forwarded without interpretation.
type RelayResult struct {
	Status int
	Body   []byte
}

// RelayService forwards simple market-data reads to the exchange.
type RelayService struct {
	upstream drepo.RawUpstream
}

func NewRelayService(upstream drepo.RawUpstream) *RelayService {
	return &RelayService{upstream: upstream}
}

func (s *RelayService) Depth(ctx context.Context, req *models.DepthRequest) (RelayResult, error) {
	q := url.Values{}
	q.Set("symbol", util.NormalizeSymbol(req.Symbol))
	q.Set("limit", strconv.Itoa(req.Limit))
	return s.forward(ctx, PathDepth, q)
}

func (s *RelayService) Klines(ctx context.Context, req *models.KlinesRequest) (RelayResult, error) {
	q := url.Values{}
	q.Set("symbol", util.NormalizeSymbol(req.Symbol))
	q.Set("interval", req.Interval)
	q.Set("limit", strconv.Itoa(req.Limit))
	return s.forward(ctx, PathKlines, q)
}

func (s *RelayService) Trades(ctx context.Context, req *models.TradesRequest) (RelayResult, error) {
	q := url.Values{}
	q.Set("symbol", util.NormalizeSymbol(req.Symbol))
	q.Set("limit", strconv.Itoa(req.Limit))
	return s.forward(ctx, PathTrades, q)
}

func (s *RelayService) forward(ctx context.Context, path string, q url.Values) (RelayResult, error) {
	status, body, err := s.upstream.Get(ctx, path, q)
	if err != nil {
		return RelayResult{}, err
	}
	return RelayResult{Status: status, Body: body}, nil
}
