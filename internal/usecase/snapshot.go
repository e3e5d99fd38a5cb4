package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"BarSnap/internal/domain/models"
	drepo "BarSnap/internal/domain/repository"
	domsvc "BarSnap/internal/domain/service"
	icache "BarSnap/internal/service/cache"
	"BarSnap/internal/services/analytics"
	applogger "BarSnap/pkg/logger"
	"BarSnap/pkg/util"
)

// Snapshot request outcomes reported to metrics.
const (
	ResultHit      = "hit"
	ResultMiss     = "miss"
	ResultNotReady = "not_ready"
	ResultCanceled = "canceled"
)

type SnapshotConfig struct {
	Interval    drepo.Interval
	DefaultN    int
	MinN        int
	MaxN        int
	ATRPeriod   int
	ATRHistory  int
	DataVersion string
	Guards      models.GuardThresholds
}

// SnapshotStore memoizes documents per normalized request.
type SnapshotStore interface {
	GetOrCompute(ctx context.Context, symbol string, n int, compute icache.ComputeFunc) (*models.Snapshot, bool, error)
}

// SnapshotService assembles the bar-aligned snapshot document. Only the base
// candle fetch can fail a request; every enrichment stage degrades instead.
type SnapshotService struct {
	candles domsvc.CandleSource
	flow    domsvc.FlowAnalyzer
	regime  domsvc.RegimeAnalyzer
	depth   domsvc.DepthAnalyzer
	store   SnapshotStore
	cfg     SnapshotConfig
	metrics drepo.Metrics
	log     *applogger.Logger
	now     func() time.Time
}

type SnapshotOption func(*SnapshotService)

func WithSnapshotClock(now func() time.Time) SnapshotOption {
	return func(s *SnapshotService) { s.now = now }
}

func NewSnapshotService(
	candles domsvc.CandleSource,
	flow domsvc.FlowAnalyzer,
	regime domsvc.RegimeAnalyzer,
	depth domsvc.DepthAnalyzer,
	store SnapshotStore,
	cfg SnapshotConfig,
	m drepo.Metrics,
	log *applogger.Logger,
	opts ...SnapshotOption,
) *SnapshotService {
	s := &SnapshotService{
		candles: candles,
		flow:    flow,
		regime:  regime,
		depth:   depth,
		store:   store,
		cfg:     cfg,
		metrics: m,
		log:     log,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Normalize uppercases the symbol and turns any bar count input into a value
// within [MinN, MaxN]. Absent or unparsable counts fall back to DefaultN.
func (s *SnapshotService) Normalize(symbol, rawN string) (string, int) {
	n := util.ParseIntDefault(rawN, s.cfg.DefaultN)
	return util.NormalizeSymbol(symbol), util.ClampInt(n, s.cfg.MinN, s.cfg.MaxN)
}

// Snapshot returns the document for the latest closed bar, from cache when the
// next bar has not closed yet. Errors wrap models.ErrSnapshotNotReady or the
// caller's context error; the latter is recorded as canceled.
func (s *SnapshotService) Snapshot(ctx context.Context, symbol, rawN string) (*models.Snapshot, error) {
	start := time.Now()
	symbol, n := s.Normalize(symbol, rawN)

	doc, hit, err := s.store.GetOrCompute(ctx, symbol, n, s.compute(symbol, n))
	switch {
	case err != nil && CallerGone(ctx, err):
		s.metrics.RecordSnapshot(ResultCanceled, time.Since(start))
		return nil, err
	case err != nil:
		s.metrics.RecordSnapshot(ResultNotReady, time.Since(start))
		return nil, err
	case hit:
		s.metrics.RecordSnapshot(ResultHit, time.Since(start))
	default:
		s.metrics.RecordSnapshot(ResultMiss, time.Since(start))
	}
	return doc, nil
}

// CallerGone reports whether err comes from ctx being cancelled or timing out
// rather than from the work itself.
func CallerGone(ctx context.Context, err error) bool {
	return ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded))
}

func (s *SnapshotService) compute(symbol string, n int) icache.ComputeFunc {
	return func(ctx context.Context) (*models.Snapshot, error) {
		return s.Build(ctx, symbol, n)
	}
}

// Build computes a fresh document without touching the cache.
func (s *SnapshotService) Build(ctx context.Context, symbol string, n int) (*models.Snapshot, error) {
	candles, err := s.candles.ClosedCandles(ctx, symbol, s.cfg.Interval, s.fetchCount(n))
	if err != nil {
		if CallerGone(ctx, err) {
			return nil, err
		}
		s.log.Error("base candles unavailable",
			applogger.String("symbol", symbol),
			applogger.Int("n", n),
			applogger.Error(err),
		)
		return nil, fmt.Errorf("%w: %s: %w", models.ErrSnapshotNotReady, symbol, err)
	}

	var (
		regime models.Regime
		flow   models.FlowStats
		depth  models.DepthStats
		g      errgroup.Group
	)
	g.Go(func() error {
		r, err := s.regime.Regime(ctx, symbol)
		if err != nil {
			s.log.Warn("regime degraded", applogger.String("symbol", symbol), applogger.Error(err))
		}
		regime = r
		return nil
	})
	g.Go(func() error {
		flow = s.flow.LastBar(ctx, symbol, candles)
		return nil
	})
	g.Go(func() error {
		depth = s.depth.Depth(ctx, symbol)
		return nil
	})
	_ = g.Wait()

	indicators := analytics.BaseVolatility(candles, s.cfg.ATRPeriod, s.cfg.ATRHistory)
	guards := analytics.EvaluateGuards(s.cfg.Guards, analytics.GuardInputsFrom(regime, depth, indicators))

	if len(candles) > n {
		candles = candles[len(candles)-n:]
	}
	doc := &models.Snapshot{
		Symbol:         symbol,
		Interval:       string(s.cfg.Interval),
		ServerTime:     util.Millis(s.now()),
		Candles:        candles,
		FlowLastCandle: flow,
		Indicators:     indicators,
		Regime:         regime,
		Depth:          depth,
		Guards:         guards,
		Meta: models.SnapshotMeta{
			DataVersion: s.cfg.DataVersion,
			N:           n,
			Degraded:    s.degraded(regime, flow, depth),
		},
	}
	return doc, nil
}

// fetchCount reads enough bars for the ATR history behind the percentile,
// while the document keeps only the newest n.
func (s *SnapshotService) fetchCount(n int) int {
	need := s.cfg.ATRPeriod + s.cfg.ATRHistory
	if need > n {
		return need
	}
	return n
}

// degraded lists "stage:reason" for every enrichment stage that fell back to
// its default. Flow degradations are already reported by the flow analyzer.
func (s *SnapshotService) degraded(regime models.Regime, flow models.FlowStats, depth models.DepthStats) []string {
	var out []string
	if regime.IsDegraded() {
		s.metrics.RecordDegraded("regime", regime.Reason)
		out = append(out, "regime:"+regime.Reason)
	}
	if flow.IsDegraded() {
		out = append(out, "flow:"+flow.Reason)
	}
	if depth.IsDegraded() {
		s.metrics.RecordDegraded("depth", depth.Reason)
		s.log.Warn("depth degraded", applogger.String("reason", depth.Reason))
		out = append(out, "depth:"+depth.Reason)
	}
	return out
}
