package di

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"BarSnap/internal/domain/models"
	"BarSnap/internal/domain/repository"
	domsvc "BarSnap/internal/domain/service"
	"BarSnap/internal/handler/api"
	"BarSnap/internal/service/binance"
	icache "BarSnap/internal/service/cache"
	"BarSnap/internal/service/ratelimit"
	"BarSnap/internal/services/analytics"
	"BarSnap/internal/services/marketdata"
	"BarSnap/internal/usecase"
	"BarSnap/pkg/config"
	xhttp "BarSnap/pkg/http"
	applogger "BarSnap/pkg/logger"
	"BarSnap/pkg/metrics"
	"BarSnap/pkg/server"
)

// ProvideLogger creates the process logger from the log section.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideRegistry creates the Prometheus registry shared by every collector.
func ProvideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics(reg *prometheus.Registry) repository.Metrics {
	return metrics.New(reg)
}

// ProvideLimiter creates the process-wide upstream rate limiter.
func ProvideLimiter(cfg *config.Config) *ratelimit.Limiter {
	return ratelimit.New(cfg.Upstream.Rate.RPS, cfg.Upstream.Rate.Burst)
}

// ProvideMarketData creates the Binance futures client.
func ProvideMarketData(cfg *config.Config, lim *ratelimit.Limiter, m repository.Metrics, l *applogger.Logger) repository.MarketData {
	return binance.New(binance.Config{
		BaseURL:            cfg.Upstream.BaseURL,
		Timeout:            cfg.Upstream.Timeout,
		MaxRetries:         cfg.Upstream.MaxRetries,
		RetryBackoff:       cfg.Upstream.RetryBackoff,
		RPS:                cfg.Upstream.Rate.RPS,
		Burst:              cfg.Upstream.Rate.Burst,
		BreakerFailures:    cfg.Upstream.Breaker.Failures,
		BreakerOpenTimeout: cfg.Upstream.Breaker.OpenTimeout,
	}, lim, m, l)
}

// ProvideRawUpstream creates the verbatim relay client.
func ProvideRawUpstream(cfg *config.Config, lim *ratelimit.Limiter, m repository.Metrics) repository.RawUpstream {
	return binance.NewRelay(cfg.Upstream.BaseURL, cfg.Upstream.Timeout, lim, m)
}

// ProvideFetcher creates the closed-candle and trade-window reader.
func ProvideFetcher(md repository.MarketData, m repository.Metrics, l *applogger.Logger, cfg *config.Config) *marketdata.Fetcher {
	return marketdata.NewFetcher(md, m, l,
		marketdata.WithPaging(cfg.Upstream.TradesPageLimit, cfg.Upstream.MaxTradePages),
	)
}

// ProvideFlowAnalyzer creates the order-flow analyzer.
func ProvideFlowAnalyzer(f *marketdata.Fetcher, cfg *config.Config, m repository.Metrics, l *applogger.Logger) domsvc.FlowAnalyzer {
	return analytics.NewFlowAnalyzer(f, analytics.FlowConfig{
		CoverageTolerance: cfg.Snapshot.CoverageTolerance,
		DeltaHistory:      cfg.Snapshot.DeltaHistory,
		Workers:           cfg.Snapshot.DeltaWorkers,
	}, m, l)
}

// ProvideRegimeAnalyzer creates the higher-timeframe regime analyzer.
func ProvideRegimeAnalyzer(f *marketdata.Fetcher, cfg *config.Config) domsvc.RegimeAnalyzer {
	return analytics.NewRegimeAnalyzer(f, analytics.RegimeConfig{
		Interval:      repository.Interval(cfg.Snapshot.RegimeInterval),
		Bars:          cfg.Snapshot.RegimeBars,
		EMAPeriod:     cfg.Snapshot.EMAPeriod,
		SlopeLookback: cfg.Snapshot.SlopeLookback,
		ATRPeriod:     cfg.Snapshot.ATRPeriod,
	})
}

// ProvideDepthAnalyzer creates the order-book analyzer.
func ProvideDepthAnalyzer(md repository.MarketData, cfg *config.Config) domsvc.DepthAnalyzer {
	return analytics.NewDepthAnalyzer(md, cfg.Upstream.DepthLevels)
}

// ProvideSnapshotCache creates the bar-aligned snapshot cache.
func ProvideSnapshotCache(cfg *config.Config, m repository.Metrics, l *applogger.Logger) *icache.SnapshotCache {
	return icache.New(icache.Config{
		Interval:        repository.Interval(cfg.Snapshot.Interval).Duration(),
		MinTTL:          cfg.Snapshot.MinTTL,
		MaxEntries:      cfg.Cache.MaxEntries,
		IdleTTL:         cfg.Cache.IdleTTL,
		CleanupInterval: cfg.Cache.CleanupInterval,
	}, m, l)
}

// ProvideSnapshotService creates the snapshot orchestrator.
func ProvideSnapshotService(
	f *marketdata.Fetcher,
	flow domsvc.FlowAnalyzer,
	regime domsvc.RegimeAnalyzer,
	depth domsvc.DepthAnalyzer,
	store *icache.SnapshotCache,
	cfg *config.Config,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.SnapshotService {
	return usecase.NewSnapshotService(f, flow, regime, depth, store, usecase.SnapshotConfig{
		Interval:    repository.Interval(cfg.Snapshot.Interval),
		DefaultN:    cfg.Snapshot.DefaultN,
		MinN:        cfg.Snapshot.MinN,
		MaxN:        cfg.Snapshot.MaxN,
		ATRPeriod:   cfg.Snapshot.ATRPeriod,
		ATRHistory:  cfg.Snapshot.ATRHistory,
		DataVersion: cfg.Snapshot.DataVersion,
		Guards: models.GuardThresholds{
			DistMin:      cfg.Guards.DistMin,
			SpreadMaxBps: cfg.Guards.SpreadMaxBps,
			MinDepthQty:  cfg.Guards.MinDepthQty,
			ATRPctlMin:   cfg.Guards.ATRPctlMin,
		},
	}, m, l)
}

// ProvideRelayService creates the pass-through use case.
func ProvideRelayService(up repository.RawUpstream) *usecase.RelayService {
	return usecase.NewRelayService(up)
}

// ProvideHandlers collects every HTTP handler.
func ProvideHandlers(l *applogger.Logger, snap *usecase.SnapshotService, relay *usecase.RelayService) []xhttp.Handler {
	return []xhttp.Handler{
		api.NewHealthEchoHandler("Binance relay online"),
		api.NewSnapshotEchoHandler(l, snap),
		api.NewRelayEchoHandler(l, relay),
	}
}

// ProvideHTTPServer creates the echo server.
func ProvideHTTPServer(cfg *config.Config, l *applogger.Logger, reg *prometheus.Registry, handlers []xhttp.Handler) *xhttp.Server {
	opts := []xhttp.ServerOption{
		xhttp.WithHost(cfg.Server.Host),
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(cfg.Server.CORS),
		xhttp.WithSlowThreshold(cfg.Server.SlowThreshold),
	}
	if cfg.Metrics.Enabled {
		opts = append(opts, xhttp.WithMetrics(cfg.Metrics.Path, reg, reg))
	}
	return xhttp.NewServer(handlers, l, opts...)
}

// ProvideApp creates the application server.
func ProvideApp(cfg *config.Config, l *applogger.Logger, srv *xhttp.Server, store *icache.SnapshotCache) *server.App {
	return server.New(cfg, l, srv, store)
}
