package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	snapshots     *prometheus.CounterVec
	snapshotTime  *prometheus.HistogramVec
	degraded      *prometheus.CounterVec
	upstreamCalls *prometheus.CounterVec
	upstreamTime  *prometheus.HistogramVec
	tradePages    prometheus.Histogram
	cacheLookups  *prometheus.CounterVec
	cacheEntries  prometheus.Gauge
}

// New registers the collectors on reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Recorder{
		snapshots: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "barsnap",
				Name:      "snapshot_requests_total",
				Help:      "Snapshot requests by result",
			},
			[]string{"result"},
		),
		snapshotTime: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "barsnap",
				Name:      "snapshot_duration_seconds",
				Help:      "Time to serve a snapshot request",
				Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"result"},
		),
		degraded: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "barsnap",
				Name:      "stage_degraded_total",
				Help:      "Enrichment stages that fell back to a default",
			},
			[]string{"stage", "reason"},
		),
		upstreamCalls: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "barsnap",
				Subsystem: "upstream",
				Name:      "calls_total",
				Help:      "Upstream calls by endpoint and outcome",
			},
			[]string{"endpoint", "outcome"},
		),
		upstreamTime: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "barsnap",
				Subsystem: "upstream",
				Name:      "duration_seconds",
				Help:      "Upstream call latency including retries",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		tradePages: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "barsnap",
				Name:      "trade_pages",
				Help:      "Trade pages fetched per flow window",
				Buckets:   []float64{1, 2, 3, 5, 10, 20, 50},
			},
		),
		cacheLookups: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "barsnap",
				Subsystem: "cache",
				Name:      "lookups_total",
				Help:      "Snapshot cache lookups by result",
			},
			[]string{"result"},
		),
		cacheEntries: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "barsnap",
				Subsystem: "cache",
				Name:      "entries",
				Help:      "Snapshot documents currently cached",
			},
		),
	}
}

// RecordSnapshot records a served snapshot request.
func (r *Recorder) RecordSnapshot(result string, d time.Duration) {
	r.snapshots.WithLabelValues(result).Inc()
	r.snapshotTime.WithLabelValues(result).Observe(d.Seconds())
}

// RecordUpstream records one logical upstream call.
func (r *Recorder) RecordUpstream(endpoint, outcome string, d time.Duration) {
	r.upstreamCalls.WithLabelValues(endpoint, outcome).Inc()
	r.upstreamTime.WithLabelValues(endpoint).Observe(d.Seconds())
}

func (r *Recorder) RecordTradePages(pages int) {
	r.tradePages.Observe(float64(pages))
}

func (r *Recorder) RecordDegraded(stage, reason string) {
	r.degraded.WithLabelValues(stage, reason).Inc()
}

func (r *Recorder) RecordCache(result string) {
	r.cacheLookups.WithLabelValues(result).Inc()
}

func (r *Recorder) SetCacheEntries(n int) {
	r.cacheEntries.Set(float64(n))
}

// Nop discards every observation.
type Nop struct{}

func (Nop) RecordSnapshot(string, time.Duration)         {}
func (Nop) RecordUpstream(string, string, time.Duration) {}
func (Nop) RecordTradePages(int)                         {}
func (Nop) RecordDegraded(string, string)                {}
func (Nop) RecordCache(string)                           {}
func (Nop) SetCacheEntries(int)                          {}
