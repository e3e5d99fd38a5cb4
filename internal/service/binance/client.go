package binance

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/adshao/go-binance/v2/common"
	"github.com/adshao/go-binance/v2/futures"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"

	"BarSnap/internal/domain/models"
	drepo "BarSnap/internal/domain/repository"
	"BarSnap/internal/service/ratelimit"
	applogger "BarSnap/pkg/logger"
	"BarSnap/pkg/retrier"
)

// Upstream endpoint labels used for rate limiting and metrics.
const (
	EndpointKlines    = "klines"
	EndpointAggTrades = "aggTrades"
	EndpointDepth     = "depth"
)

type Config struct {
	BaseURL            string
	Timeout            time.Duration
	MaxRetries         int
	RetryBackoff       time.Duration
	RPS                float64
	Burst              int
	BreakerFailures    uint32
	BreakerOpenTimeout time.Duration
}

// Client implements repository.MarketData against Binance USD-M futures.
// Every call is rate limited, guarded by a circuit breaker, bounded by a
// per-attempt timeout and retried with a fixed backoff.
type Client struct {
	api     *futures.Client
	timeout time.Duration
	retry   *retrier.Policy
	breaker *gobreaker.CircuitBreaker
	limiter *ratelimit.Limiter
	metrics drepo.Metrics
	log     *applogger.Logger
}

var _ drepo.MarketData = (*Client)(nil)

// New builds the client. A nil limiter gets a private one from cfg.RPS and
// cfg.Burst.
func New(cfg Config, limiter *ratelimit.Limiter, m drepo.Metrics, log *applogger.Logger) *Client {
	if limiter == nil {
		limiter = ratelimit.New(cfg.RPS, cfg.Burst)
	}
	api := futures.NewClient("", "")
	api.BaseURL = BaseURL(cfg.BaseURL)
	api.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	c := &Client{
		api:     api,
		timeout: cfg.Timeout,
		limiter: limiter,
		metrics: m,
		log:     log,
	}
	c.retry = retrier.New(
		retrier.WithMaxRetries(cfg.MaxRetries),
		retrier.WithInitialInterval(cfg.RetryBackoff),
		retrier.WithRetryIf(func(err error) bool {
			return !errors.Is(err, gobreaker.ErrOpenState) &&
				!errors.Is(err, gobreaker.ErrTooManyRequests) &&
				!rejectedRequest(err)
		}),
	)
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "binance-futures",
		MaxRequests: 1,
		Timeout:     cfg.BreakerOpenTimeout,
		// a rejected request says nothing about upstream health
		IsSuccessful: func(err error) bool {
			return err == nil || rejectedRequest(err) || errors.Is(err, context.Canceled)
		},
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return cfg.BreakerFailures > 0 && counts.ConsecutiveFailures >= cfg.BreakerFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("upstream breaker state changed",
				applogger.String("breaker", name),
				applogger.String("from", from.String()),
				applogger.String("to", to.String()),
			)
		},
	})
	return c
}

// BaseURL strips the REST version suffix some deployments put in the base URL.
func BaseURL(raw string) string {
	raw = strings.TrimRight(strings.TrimSpace(raw), "/")
	raw = strings.TrimSuffix(raw, "/fapi/v1")
	if raw == "" {
		return "https://fapi.binance.com"
	}
	return raw
}

// Klines returns the latest bars, oldest first. Prices keep their exact decimal strings.
func (c *Client) Klines(ctx context.Context, symbol string, interval drepo.Interval, limit int) ([]models.RawBar, error) {
	var klines []*futures.Kline
	err := c.call(ctx, EndpointKlines, func(ctx context.Context) error {
		var err error
		klines, err = c.api.NewKlinesService().
			Symbol(symbol).
			Interval(string(interval)).
			Limit(limit).
			Do(ctx)
		return err
	})
	if err != nil {
		return nil, errors.Wrapf(err, "fetch %s klines for %s", interval, symbol)
	}

	out := make([]models.RawBar, 0, len(klines))
	for i, k := range klines {
		for _, s := range []string{k.Open, k.High, k.Low, k.Close, k.Volume} {
			if _, err := decimal.NewFromString(s); err != nil {
				return nil, errors.Wrapf(models.ErrUpstreamUnavailable, "malformed kline at index %d for %s: %v", i, symbol, err)
			}
		}
		out = append(out, models.RawBar{
			OpenTime: k.OpenTime,
			Open:     k.Open,
			High:     k.High,
			Low:      k.Low,
			Close:    k.Close,
			Volume:   k.Volume,
		})
	}
	return out, nil
}

// AggTrades returns aggregated trades with timestamps in [startMs, endMs].
func (c *Client) AggTrades(ctx context.Context, symbol string, startMs, endMs int64, limit int) ([]models.TradePrint, error) {
	var trades []*futures.AggTrade
	err := c.call(ctx, EndpointAggTrades, func(ctx context.Context) error {
		var err error
		trades, err = c.api.NewAggTradesService().
			Symbol(symbol).
			StartTime(startMs).
			EndTime(endMs).
			Limit(limit).
			Do(ctx)
		return err
	})
	if err != nil {
		return nil, errors.Wrapf(err, "fetch aggTrades for %s [%d, %d]", symbol, startMs, endMs)
	}

	out := make([]models.TradePrint, 0, len(trades))
	for i, t := range trades {
		qty, err := decimal.NewFromString(t.Quantity)
		if err != nil {
			return nil, errors.Wrapf(models.ErrUpstreamUnavailable, "malformed trade quantity at index %d for %s: %v", i, symbol, err)
		}
		out = append(out, models.TradePrint{
			Timestamp: t.Timestamp,
			Quantity:  qty,
			// the maker was the buyer, so a seller crossed the spread
			AggressorIsSeller: t.IsBuyerMaker,
		})
	}
	return out, nil
}

// Depth returns the order book, best levels first.
func (c *Client) Depth(ctx context.Context, symbol string, limit int) (*models.DepthBook, error) {
	var res *futures.DepthResponse
	err := c.call(ctx, EndpointDepth, func(ctx context.Context) error {
		var err error
		res, err = c.api.NewDepthService().
			Symbol(symbol).
			Limit(limit).
			Do(ctx)
		return err
	})
	if err != nil {
		return nil, errors.Wrapf(err, "fetch depth for %s", symbol)
	}

	book := &models.DepthBook{Time: res.Time}
	book.Bids = make([]models.PriceLevel, 0, len(res.Bids))
	for _, b := range res.Bids {
		lvl, err := priceLevel(b.Price, b.Quantity)
		if err != nil {
			return nil, errors.Wrapf(models.ErrUpstreamUnavailable, "malformed bid for %s: %v", symbol, err)
		}
		book.Bids = append(book.Bids, lvl)
	}
	book.Asks = make([]models.PriceLevel, 0, len(res.Asks))
	for _, a := range res.Asks {
		lvl, err := priceLevel(a.Price, a.Quantity)
		if err != nil {
			return nil, errors.Wrapf(models.ErrUpstreamUnavailable, "malformed ask for %s: %v", symbol, err)
		}
		book.Asks = append(book.Asks, lvl)
	}
	return book, nil
}

func priceLevel(price, qty string) (models.PriceLevel, error) {
	p, err := decimal.NewFromString(price)
	if err != nil {
		return models.PriceLevel{}, err
	}
	q, err := decimal.NewFromString(qty)
	if err != nil {
		return models.PriceLevel{}, err
	}
	return models.PriceLevel{Price: p, Quantity: q}, nil
}

// call runs fn under the limiter, breaker, timeout and retry policy. A final
// failure is reported as ErrUpstreamUnavailable.
func (c *Client) call(ctx context.Context, endpoint string, fn func(ctx context.Context) error) error {
	start := time.Now()
	err := c.retry.Do(ctx, func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx, endpoint); err != nil {
			return err
		}
		_, err := c.breaker.Execute(func() (interface{}, error) {
			attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
			defer cancel()
			return nil, fn(attemptCtx)
		})
		return err
	})
	took := time.Since(start)

	if err != nil {
		c.metrics.RecordUpstream(endpoint, outcome(err), took)
		c.log.Debug("upstream call failed",
			applogger.String("endpoint", endpoint),
			applogger.Duration("duration_ms", took),
			applogger.Error(err),
		)
		return fmt.Errorf("%w: %s: %w", models.ErrUpstreamUnavailable, endpoint, err)
	}
	c.metrics.RecordUpstream(endpoint, "ok", took)
	return nil
}

// Binance codes that signal an overloaded or unreachable upstream rather than
// a bad request. Zero is an error body the SDK could not decode.
var transientAPICodes = map[int64]bool{
	0:     true,
	-1000: true, // unknown
	-1001: true, // disconnected
	-1003: true, // too many requests
	-1006: true, // unexpected response
	-1007: true, // timeout
	-1008: true, // server busy
	-1015: true, // too many orders
}

// rejectedRequest reports whether Binance refused the request itself, such
// as -1121 for an unknown symbol. Repeating it cannot succeed.
func rejectedRequest(err error) bool {
	var apiErr *common.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return !transientAPICodes[apiErr.Code]
}

func outcome(err error) string {
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return "breaker_open"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "timeout"
	case rejectedRequest(err):
		return "rejected"
	default:
		return "error"
	}
}
