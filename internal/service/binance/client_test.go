package binance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/adshao/go-binance/v2/common"
	"github.com/pkg/errors"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BarSnap/internal/domain/models"
	drepo "BarSnap/internal/domain/repository"
	"BarSnap/internal/service/ratelimit"
	applogger "BarSnap/pkg/logger"
	"BarSnap/pkg/metrics"
)

const klinesBody = `[
 [1700000000000,"100.10","101.00","99.50","100.80","12.5",1700000299999,"0",10,"0","0","0"],
 [1700000300000,"100.80","102.00","100.00","101.50","8.25",1700000599999,"0",7,"0","0","0"]
]`

const aggTradesBody = `[
 {"a":1,"p":"100.5","q":"1.500","f":1,"l":1,"T":1700000000100,"m":false},
 {"a":2,"p":"100.4","q":"2.0","f":2,"l":3,"T":1700000000200,"m":true}
]`

const depthBody = `{"lastUpdateId":42,"E":1700000000500,"T":1700000000400,
 "bids":[["100.0","3.5"],["99.9","1"]],
 "asks":[["100.1","2"],["100.2","4.25"]]}`

func newTestClient(t *testing.T, srv *httptest.Server, mutate func(*Config)) *Client {
	t.Helper()
	cfg := Config{
		BaseURL:            srv.URL + "/fapi/v1",
		Timeout:            2 * time.Second,
		MaxRetries:         2,
		RetryBackoff:       time.Millisecond,
		BreakerFailures:    10,
		BreakerOpenTimeout: time.Minute,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	return New(cfg, ratelimit.New(0, 1), metrics.Nop{}, applogger.Nop())
}

func TestClient_Klines(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/fapi/v1/klines", r.URL.Path)
		assert.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))
		assert.Equal(t, "5m", r.URL.Query().Get("interval"))
		assert.Equal(t, "22", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(klinesBody))
	}))
	defer srv.Close()

	bars, err := newTestClient(t, srv, nil).Klines(context.Background(), "BTCUSDT", drepo.Interval5m, 22)
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, int64(1700000000000), bars[0].OpenTime)
	assert.Equal(t, "100.10", bars[0].Open)
	assert.Equal(t, "8.25", bars[1].Volume)
}

func TestClient_AggTrades(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/fapi/v1/aggTrades", r.URL.Path)
		assert.Equal(t, "1700000000000", r.URL.Query().Get("startTime"))
		assert.Equal(t, "1700000299999", r.URL.Query().Get("endTime"))
		_, _ = w.Write([]byte(aggTradesBody))
	}))
	defer srv.Close()

	trades, err := newTestClient(t, srv, nil).AggTrades(context.Background(), "BTCUSDT", 1700000000000, 1700000299999, 1000)
	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.False(t, trades[0].AggressorIsSeller)
	assert.True(t, trades[1].AggressorIsSeller)
	assert.Equal(t, "1.5", trades[0].Quantity.String())
	assert.Equal(t, int64(1700000000200), trades[1].Timestamp)
}

func TestClient_Depth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/fapi/v1/depth", r.URL.Path)
		_, _ = w.Write([]byte(depthBody))
	}))
	defer srv.Close()

	book, err := newTestClient(t, srv, nil).Depth(context.Background(), "BTCUSDT", 5)
	require.NoError(t, err)
	require.Len(t, book.Bids, 2)
	require.Len(t, book.Asks, 2)
	assert.Equal(t, "100", book.Bids[0].Price.String())
	assert.Equal(t, "4.25", book.Asks[1].Quantity.String())
}

func TestClient_RetriesTransientFailures(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"code":-1003,"msg":"too many requests"}`))
			return
		}
		_, _ = w.Write([]byte(klinesBody))
	}))
	defer srv.Close()

	bars, err := newTestClient(t, srv, nil).Klines(context.Background(), "BTCUSDT", drepo.Interval5m, 2)
	require.NoError(t, err)
	assert.Len(t, bars, 2)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestClient_ExhaustedRetriesAreUpstreamUnavailable(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"code":-1000,"msg":"unknown"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv, nil).Depth(context.Background(), "BTCUSDT", 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrUpstreamUnavailable)
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}

func TestClient_BreakerShortCircuits(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"code":-1000,"msg":"down"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, func(cfg *Config) {
		cfg.MaxRetries = 0
		cfg.BreakerFailures = 1
	})
	_, err := c.Klines(context.Background(), "BTCUSDT", drepo.Interval5m, 2)
	require.Error(t, err)

	_, err = c.Klines(context.Background(), "BTCUSDT", drepo.Interval5m, 2)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.ErrorIs(t, err, models.ErrUpstreamUnavailable)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestClient_RejectedRequestLeavesBreakerClosed(t *testing.T) {
	var rejected, served int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("symbol") == "NOSUCH" {
			atomic.AddInt32(&rejected, 1)
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"code":-1121,"msg":"Invalid symbol."}`))
			return
		}
		atomic.AddInt32(&served, 1)
		_, _ = w.Write([]byte(klinesBody))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, func(cfg *Config) {
		cfg.BreakerFailures = 2
	})
	for i := 0; i < 5; i++ {
		_, err := c.Klines(context.Background(), "NOSUCH", drepo.Interval5m, 2)
		require.Error(t, err)
		assert.NotErrorIs(t, err, gobreaker.ErrOpenState)
	}
	// one request per call, never retried
	assert.Equal(t, int32(5), atomic.LoadInt32(&rejected))

	bars, err := c.Klines(context.Background(), "BTCUSDT", drepo.Interval5m, 2)
	require.NoError(t, err)
	assert.Len(t, bars, 2)
	assert.Equal(t, int32(1), atomic.LoadInt32(&served))
	assert.Equal(t, gobreaker.StateClosed, c.breaker.State())
}

func TestClient_RetriesAttemptTimeout(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			select {
			case <-r.Context().Done():
			case <-time.After(300 * time.Millisecond):
			}
			return
		}
		_, _ = w.Write([]byte(klinesBody))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, func(cfg *Config) {
		cfg.Timeout = 100 * time.Millisecond
	})
	bars, err := c.Klines(context.Background(), "BTCUSDT", drepo.Interval5m, 2)
	require.NoError(t, err)
	assert.Len(t, bars, 2)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestRejectedRequest(t *testing.T) {
	assert.True(t, rejectedRequest(&common.APIError{Code: -1121, Message: "Invalid symbol."}))
	assert.True(t, rejectedRequest(errors.Wrap(&common.APIError{Code: -1102}, "fetch")))
	assert.False(t, rejectedRequest(&common.APIError{Code: -1003}))
	assert.False(t, rejectedRequest(&common.APIError{Code: -1000}))
	assert.False(t, rejectedRequest(context.DeadlineExceeded))
}

func TestClient_MalformedDecimal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"a":1,"p":"1","q":"abc","f":1,"l":1,"T":1,"m":false}]`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv, nil).AggTrades(context.Background(), "BTCUSDT", 0, 10, 10)
	assert.ErrorIs(t, err, models.ErrUpstreamUnavailable)
}

func TestBaseURL(t *testing.T) {
	assert.Equal(t, "https://fapi.binance.com", BaseURL("https://fapi.binance.com/fapi/v1"))
	assert.Equal(t, "https://fapi.binance.com", BaseURL("https://fapi.binance.com/"))
	assert.Equal(t, "https://fapi.binance.com", BaseURL(""))
}

func TestRelay_ForwardsStatusAndBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/fapi/v1/trades", r.URL.Path)
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":-1121,"msg":"Invalid symbol."}`))
	}))
	defer srv.Close()

	r := NewRelay(srv.URL, time.Second, ratelimit.New(0, 1), metrics.Nop{})
	status, body, err := r.Get(context.Background(), "trades", url.Values{"symbol": {"NOPE"}, "limit": {"10"}})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.JSONEq(t, `{"code":-1121,"msg":"Invalid symbol."}`, string(body))
}

func TestRelay_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	r := NewRelay(srv.URL, time.Second, ratelimit.New(0, 1), metrics.Nop{})
	_, _, err := r.Get(context.Background(), "depth", nil)
	assert.ErrorIs(t, err, models.ErrUpstreamUnavailable)
}
