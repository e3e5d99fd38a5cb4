package usecase

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BarSnap/internal/domain/models"
)

type recordingUpstream struct {
	path  string
	query url.Values
	err   error
}

func (u *recordingUpstream) Get(ctx context.Context, path string, query url.Values) (int, []byte, error) {
	u.path, u.query = path, query
	if u.err != nil {
		return 0, nil, u.err
	}
	return http.StatusTeapot, []byte(`{"code":-1121,"msg":"Invalid symbol."}`), nil
}

func TestRelayForwardsVerbatim(t *testing.T) {
	up := &recordingUpstream{}
	svc := NewRelayService(up)

	res, err := svc.Klines(context.Background(), &models.KlinesRequest{Symbol: "ethusdt", Interval: "1m", Limit: 100})
	require.NoError(t, err)
	assert.Equal(t, http.StatusTeapot, res.Status)
	assert.JSONEq(t, `{"code":-1121,"msg":"Invalid symbol."}`, string(res.Body))
	assert.Equal(t, PathKlines, up.path)
	assert.Equal(t, "ETHUSDT", up.query.Get("symbol"))
	assert.Equal(t, "1m", up.query.Get("interval"))
	assert.Equal(t, "100", up.query.Get("limit"))
}

func TestRelayPaths(t *testing.T) {
	up := &recordingUpstream{}
	svc := NewRelayService(up)

	_, err := svc.Depth(context.Background(), &models.DepthRequest{Symbol: "BTCUSDT", Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, PathDepth, up.path)
	assert.Equal(t, "5", up.query.Get("limit"))

	_, err = svc.Trades(context.Background(), &models.TradesRequest{Symbol: "BTCUSDT", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, PathTrades, up.path)
	assert.Equal(t, "10", up.query.Get("limit"))
}

func TestRelayTransportFailure(t *testing.T) {
	svc := NewRelayService(&recordingUpstream{err: models.ErrUpstreamUnavailable})
	_, err := svc.Trades(context.Background(), &models.TradesRequest{Symbol: "BTCUSDT", Limit: 10})
	assert.ErrorIs(t, err, models.ErrUpstreamUnavailable)
}
