package binance

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"BarSnap/internal/domain/models"
	drepo "BarSnap/internal/domain/repository"
	"BarSnap/internal/service/ratelimit"
	xhttp "BarSnap/pkg/http"
)

const EndpointRelay = "relay"

// Relay forwards single REST calls verbatim. It does not retry: the caller
// sees exactly what the exchange answered.
type Relay struct {
	baseURL string
	client  *xhttp.Client
	limiter *ratelimit.Limiter
	metrics drepo.Metrics
}

var _ drepo.RawUpstream = (*Relay)(nil)

func NewRelay(baseURL string, timeout time.Duration, limiter *ratelimit.Limiter, m drepo.Metrics) *Relay {
	return &Relay{
		baseURL: BaseURL(baseURL),
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
		limiter: limiter,
		metrics: m,
	}
}

// Get issues GET {base}/fapi/v1/{path}?query and returns the status and body.
func (r *Relay) Get(ctx context.Context, path string, query url.Values) (int, []byte, error) {
	start := time.Now()
	if err := r.limiter.Wait(ctx, EndpointRelay); err != nil {
		return 0, nil, errors.Wrap(models.ErrUpstreamUnavailable, err.Error())
	}

	raw, err := r.client.Fetch(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         r.baseURL + "/fapi/v1/" + strings.TrimLeft(path, "/"),
		QueryParams: query,
	})
	if err != nil {
		r.metrics.RecordUpstream(EndpointRelay, "error", time.Since(start))
		return 0, nil, errors.Wrapf(models.ErrUpstreamUnavailable, "relay %s: %v", path, err)
	}
	r.metrics.RecordUpstream(EndpointRelay, "ok", time.Since(start))
	return raw.StatusCode, raw.Body, nil
}
