package api

import (
	"context"

	"github.com/labstack/echo/v4"

	"BarSnap/internal/domain/models"
	"BarSnap/internal/usecase"
	xhttp "BarSnap/pkg/http"
	xlogger "BarSnap/pkg/logger"
)

// Relayer forwards simple reads to the exchange.
type Relayer interface {
	Depth(ctx context.Context, req *models.DepthRequest) (usecase.RelayResult, error)
	Klines(ctx context.Context, req *models.KlinesRequest) (usecase.RelayResult, error)
	Trades(ctx context.Context, req *models.TradesRequest) (usecase.RelayResult, error)
}

// RelayEchoHandler exposes the pass-through routes. Upstream status and body
// are returned unchanged; only a transport failure maps to 502.
type RelayEchoHandler struct {
	logger *xlogger.Logger
	relay  Relayer
}

func NewRelayEchoHandler(logger *xlogger.Logger, relay Relayer) *RelayEchoHandler {
	return &RelayEchoHandler{logger: logger, relay: relay}
}

func (h *RelayEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/depth", h.Depth)
	e.GET("/klines", h.Klines)
	e.GET("/trades", h.Trades)
}

func (h *RelayEchoHandler) Depth(c echo.Context) error {
	req := &models.DepthRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.relay.Depth(c.Request().Context(), req)
	return h.write(c, "depth", res, err)
}

func (h *RelayEchoHandler) Klines(c echo.Context) error {
	req := &models.KlinesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.relay.Klines(c.Request().Context(), req)
	return h.write(c, "klines", res, err)
}

func (h *RelayEchoHandler) Trades(c echo.Context) error {
	req := &models.TradesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.relay.Trades(c.Request().Context(), req)
	return h.write(c, "trades", res, err)
}

func (h *RelayEchoHandler) write(c echo.Context, route string, res usecase.RelayResult, err error) error {
	if err != nil {
		h.logger.Warn("relay failed", xlogger.String("route", route), xlogger.Error(err))
		return xhttp.PlainErrorResponse(c, xhttp.BadGatewayError("upstream unreachable").WithError(err))
	}
	return xhttp.RawResponseBody(c, &xhttp.RawResponse{StatusCode: res.Status, Body: res.Body})
}
