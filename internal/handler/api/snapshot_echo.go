package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"BarSnap/internal/domain/models"
	"BarSnap/internal/usecase"
	xhttp "BarSnap/pkg/http"
	xlogger "BarSnap/pkg/logger"
)

// SnapshotProvider returns the bar-aligned snapshot document.
type SnapshotProvider interface {
	Snapshot(ctx context.Context, symbol, rawN string) (*models.Snapshot, error)
}

// SnapshotEchoHandler serves the snapshot document without an envelope.
type SnapshotEchoHandler struct {
	logger *xlogger.Logger
	svc    SnapshotProvider
}

func NewSnapshotEchoHandler(logger *xlogger.Logger, svc SnapshotProvider) *SnapshotEchoHandler {
	return &SnapshotEchoHandler{logger: logger, svc: svc}
}

func (h *SnapshotEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/m5-snapshot", h.Snapshot)
	e.GET("/snapshot", h.Snapshot)
}

func (h *SnapshotEchoHandler) Snapshot(c echo.Context) error {
	req := &models.SnapshotRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	ctx := c.Request().Context()
	doc, err := h.svc.Snapshot(ctx, req.Symbol, req.N)
	if err != nil {
		if usecase.CallerGone(ctx, err) {
			h.logger.Debug("snapshot request abandoned", xlogger.String("symbol", req.Symbol), xlogger.Error(err))
			return xhttp.PlainErrorResponse(c, xhttp.ClientClosedError("request canceled").WithError(err))
		}
		if errors.Is(err, models.ErrSnapshotNotReady) {
			return xhttp.PlainErrorResponse(c, xhttp.SnapshotNotReadyError(err.Error()).WithError(err))
		}
		h.logger.Error("snapshot usecase error", xlogger.String("symbol", req.Symbol), xlogger.Error(err))
		return xhttp.PlainErrorResponse(c, err)
	}
	return c.JSON(http.StatusOK, doc)
}
