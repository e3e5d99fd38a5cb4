package api

import (
	"net/http"
	"sort"

	"github.com/labstack/echo/v4"

	xhttp "BarSnap/pkg/http"
)

// HealthEchoHandler serves liveness and route discovery.
type HealthEchoHandler struct {
	message string
}

func NewHealthEchoHandler(message string) *HealthEchoHandler {
	return &HealthEchoHandler{message: message}
}

func (h *HealthEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.Home)
	e.GET("/healthz", h.Healthz)
	e.GET("/routes", func(c echo.Context) error { return h.Routes(c, e) })
}

func (h *HealthEchoHandler) Home(c echo.Context) error {
	return c.JSON(http.StatusOK, xhttp.StatusMessage{Status: "ok", Message: h.message})
}

func (h *HealthEchoHandler) Healthz(c echo.Context) error {
	return xhttp.SuccessResponse(c, xhttp.StatusMessage{Status: "ok", Message: h.message})
}

func (h *HealthEchoHandler) Routes(c echo.Context, e *echo.Echo) error {
	routes := make([]xhttp.RouteInfo, 0, len(e.Routes()))
	for _, r := range e.Routes() {
		routes = append(routes, xhttp.RouteInfo{Method: r.Method, Path: r.Path})
	}
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Path == routes[j].Path {
			return routes[i].Method < routes[j].Method
		}
		return routes[i].Path < routes[j].Path
	})
	return xhttp.SuccessResponse(c, routes)
}
