package router

import (
	"github.com/labstack/echo/v4"
	"github.com/mandawilson/smile-dashboard/internal/handler"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// registerSystemRoutes registers endpoints that are not part of the
// gateway API: dependency health and Prometheus metrics.
func registerSystemRoutes(r *echo.Echo, h *handler.Handlers) {
	r.GET("/status", h.Health.CheckHealth)
	r.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}
