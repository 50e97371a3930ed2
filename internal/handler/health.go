package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/mandawilson/smile-dashboard/internal/middleware"
	"github.com/mandawilson/smile-dashboard/internal/server"
)

// Pinger is a dependency the status endpoint can probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

type HealthHandler struct {
	Handler
	checks map[string]Pinger
}

// NewHealthHandler probes the server's stores. Only checks enabled in the
// observability config are registered.
func NewHealthHandler(s *server.Server) *HealthHandler {
	available := map[string]Pinger{}
	if s.DB != nil {
		available["database"] = s.DB
	}
	if s.Graph != nil {
		available["neo4j"] = s.Graph
	}
	if s.Redis != nil {
		available["redis"] = PingFunc(func(ctx context.Context) error { return s.Redis.Ping(ctx).Err() })
	}
	if s.Oncotree != nil {
		available["oncotree"] = s.Oncotree
	}
	return NewHealthHandlerWithChecks(s, available)
}

// NewHealthHandlerWithChecks registers the enabled subset of checks.
func NewHealthHandlerWithChecks(s *server.Server, available map[string]Pinger) *HealthHandler {
	checks := make(map[string]Pinger, len(available))
	for name, p := range available {
		if s.Config.Observability.HealthCheckEnabled(name) {
			checks[name] = p
		}
	}
	return &HealthHandler{Handler: NewHandler(s), checks: checks}
}

// CheckHealth answers 200 when every check passes and 503 otherwise.
func (h *HealthHandler) CheckHealth(c echo.Context) error {
	start := time.Now()
	logger := middleware.GetLogger(c).With().Str("operation", "health_check").Logger()

	results := make(map[string]interface{}, len(h.checks))
	isHealthy := true

	for name, check := range h.checks {
		ctx, cancel := context.WithTimeout(c.Request().Context(), h.server.Config.Observability.HealthChecks.Timeout)
		checkStart := time.Now()
		err := check.Ping(ctx)
		cancel()

		if err != nil {
			isHealthy = false
			results[name] = map[string]interface{}{
				"status":        "unhealthy",
				"response_time": time.Since(checkStart).String(),
				"error":         err.Error(),
			}
			logger.Error().Err(err).Str("check", name).Dur("response_time", time.Since(checkStart)).Msg("health check failed")
			h.recordFailure(name, time.Since(checkStart), err)
			continue
		}

		results[name] = map[string]interface{}{
			"status":        "healthy",
			"response_time": time.Since(checkStart).String(),
		}
	}

	response := map[string]interface{}{
		"status":      "healthy",
		"timestamp":   time.Now().UTC(),
		"environment": h.server.Config.Primary.Env,
		"checks":      results,
	}

	if !isHealthy {
		response["status"] = "unhealthy"
		logger.Warn().Dur("total_duration", time.Since(start)).Msg("health check failed")
		return c.JSON(http.StatusServiceUnavailable, response)
	}

	logger.Debug().Dur("total_duration", time.Since(start)).Msg("health check passed")
	return c.JSON(http.StatusOK, response)
}

func (h *HealthHandler) recordFailure(check string, elapsed time.Duration, err error) {
	app := h.server.LoggerService.GetApplication()
	if app == nil {
		return
	}
	app.RecordCustomEvent("HealthCheckError", map[string]interface{}{
		"check_type":       check,
		"operation":        "health_check",
		"error_type":       check + "_unhealthy",
		"response_time_ms": elapsed.Milliseconds(),
		"error_message":    err.Error(),
	})
}
