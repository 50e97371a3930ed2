package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/mandawilson/smile-dashboard/internal/config"
	"github.com/mandawilson/smile-dashboard/internal/errs"
	"github.com/mandawilson/smile-dashboard/internal/server"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(rateLimit float64) *server.Server {
	logger := zerolog.Nop()
	return &server.Server{
		Config: &config.Config{
			Server: config.ServerConfig{
				CORSAllowedOrigins: []string{"https://dashboard.local"},
				RateLimit:          rateLimit,
			},
		},
		Logger: &logger,
	}
}

func newTestEcho(s *server.Server) *echo.Echo {
	e := echo.New()
	global := NewGlobalMiddlewares(s)
	e.HTTPErrorHandler = global.GlobalErrorHandler
	e.Use(RequestID(), NewContextEnhancer(s).EnhanceContext())
	return e
}

func TestRequestID(t *testing.T) {
	e := newTestEcho(newTestServer(0))
	var seen string
	e.GET("/", func(c echo.Context) error {
		seen = GetRequestID(c)
		return c.NoContent(http.StatusNoContent)
	})

	t.Run("generated", func(t *testing.T) {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.NotEmpty(t, seen)
		assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))
	})

	t.Run("propagated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "abc-123")
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.Equal(t, "abc-123", seen)
		assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
	})
}

func TestEnhanceContextStoresLogger(t *testing.T) {
	e := newTestEcho(newTestServer(0))
	e.GET("/", func(c echo.Context) error {
		assert.NotNil(t, c.Get(LoggerKey))
		assert.NotNil(t, zerolog.Ctx(c.Request().Context()))
		return c.NoContent(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestGlobalErrorHandler(t *testing.T) {
	e := newTestEcho(newTestServer(0))
	e.GET("/bad", func(c echo.Context) error {
		return errs.NewBadRequestError("Invalid billed filter", true, nil, nil, nil)
	})
	e.GET("/boom", func(c echo.Context) error {
		return assert.AnError
	})

	tests := []struct {
		path     string
		status   int
		code     string
		override bool
	}{
		{"/bad", http.StatusBadRequest, "BAD_REQUEST", true},
		{"/boom", http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", false},
		{"/missing", http.StatusNotFound, "NOT_FOUND", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.status, rec.Code)

			var body errs.HTTPError
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body.Code)
			assert.Equal(t, tt.override, body.Override)
		})
	}
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(1)
	e := newTestEcho(s)
	e.Use(NewRateLimitMiddleware(s).Limit())
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })

	codes := make([]int, 0, 4)
	for i := 0; i < 4; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, http.StatusNoContent, codes[0])
	assert.Contains(t, codes, http.StatusTooManyRequests)
}

func TestRateLimitDisabled(t *testing.T) {
	s := newTestServer(0)
	e := newTestEcho(s)
	e.Use(NewRateLimitMiddleware(s).Limit())
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })

	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	}
}
