// Package router initializes the HTTP router (using Echo).
//
// It registers the middlewares and defines the API route groups,
// mapping specific paths to their corresponding handlers
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/mandawilson/smile-dashboard/internal/handler"
	"github.com/mandawilson/smile-dashboard/internal/middleware"
	"github.com/mandawilson/smile-dashboard/internal/server"
)

// NewRouter builds the Echo instance. Global middlewares run in order for
// every request; authentication is attached per route group so the request
// logger can pick up the user id afterwards.
func NewRouter(s *server.Server, h *handler.Handlers, m *middleware.Middlewares) *echo.Echo {
	r := echo.New()
	r.HideBanner = true
	r.HidePort = true
	r.HTTPErrorHandler = m.Global.GlobalErrorHandler

	r.Use(
		m.RateLimit.Limit(),
		m.Global.CORS(),
		m.Global.Secure(),
		middleware.RequestID(),
		m.Tracing.NewRelicMiddleware(),
		m.Tracing.EnhanceTracing(),
		m.ContextEnhancer.EnhanceContext(),
		m.Global.RequestLogger(),
		m.Global.Recover(),
	)

	registerSystemRoutes(r, h)

	// Anonymous callers reach the gateway; resolvers that need a user
	// reject them with an UNAUTHENTICATED error.
	graphql := r.Group(s.Config.Server.GraphQLPath, m.Auth.Authenticate, m.ContextEnhancer.EnhanceContext())
	graphql.POST("", h.GraphQL.Post)
	graphql.GET("", h.GraphQL.Get)

	api := r.Group("/api", m.Auth.RequireAuth, m.ContextEnhancer.EnhanceContext())
	api.GET("/cohorts", h.Records.ListCohorts())
	api.GET("/cohorts/download", h.Records.DownloadCohorts())
	api.GET("/samples", h.Records.ListSamples())
	api.GET("/samples/download", h.Records.DownloadSamples())

	return r
}
