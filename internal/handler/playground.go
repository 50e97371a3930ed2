package handler

import (
	"net/http"

	"github.com/99designs/gqlgen/graphql/playground"
	"github.com/mandawilson/smile-dashboard/internal/server"
)

// PlaygroundTitle is shown on the landing page.
const PlaygroundTitle = "SMILE Dashboard GraphQL"

// NewPlayground returns the in-browser IDE served on GET requests to the
// GraphQL path, or nil when it is disabled. It is same-origin, so the
// browser sends the session cookie with every request.
func NewPlayground(s *server.Server) http.HandlerFunc {
	if !s.Config.Server.EnablePlayground {
		return nil
	}
	return playground.Handler(PlaygroundTitle, s.Config.Server.GraphQLPath)
}
