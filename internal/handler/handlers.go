package handler

import (
	"github.com/mandawilson/smile-dashboard/internal/server"
	"github.com/mandawilson/smile-dashboard/internal/service"
)

// Handlers groups all HTTP handlers so the router receives one object.
type Handlers struct {
	Health  *HealthHandler
	GraphQL *GraphQLHandler
	Records *RecordsHandler
}

func NewHandlers(s *server.Server, services *service.Services) *Handlers {
	return &Handlers{
		Health:  NewHealthHandler(s),
		GraphQL: NewGraphQLHandler(s, services.Gateway, NewPlayground(s)),
		Records: NewRecordsHandler(s, services.Records),
	}
}
