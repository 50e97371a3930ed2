package service

import (
	"context"

	"github.com/graphql-go/graphql"
	"github.com/mandawilson/smile-dashboard/internal/cypher"
	"github.com/mandawilson/smile-dashboard/internal/graphdb"
	"github.com/mandawilson/smile-dashboard/internal/loader"
	"github.com/mandawilson/smile-dashboard/internal/schema"
)

// Executor runs a GraphQL request whose context already carries a
// schema.RequestContext.
type Executor interface {
	Execute(ctx context.Context, req schema.Request) *graphql.Result
}

// GatewayService assembles the request context for every GraphQL request.
type GatewayService struct {
	executor Executor
	runner   graphdb.Runner
	model    *cypher.Model
	terms    loader.TermLookup
	sessions *SessionService
}

func NewGatewayService(executor Executor, runner graphdb.Runner, model *cypher.Model, terms loader.TermLookup, sessions *SessionService) *GatewayService {
	return &GatewayService{
		executor: executor,
		runner:   runner,
		model:    model,
		terms:    terms,
		sessions: sessions,
	}
}

// Execute runs req for user, who is nil for anonymous requests. Loaders
// are built fresh so no batch or cache outlives the request.
func (s *GatewayService) Execute(ctx context.Context, user *schema.User, req schema.Request) *graphql.Result {
	if user != nil {
		s.sessions.Touch(ctx, user.ID)
	}

	rc := &schema.RequestContext{
		User:            user,
		IsAuthenticated: user != nil,
		Oncotree:        s.terms,
		Loaders:         loader.New(s.runner, s.model, s.terms),
	}
	return s.executor.Execute(schema.WithRequestContext(ctx, rc), req)
}
