package service

import (
	"fmt"

	"github.com/mandawilson/smile-dashboard/internal/cypher"
	"github.com/mandawilson/smile-dashboard/internal/lib/job"
	"github.com/mandawilson/smile-dashboard/internal/repository"
	"github.com/mandawilson/smile-dashboard/internal/schema"
	"github.com/mandawilson/smile-dashboard/internal/server"
)

type Services struct {
	Gateway  *GatewayService
	Records  *RecordsService
	Sessions *SessionService
	Job      *job.JobService
}

// NewServices builds the merged schema from the graph and relational
// subschemas and the services around it.
func NewServices(s *server.Server, repos *repository.Repositories) (*Services, error) {
	model := cypher.SmileModel()

	graph, err := schema.NewGraphSubschema(schema.GraphConfig{
		Runner:   s.Graph,
		Model:    model,
		Notifier: NewBillingNotifier(s.Job),
		Logger:   s.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build graph schema: %w", err)
	}

	gateway, err := schema.NewGateway(graph, schema.NewRelationalSubschema(repos.PatientIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to merge schemas: %w", err)
	}
	gateway.TrackOperations(CohortRecordsOperation, SampleRecordsOperation)

	sessions := NewSessionService(s.Redis, s.Config.Auth.SessionIdleTimeout, s.Logger)
	gatewayService := NewGatewayService(gateway, s.Graph, model, s.Oncotree, sessions)

	return &Services{
		Gateway:  gatewayService,
		Records:  NewRecordsService(gatewayService),
		Sessions: sessions,
		Job:      s.Job,
	}, nil
}
