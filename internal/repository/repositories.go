// Package repository handles all interactions with the PostgreSQL store.
//
// It contains raw SQL queries and methods to fetch, persist,
// or update data, abstracting SQL logic away from the service layer.
package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/mandawilson/smile-dashboard/internal/server"
)

// Querier is the subset of pgxpool.Pool the repositories use.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Repositories is a container for all repository instances.
type Repositories struct {
	PatientIDs *PatientIDRepository
}

// NewRepositories constructs the repository container around the server's
// pool.
func NewRepositories(s *server.Server) *Repositories {
	return &Repositories{
		PatientIDs: NewPatientIDRepository(s.DB.Pool),
	}
}
