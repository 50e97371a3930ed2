// Package server defines the Server container that composes the gateway's
// main dependencies.
//
// It owns the lifecycle of:
//   - configuration
//   - logger + optional New Relic service wrapper
//   - PostgreSQL pool and Neo4j driver
//   - the process-wide Oncotree cache
//   - redis client
//   - background job worker server (asynq)
//   - http.Server
package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/mandawilson/smile-dashboard/internal/config"
	"github.com/mandawilson/smile-dashboard/internal/database"
	"github.com/mandawilson/smile-dashboard/internal/graphdb"
	"github.com/mandawilson/smile-dashboard/internal/lib/job"
	"github.com/mandawilson/smile-dashboard/internal/oncotree"
	"github.com/newrelic/go-agent/v3/integrations/nrredis-v9"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	loggerPkg "github.com/mandawilson/smile-dashboard/internal/logger"
)

// Server is the application container that holds shared resources. It is
// not the HTTP server itself.
type Server struct {
	Config        *config.Config
	Logger        *zerolog.Logger
	LoggerService *loggerPkg.LoggerService

	// DB backs the relational subschema.
	DB *database.Database

	// Graph backs the graph subschema.
	Graph *graphdb.Client

	// Oncotree is shared by every request; it is the only process-wide
	// mutable state.
	Oncotree *oncotree.Cache

	Redis *redis.Client
	Job   *job.JobService

	httpServer *http.Server
}

// New constructs a Server and initializes core dependencies.
//
// Postgres and Neo4j failures block startup. Redis is optional: session
// tracking degrades to a no-op when it is down, while the job queue keeps
// retrying in the background.
func New(cfg *config.Config, logger *zerolog.Logger, loggerService *loggerPkg.LoggerService) (*Server, error) {
	db, err := database.New(cfg, logger, loggerService)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	graph, err := graphdb.New(cfg.Neo4j, logger, cfg.Observability.Logging.SlowQueryThreshold)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize neo4j: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Address,
	})
	if loggerService.GetApplication() != nil {
		redisClient.AddHook(nrredis.NewHook(redisClient.Options()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Error().Err(err).Msg("Failed to connect to Redis, continuing without session tracking")
	}

	cache := oncotree.NewCache(
		oncotree.NewClient(cfg.Oncotree.BaseURL, logger),
		cfg.Oncotree.TTL,
		logger,
	)

	jobService := job.NewJobService(logger, cfg)
	jobService.InitHandlers(cfg, logger, cache)

	if err := jobService.Start(); err != nil {
		_ = graph.Close(context.Background())
		db.Close()
		return nil, err
	}

	return &Server{
		Config:        cfg,
		Logger:        logger,
		LoggerService: loggerService,
		DB:            db,
		Graph:         graph,
		Oncotree:      cache,
		Redis:         redisClient,
		Job:           jobService,
	}, nil
}

// WarmOncotree loads the taxonomy once. A failure is logged and the gateway
// keeps running with empty cancer types until the scheduled refresh works.
func (s *Server) WarmOncotree(ctx context.Context) {
	n, err := s.Oncotree.Warm(ctx)
	if err != nil {
		s.Logger.Warn().Err(err).Msg("oncotree warm-up failed, cancer types unavailable until next refresh")
		return
	}
	s.Logger.Info().Int("terms", n).Msg("oncotree cache warmed")
}

// SetupHTTPServer configures the internal net/http server. Config timeouts
// are whole seconds.
func (s *Server) SetupHTTPServer(handler http.Handler) {
	s.httpServer = &http.Server{
		Addr:         ":" + s.Config.Server.Port,
		Handler:      handler,
		ReadTimeout:  time.Duration(s.Config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.Config.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(s.Config.Server.IdleTimeout) * time.Second,
	}

	if s.Config.Server.TLSEnabled() {
		s.httpServer.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
}

// Start runs the HTTP server until it stops. It serves HTTPS when the
// certificate and key files are configured.
func (s *Server) Start() error {
	if s.httpServer == nil {
		return errors.New("HTTP server not initialized")
	}

	tlsEnabled := s.Config.Server.TLSEnabled()
	s.Logger.Info().
		Str("port", s.Config.Server.Port).
		Str("env", s.Config.Primary.Env).
		Bool("tls", tlsEnabled).
		Msg("starting server")

	if tlsEnabled {
		return s.httpServer.ListenAndServeTLS(s.Config.Server.TLSCertFile, s.Config.Server.TLSKeyFile)
	}
	return s.httpServer.ListenAndServe()
}

// Shutdown stops the HTTP server, then the jobs, then the stores.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown HTTP server: %w", err)
		}
	}

	if s.Job != nil {
		s.Job.Stop()
	}

	var errList []error
	if err := s.Graph.Close(ctx); err != nil {
		errList = append(errList, fmt.Errorf("failed to close neo4j driver: %w", err))
	}
	if err := s.DB.Close(); err != nil {
		errList = append(errList, fmt.Errorf("failed to close database connection: %w", err))
	}
	if err := s.Redis.Close(); err != nil {
		errList = append(errList, fmt.Errorf("failed to close redis client: %w", err))
	}

	return errors.Join(errList...)
}
