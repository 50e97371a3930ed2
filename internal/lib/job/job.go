// Package job provides background job processing using Asynq.
//
// Asynq is a Redis-backed job queue:
//   - tasks are enqueued (producer) with asynq.Client
//   - a server runs workers that process them (consumer) with asynq.Server
//   - a scheduler enqueues periodic tasks such as the Oncotree refresh
package job

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/mandawilson/smile-dashboard/internal/config"
	"github.com/mandawilson/smile-dashboard/internal/lib/email"
	"github.com/rs/zerolog"
)

// BillingMailer sends billing notifications.
type BillingMailer interface {
	SendBillingChangeEmail(ctx context.Context, to []string, change email.BillingChange) error
}

// Warmer reloads a reference cache.
type Warmer interface {
	Warm(ctx context.Context) (int, error)
}

// JobService holds the Asynq client (enqueue), server (worker execution)
// and scheduler (periodic tasks).
type JobService struct {
	Client *asynq.Client

	server    *asynq.Server
	scheduler *asynq.Scheduler
	logger    *zerolog.Logger

	refreshCron  string
	mailer       BillingMailer
	recipients   []string
	dashboardURL string
	oncotree     Warmer
}

// NewJobService creates a JobService configured to use Redis from cfg.
//
// Queue weights give "critical" tasks the larger share of the 10 workers.
func NewJobService(logger *zerolog.Logger, cfg *config.Config) *JobService {
	redisOpt := asynq.RedisClientOpt{Addr: cfg.Redis.Address}
	asynqLog := asynqLogger{logger: logger.With().Str("component", "asynq").Logger()}

	server := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 10,
		Queues: map[string]int{
			"critical": 6,
			"default":  3,
			"low":      1,
		},
		Logger: asynqLog,
	})

	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{
		Location: time.UTC,
		Logger:   asynqLog,
	})

	return &JobService{
		Client:      asynq.NewClient(redisOpt),
		server:      server,
		scheduler:   scheduler,
		logger:      logger,
		refreshCron: cfg.Oncotree.RefreshCron,
	}
}

// InitHandlers wires the dependencies the task handlers need. Billing
// emails are only sent when the integration is configured.
func (j *JobService) InitHandlers(cfg *config.Config, logger *zerolog.Logger, oncotree Warmer) {
	j.oncotree = oncotree
	j.dashboardURL = cfg.Integration.DashboardBaseURL
	if cfg.Integration.BillingEmailsEnabled() {
		j.mailer = email.NewClient(cfg, logger)
		j.recipients = cfg.Integration.BillingNotifyTo
	}
}

// Mux routes task types to handlers.
func (j *JobService) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskBillingChange, j.handleBillingChangeTask)
	mux.HandleFunc(TaskOncotreeRefresh, j.handleOncotreeRefreshTask)
	return mux
}

// Start starts the worker server and registers the periodic tasks.
func (j *JobService) Start() error {
	j.logger.Info().Msg("Starting background job server")

	if err := j.server.Start(j.Mux()); err != nil {
		return fmt.Errorf("failed to start job server: %w", err)
	}

	if j.oncotree != nil && j.refreshCron != "" {
		entryID, err := j.scheduler.Register(j.refreshCron, NewOncotreeRefreshTask())
		if err != nil {
			return fmt.Errorf("failed to schedule oncotree refresh %q: %w", j.refreshCron, err)
		}
		j.logger.Info().Str("entry_id", entryID).Str("cron", j.refreshCron).Msg("scheduled oncotree refresh")
	}

	if err := j.scheduler.Start(); err != nil {
		return fmt.Errorf("failed to start job scheduler: %w", err)
	}

	return nil
}

// Stop stops the scheduler and workers and closes the client.
func (j *JobService) Stop() {
	j.logger.Info().Msg("Stopping background job server")
	j.scheduler.Shutdown()
	j.server.Shutdown()
	if err := j.Client.Close(); err != nil {
		j.logger.Warn().Err(err).Msg("failed to close job client")
	}
}

// asynqLogger adapts zerolog to asynq.Logger.
type asynqLogger struct {
	logger zerolog.Logger
}

func (l asynqLogger) Debug(args ...interface{}) { l.logger.Debug().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Info(args ...interface{})  { l.logger.Info().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Warn(args ...interface{})  { l.logger.Warn().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Error(args ...interface{}) { l.logger.Error().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Fatal(args ...interface{}) { l.logger.Fatal().Msg(fmt.Sprint(args...)) }
