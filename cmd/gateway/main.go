package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mandawilson/smile-dashboard/internal/config"
	"github.com/mandawilson/smile-dashboard/internal/database"
	"github.com/mandawilson/smile-dashboard/internal/handler"
	"github.com/mandawilson/smile-dashboard/internal/logger"
	"github.com/mandawilson/smile-dashboard/internal/middleware"
	"github.com/mandawilson/smile-dashboard/internal/repository"
	"github.com/mandawilson/smile-dashboard/internal/router"
	"github.com/mandawilson/smile-dashboard/internal/server"
	"github.com/mandawilson/smile-dashboard/internal/service"
)

const (
	DefaultContextTimeout = 30 * time.Second
	oncotreeWarmTimeout   = time.Minute
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	loggerService := logger.NewLoggerService(cfg.Observability)
	defer loggerService.Shutdown()

	log := logger.NewLoggerWithService(cfg.Observability, loggerService)

	if err := database.Migrate(context.Background(), &log, cfg); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	srv, err := server.New(cfg, &log, loggerService)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize server")
	}

	warmCtx, cancelWarm := context.WithTimeout(context.Background(), oncotreeWarmTimeout)
	srv.WarmOncotree(warmCtx)
	cancelWarm()

	repos := repository.NewRepositories(srv)
	services, err := service.NewServices(srv, repos)
	if err != nil {
		log.Fatal().Err(err).Msg("could not create services")
	}

	handlers := handler.NewHandlers(srv, services)
	r := router.NewRouter(srv, handlers, middleware.NewMiddlewares(srv))

	srv.SetupHTTPServer(r)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultContextTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
