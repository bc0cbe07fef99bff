package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/fernandosserra/unython/internal/config"
	"github.com/fernandosserra/unython/internal/infra"
	"github.com/fernandosserra/unython/internal/repository"
	"github.com/fernandosserra/unython/internal/router"
	"github.com/fernandosserra/unython/internal/service"
	"github.com/fernandosserra/unython/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	infra.SetupLogger(cfg.LogLevel, cfg.IsProduction())

	if cfg.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET is required")
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := infra.RunMigrations(db); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Redis is optional: without it sales still commit, but no receipts or
	// low-stock alerts are produced.
	var (
		rdb *redis.Client
		cb  *infra.CircuitBreaker
	)
	if cfg.RedisURL != "" {
		rdb, err = infra.NewRedis(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		cb = infra.NewCircuitBreaker(infra.DefaultCBConfig("redis-jobs"))

		// Worker handlers are wired here (composition root) so that the pool
		// has full access to all infrastructure dependencies.
		dispatcher := worker.NewDispatcher(rdb, cb)
		vendaRepo := repository.NewVendaRepository(db)
		estoqueSvc := service.NewEstoqueService(db, repository.NewEstoqueRepository(db), repository.NewItemRepository(db))
		mailer := infra.NewMailer(cfg)

		pool := worker.NewPool(rdb)
		pool.Handle(worker.QueueRecibo, worker.NewReciboWorker(vendaRepo, cfg.ReciboStoragePath, emailDispatcher(mailer, dispatcher)).Process)
		pool.Handle(worker.QueueEstoque, worker.NewAlertaEstoqueWorker(estoqueSvc, rdb, cfg.EstoqueMinimoAlerta).Process)
		if mailer.Configured() {
			pool.Handle(worker.QueueEmail, worker.NewEmailWorker(mailer).Process)
		}
		pool.Start(ctx, cfg.WorkerPoolSize)
	} else {
		log.Warn().Msg("REDIS_URL not set: background jobs disabled")
	}

	r := router.New(ctx, cfg, db, rdb, cb)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("unython listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	log.Info().Msg("server exited")
}

// emailDispatcher returns the dispatcher only when SMTP is configured, so
// receipts are not queued for a mailer that does not exist.
func emailDispatcher(m *infra.Mailer, d *worker.Dispatcher) *worker.Dispatcher {
	if m.Configured() {
		return d
	}
	return nil
}
