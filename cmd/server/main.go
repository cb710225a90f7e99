package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dzn7/meuburguer-sub000/internal/config"
	"github.com/dzn7/meuburguer-sub000/internal/infra"
	"github.com/dzn7/meuburguer-sub000/internal/notify"
	"github.com/dzn7/meuburguer-sub000/internal/realtime"
	"github.com/dzn7/meuburguer-sub000/internal/repository"
	"github.com/dzn7/meuburguer-sub000/internal/router"
	"github.com/dzn7/meuburguer-sub000/internal/service"
	"github.com/dzn7/meuburguer-sub000/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

func main() {
	// Structured logger — dev: pretty, prod: JSON
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── Composition root ─────────────────────────────────────────────────────
	// The register service, sync engine and repositories are shared between
	// the HTTP surface, the realtime event router, the polling fallback and
	// the worker pool, so everything is wired once here.
	feedCB := infra.NewCircuitBreaker(infra.DefaultCBConfig())
	feedClient := infra.NewOrderFeedClient(cfg.OrderFeedURL, feedCB)
	mailer := infra.NewMailer(cfg)

	registerRepo := repository.NewRegisterRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	staffRepo := repository.NewStaffRepository(db)

	notifier := notify.LogSink{}
	syncEngine := service.NewSyncEngine(registerRepo, categoryRepo, notifier)
	publisher := realtime.NewPublisher(rdb)
	dispatcher := worker.NewDispatcher(rdb)

	registerSvc := service.NewRegisterService(registerRepo, syncEngine, feedClient, notifier, dispatcher, publisher)

	// Async close-report pool (PDF render + summary mail)
	handlers := worker.Handlers{
		CloseReport: worker.NewReportWorker(
			registerRepo,
			mailer,
			rdb,
			cfg.PDFStoragePath,
			cfg.ManagerEmail,
			decimal.NewFromFloat(cfg.DiscrepancyAlertAmount),
		),
	}
	worker.StartWorkerPool(ctx, rdb, handlers, cfg.WorkerPoolSize)

	// Realtime: pub/sub event stream plus the coarse polling fallback. Both
	// converge on the same idempotent sync path.
	eventRouter := realtime.NewEventRouter(rdb, syncEngine, registerRepo)
	eventRouter.Start(ctx)
	realtime.StartPoller(ctx, registerSvc, time.Duration(cfg.PollIntervalSeconds)*time.Second)

	r := router.New(cfg, db, rdb, feedCB, router.Deps{
		Register:     registerSvc,
		RegisterRepo: registerRepo,
		CategoryRepo: categoryRepo,
		StaffRepo:    staffRepo,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("register ledger listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}
