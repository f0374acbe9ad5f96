package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/klauspost/compress/gzhttp"

	httpadapter "phishdetect/internal/adapters/http"
	"phishdetect/internal/adapters/memory"
	"phishdetect/internal/adapters/natsbus"
	pg "phishdetect/internal/adapters/postgres"
	"phishdetect/internal/adapters/sqlite"
	"phishdetect/internal/config"
	"phishdetect/internal/credentials"
	"phishdetect/internal/metrics"
	"phishdetect/internal/ports"
	"phishdetect/internal/providers"
	"phishdetect/internal/services/console"
	"phishdetect/internal/services/gateway"
	"phishdetect/internal/services/store"
	"phishdetect/internal/workers/analysisrunner"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Level()}))
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.New()

	var (
		durable ports.SlotStore
		jobs    ports.JobRepository = memory.NewJobs()
	)
	switch cfg.StoreDriver {
	case config.StorePostgres:
		db, err := pg.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("db connect: %w", err)
		}
		defer db.Close()
		durable, jobs = db, db
	case config.StoreSQLite:
		db, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return fmt.Errorf("sqlite open: %w", err)
		}
		defer db.Close()
		durable = db
	default:
		durable = memory.NewSlots()
	}
	logger.Info("store driver selected", "driver", cfg.StoreDriver)

	var events ports.EventPublisher
	if cfg.NATSURL != "" {
		nc, err := natsbus.Connect(cfg.NATSURL, logger)
		if err != nil {
			return err
		}
		defer nc.Drain()
		events = natsbus.NewPublisher(nc, cfg.NATSSubject, logger)
		logger.Info("publishing scan events", "url", cfg.NATSURL, "subject", cfg.NATSSubject)
	}

	st, err := store.Open(ctx, durable, memory.NewSlots(), store.Options{
		Passphrase: cfg.DemoPassphrase,
		Logger:     logger,
		Metrics:    m,
		Events:     events,
	})
	if err != nil {
		return err
	}

	factory, err := providers.New(cfg)
	if err != nil {
		return err
	}
	creds := credentials.NewSelector(cfg.APIKey)
	if cfg.ModelProvider == config.ProviderOffline && !creds.Configured() {
		creds.Select("offline")
	}
	gw := gateway.New(factory, creds, gateway.Options{
		ThinkingBudget: int32(cfg.ThinkingBudget),
		Logger:         logger,
		Metrics:        m,
	})
	svc := console.New(gw, st, logger)

	runner := &analysisrunner.Runner{Repo: jobs, Processor: svc, Logger: logger, Metrics: m}
	if cfg.AnalysisWorkers > 0 {
		runner.Run(ctx, cfg.AnalysisWorkers, 500*time.Millisecond)
		logger.Info("analysis workers started", "count", cfg.AnalysisWorkers)
	}

	srv := httpadapter.New(svc, st, runner, creds, httpadapter.Options{
		Logger:       logger,
		Metrics:      m,
		AnalyzeRPS:   cfg.AnalyzeRPS,
		AnalyzeBurst: cfg.AnalyzeBurst,
	})
	r := chi.NewRouter()
	r.Mount("/", srv.Routes())

	httpSrv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           gzhttp.GzipHandler(r),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.ListenAndServe() }()
	logger.Info("listening", "addr", cfg.ListenAddr, "env", cfg.Env, "provider", cfg.ModelProvider, "key", creds.Masked())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig.String())
		cancel()
		shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
		defer done()
		return httpSrv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	}
}
