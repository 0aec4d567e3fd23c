package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/chris/tournament-wallet/pkg/api"
	"github.com/chris/tournament-wallet/pkg/config"
	"github.com/chris/tournament-wallet/pkg/handlers"
	"github.com/chris/tournament-wallet/pkg/metrics"
	"github.com/chris/tournament-wallet/pkg/middleware"
	"github.com/chris/tournament-wallet/pkg/models"
	"github.com/chris/tournament-wallet/pkg/reconciliation"
	"github.com/chris/tournament-wallet/pkg/registration"
	"github.com/chris/tournament-wallet/pkg/storage"
	dydbstore "github.com/chris/tournament-wallet/pkg/storage/dynamodb"
	"github.com/chris/tournament-wallet/pkg/storage/memory"
	"github.com/chris/tournament-wallet/pkg/wallet"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := newStore(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to initialise storage: %v", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	walletSvc := wallet.NewService(store, m)
	coordinator := registration.NewCoordinator(store, walletSvc, m)

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(middleware.NewStructuredLogger(logger))
	router.Use(chimiddleware.Recoverer)

	ops := metrics.Handler(reg, health(store))
	router.Handle("/metrics", ops)
	router.Handle("/healthz", ops)

	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireIdentity)
		api.HandlerFromMux(handlers.NewApiHandler(walletSvc, coordinator), r)
	})

	if cfg.ReconcileInterval > 0 {
		go reconcileLoop(ctx, reconciliation.New(store, walletSvc, m), cfg)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("graceful shutdown failed", "error", err)
		}
	}()

	slog.Info("starting server", "port", cfg.HTTPPort, "storage", cfg.StorageBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func newStore(ctx context.Context, cfg config.Config) (storage.Storage, error) {
	if cfg.StorageBackend == config.BackendMemory {
		store := memory.New()
		demo := &models.Tournament{
			Id:       uuid.New().String(),
			Title:    "Local Demo Cup",
			EntryFee: 100,
			MaxSlots: 16,
			Status:   models.UPCOMING,
		}
		if err := store.CreateTournament(ctx, demo); err != nil {
			return nil, err
		}
		slog.Info("using in-memory storage", "demo_tournament_id", demo.Id)
		return store, nil
	}

	if err := cfg.RequireTables(); err != nil {
		return nil, err
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}
	return dydbstore.New(dynamodb.NewFromConfig(awsCfg),
		cfg.AccountsTable, cfg.TransactionsTable, cfg.TournamentsTable, cfg.RegistrationsTable), nil
}

// health reads the account table; a missing account still proves the store answers.
func health(store storage.Storage) metrics.HealthFunc {
	return func(ctx context.Context) error {
		_, err := store.GetAccount(ctx, "healthcheck")
		if err != nil && !errors.Is(err, storage.ErrAccountNotFound) {
			return err
		}
		return nil
	}
}

func reconcileLoop(ctx context.Context, r *reconciliation.Reconciler, cfg config.Config) {
	ticker := time.NewTicker(cfg.ReconcileInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			counts, err := r.Run(ctx, cfg.ReconcileAfter, cfg.ReconcileLookback)
			if err != nil {
				slog.ErrorContext(ctx, "reconciliation run failed", "error", err)
			}
			if len(counts) > 0 {
				slog.InfoContext(ctx, "reconciliation run finished",
					"refunded", counts[reconciliation.OutcomeRefunded],
					"registered", counts[reconciliation.OutcomeRegistered],
					"skipped", counts[reconciliation.OutcomeSkipped])
			}
		}
	}
}
