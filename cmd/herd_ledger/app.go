package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/SscSPs/herd_ledger/internal/adapters/events/kafka"
	"github.com/SscSPs/herd_ledger/internal/core/ports/events"
	portsrepo "github.com/SscSPs/herd_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/herd_ledger/internal/core/ports/services"
	"github.com/SscSPs/herd_ledger/internal/core/services"
	"github.com/SscSPs/herd_ledger/internal/platform/config"
	"github.com/SscSPs/herd_ledger/internal/platform/metrics"
	"github.com/SscSPs/herd_ledger/internal/repositories/database/memory"
	"github.com/SscSPs/herd_ledger/internal/repositories/database/pgsql"
	"github.com/SscSPs/herd_ledger/pkg/database"
)

// application wires configuration, the ledger store and the services for one command run.
type application struct {
	cfg       *config.Config
	logger    *slog.Logger
	pool      *pgxpool.Pool
	publisher events.Publisher
	metrics   *metrics.Metrics
	services  *portssvc.ServiceContainer
}

func newApplication(ctx context.Context) (*application, error) {
	logger := slog.Default()

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	app := &application{cfg: cfg, logger: logger}

	var repos portsrepo.RepositoryProvider
	switch cfg.StoreBackend {
	case "memory":
		logger.Warn("Using the in-memory ledger store; nothing will be persisted")
		repos = portsrepo.RepositoryProvider{LedgerRepo: memory.NewStore()}
	default:
		app.pool, err = database.NewPgxPool(ctx, cfg.DatabaseURL, cfg.EnableDBCheck)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database pool: %w", err)
		}
		logger.Info("Database connection pool established")
		repos = pgsql.NewRepositoryProvider(app.pool)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	app.metrics = metrics.New(registry)

	app.publisher = kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
	if len(cfg.KafkaBrokers) > 0 {
		logger.Info("Publishing ledger events", slog.String("topic", cfg.KafkaTopic), slog.Any("brokers", cfg.KafkaBrokers))
	}

	app.services = services.NewServiceContainer(cfg, repos, app.publisher, app.metrics)
	return app, nil
}

func (a *application) Close() {
	if err := a.publisher.Close(); err != nil {
		a.logger.Error("Failed to close event publisher", slog.String("error", err.Error()))
	}
	database.ClosePgxPool(a.pool)
}
