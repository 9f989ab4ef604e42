package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	accountservice "agora/contexts/identity-access/account-service"
	accountpostgres "agora/contexts/identity-access/account-service/adapters/postgres"
	polllifecycle "agora/contexts/voting/poll-lifecycle"
	votingpostgres "agora/contexts/voting/poll-lifecycle/adapters/postgres"
	"agora/internal/platform/config"
	"agora/internal/platform/db"
	"agora/internal/platform/httpserver"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	pollRepo := votingpostgres.NewRepository(pg.DB, logger)
	if err := pollRepo.Migrate(); err != nil {
		_ = pg.Close()
		return nil, err
	}
	votingModule := polllifecycle.NewModule(polllifecycle.Dependencies{
		Polls:   pollRepo,
		Ballots: pollRepo,
		Clock:   votingpostgres.SystemClock{},
		IDGen:   votingpostgres.UUIDGenerator{},
		Logger:  logger,
	})

	accountRepo := accountpostgres.NewRepository(pg.DB, logger)
	if err := accountRepo.Migrate(); err != nil {
		_ = pg.Close()
		return nil, err
	}
	accountModule := accountservice.NewModule(accountservice.Dependencies{
		Accounts:   accountRepo,
		Sessions:   accountRepo,
		Clock:      accountpostgres.SystemClock{},
		IDGen:      accountpostgres.UUIDGenerator{},
		SessionTTL: cfg.SessionTTL,
		Logger:     logger,
	})

	server := httpserver.New(votingModule, accountModule, logger, normalizeAddr(cfg.HTTPPort))
	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
