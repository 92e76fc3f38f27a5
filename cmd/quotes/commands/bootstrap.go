package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/marvey11/codescape-financial-api/internal/analytics"
	"github.com/marvey11/codescape-financial-api/internal/contracts"
	"github.com/marvey11/codescape-financial-api/internal/ingest"
	"github.com/marvey11/codescape-financial-api/internal/ledger"
	"github.com/marvey11/codescape-financial-api/internal/masterdata"
	"github.com/marvey11/codescape-financial-api/pkg/config"
	"github.com/marvey11/codescape-financial-api/pkg/database"
	"github.com/marvey11/codescape-financial-api/pkg/logger"
)

// app holds the wired dependencies shared by the commands
type app struct {
	cfg    *config.Config
	log    *logger.Logger
	db     *database.DB // nil for the memory store
	md     contracts.MasterData
	ledger contracts.Ledger
	engine *analytics.Engine
	ingest *ingest.Service
}

// loadConfig applies the global flag overrides and loads the configuration
func loadConfig() (*config.Config, error) {
	if env != "" {
		os.Setenv("ENV", env)
	}
	if store != "" {
		os.Setenv("STORE", store)
	}
	if verbose {
		os.Setenv("LOG_LEVEL", "debug")
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// newApp opens the configured store and wires the services on top of it.
// The caller must Close the returned app.
func newApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	log := logger.New(cfg)

	a := &app{cfg: cfg, log: log}

	switch cfg.Store {
	case config.StoreMemory:
		md := masterdata.NewMemoryRepository()
		a.md = md
		a.ledger = ledger.NewMemoryLedger(md)
		log.Warn("Using in-memory store; data is lost on exit")

	default:
		db, err := database.New(cfg)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		a.db = db
		a.md = masterdata.NewPostgresRepository(db.Pool)
		a.ledger = ledger.NewPostgresLedger(db.Pool)
		log.Debug("Connected to database")
	}

	a.engine = analytics.NewEngine(a.ledger, cfg.Analytics.Workers, log)
	a.ingest = ingest.NewService(a.ledger, a.md, log)

	return a, nil
}

// migrate applies the schema when the store is backed by PostgreSQL
func (a *app) migrate(ctx context.Context) error {
	if a.db == nil {
		return nil
	}
	if err := a.db.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Close releases the store
func (a *app) Close() {
	if a.db != nil {
		a.db.Close()
	}
}
