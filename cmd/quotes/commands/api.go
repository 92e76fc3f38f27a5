package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/marvey11/codescape-financial-api/internal/api"
	"github.com/marvey11/codescape-financial-api/internal/api/handlers"
	"github.com/marvey11/codescape-financial-api/pkg/redis"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the API server",
	Long: `Starts the REST API server.

Endpoints:
  GET  /health                               - Health check
  POST /api/quotes                           - Ingest quotes for one pair
  GET  /api/quotes/{isin}/{exchange}         - Stored quotes (?start=&end=)
  GET  /api/quotes/count                     - Quote counts per pair
  GET  /api/analytics/performance            - Performance quotes (?unit=&count=)
  GET  /api/analytics/rsl                    - RS Levy (?algorithm=daily|weekly)
  GET  /api/securities, /api/exchanges       - Master data
  POST /api/securities, /api/exchanges       - Create master data

Example:
  go run ./cmd/quotes api
  go run ./cmd/quotes api --port 8080 --migrate
  go run ./cmd/quotes api --store memory`,
	RunE: runAPIServer,
}

var (
	apiPort    string
	apiMigrate bool
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (default from PORT)")
	apiCmd.Flags().BoolVar(&apiMigrate, "migrate", false, "apply the database schema before serving")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	cfg, log := a.cfg, a.log

	// Override port if flag is set
	if apiPort != "" {
		cfg.Port = apiPort
	}

	if apiMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		err := a.migrate(ctx)
		cancel()
		if err != nil {
			return err
		}
		log.Info("Schema applied")
	}

	rdb, err := redis.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer rdb.Close()

	router := api.NewRouter(api.Handlers{
		Quotes:     handlers.NewQuoteHandler(a.ingest, a.ledger, a.md, a.engine, log),
		Analytics:  handlers.NewAnalyticsHandler(a.engine, log),
		MasterData: handlers.NewMasterDataHandler(a.md, log),
		Ping: func(ctx context.Context) error {
			if a.db != nil {
				if err := a.db.Ping(ctx); err != nil {
					return fmt.Errorf("database: %w", err)
				}
			}
			return rdb.Ping(ctx)
		},
	}, api.NewLimiter(cfg, rdb), log)

	server := api.New(cfg, log, router)

	// Start server with graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	log.WithFields(map[string]interface{}{
		"port":       cfg.Port,
		"store":      cfg.Store,
		"redis":      rdb.Enabled(),
		"rate_limit": cfg.RateLimit.RPS,
	}).Info("API server started")

	// Wait for interrupt signal or a failed start
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
