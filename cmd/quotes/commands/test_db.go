package commands

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/cobra"

	"github.com/marvey11/codescape-financial-api/pkg/database"
)

// testDBCmd represents the test-db command
var testDBCmd = &cobra.Command{
	Use:   "test-db",
	Short: "Test the PostgreSQL connection",
	Long: `Tests the database connection and prints pool statistics.

Example:
  go run ./cmd/quotes test-db
  go run ./cmd/quotes test-db --env production`,
	RunE: runTestDB,
}

func init() {
	rootCmd.AddCommand(testDBCmd)
}

func runTestDB(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "=== Database Connection Test ===")

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("❌ Failed to load config: %w", err)
	}
	fmt.Fprintf(out, "✅ Config loaded (ENV: %s)\n", cfg.Env)
	fmt.Fprintf(out, "   Database URL: %s\n\n", maskPassword(cfg.Database.URL))

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("❌ Failed to connect to database: %w", err)
	}
	defer db.Close()
	fmt.Fprintln(out, "✅ Database connection established")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	status, err := db.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("❌ Health check failed: %w", err)
	}

	fmt.Fprintln(out, "✅ Health Check Results:")
	fmt.Fprintf(out, "   Healthy: %v\n", status.Healthy)
	fmt.Fprintf(out, "   Response Time: %v\n", status.ResponseTime)
	fmt.Fprintf(out, "   Timestamp: %v\n\n", status.Timestamp.Format(time.RFC3339))

	fmt.Fprintln(out, "📊 Connection Pool Statistics:")
	fmt.Fprintf(out, "   Max Connections: %d\n", status.Stats.MaxConns)
	fmt.Fprintf(out, "   Total Connections: %d\n", status.Stats.TotalConns)
	fmt.Fprintf(out, "   Acquired Connections: %d\n", status.Stats.AcquiredConns)
	fmt.Fprintf(out, "   Idle Connections: %d\n", status.Stats.IdleConns)
	fmt.Fprintf(out, "   Acquire Count: %d\n", status.Stats.AcquireCount)
	fmt.Fprintf(out, "   Acquire Duration: %v\n", status.Stats.AcquireDuration)

	return nil
}

// maskPassword hides the password of a connection URL
func maskPassword(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	return u.Redacted()
}
