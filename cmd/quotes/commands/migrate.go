package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/marvey11/codescape-financial-api/pkg/config"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema",
	Long: `Creates the securities, exchanges and quotes tables if they do not exist.
Every statement is idempotent, so the command is safe to run repeatedly.

Example:
  go run ./cmd/quotes migrate`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if a.cfg.Store != config.StorePostgres {
		return fmt.Errorf("migrate requires STORE=%s, got %s", config.StorePostgres, a.cfg.Store)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := a.migrate(ctx); err != nil {
		return err
	}

	a.log.Info("Schema applied")
	fmt.Fprintln(cmd.OutOrStdout(), "✅ Schema applied")
	return nil
}
