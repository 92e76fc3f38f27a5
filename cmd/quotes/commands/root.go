package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	env     string
	store   string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "quotes",
	Short: "Securities quote ledger and analytics",
	Long: `Codescape Financial API

Stores historical securities quotes per (security, exchange) pair and
derives performance quotes and RS Levy indicators from them.

Usage:
  go run ./cmd/quotes [command]

Examples:
  go run ./cmd/quotes migrate
  go run ./cmd/quotes api
  go run ./cmd/quotes ingest --file quotes.json
  go run ./cmd/quotes performance --unit month --count 6
  go run ./cmd/quotes rsl --algorithm weekly`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&env, "env", "", "environment (development|staging|production), overrides ENV")
	rootCmd.PersistentFlags().StringVar(&store, "store", "", "ledger store (postgres|memory), overrides STORE")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
