package main

import (
	"os"

	"github.com/marvey11/codescape-financial-api/cmd/quotes/commands"
)

// main is the entry point for the quotes CLI
// ⭐ Unified CLI entry point: go run ./cmd/quotes [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
