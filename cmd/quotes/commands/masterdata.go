package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/marvey11/codescape-financial-api/internal/contracts"
)

// securityCmd groups the security master data commands
var securityCmd = &cobra.Command{
	Use:   "security",
	Short: "Manage securities",
}

var securityAddCmd = &cobra.Command{
	Use:   "add <isin> <name>",
	Short: "Register a security",
	Args:  cobra.ExactArgs(2),
	Example: `  go run ./cmd/quotes security add DE0007164600 "SAP SE" --type share`,
	RunE: runSecurityAdd,
}

var securityListCmd = &cobra.Command{
	Use:   "list",
	Short: "List securities",
	RunE:  runSecurityList,
}

// exchangeCmd groups the exchange master data commands
var exchangeCmd = &cobra.Command{
	Use:   "exchange",
	Short: "Manage exchanges",
}

var exchangeAddCmd = &cobra.Command{
	Use:     "add <name>",
	Short:   "Register an exchange",
	Args:    cobra.ExactArgs(1),
	Example: `  go run ./cmd/quotes exchange add XETRA`,
	RunE:    runExchangeAdd,
}

var exchangeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List exchanges",
	RunE:  runExchangeList,
}

var securityType string

func init() {
	rootCmd.AddCommand(securityCmd, exchangeCmd)
	securityCmd.AddCommand(securityAddCmd, securityListCmd)
	exchangeCmd.AddCommand(exchangeAddCmd, exchangeListCmd)

	securityAddCmd.Flags().StringVar(&securityType, "type", "share", "instrument type")
}

func runSecurityAdd(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	sec := contracts.Security{
		ISIN:           strings.ToUpper(args[0]),
		Name:           args[1],
		InstrumentType: securityType,
	}
	if err := a.md.CreateSecurity(ctx, sec); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✅ Security %s registered\n", sec.ISIN)
	return nil
}

func runSecurityList(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	securities, err := a.md.ListSecurities(ctx)
	if err != nil {
		return err
	}

	rows := make([][]string, len(securities))
	for i, s := range securities {
		rows[i] = []string{s.ISIN, s.Name, s.InstrumentType}
	}
	return printTable(cmd.OutOrStdout(), []string{"ISIN", "NAME", "TYPE"}, rows)
}

func runExchangeAdd(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	ex, err := a.md.CreateExchange(ctx, args[0])
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✅ Exchange %s registered with id %d\n", ex.Name, ex.ID)
	return nil
}

func runExchangeList(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exchanges, err := a.md.ListExchanges(ctx)
	if err != nil {
		return err
	}

	rows := make([][]string, len(exchanges))
	for i, e := range exchanges {
		rows[i] = []string{fmt.Sprintf("%d", e.ID), e.Name}
	}
	return printTable(cmd.OutOrStdout(), []string{"ID", "NAME"}, rows)
}
