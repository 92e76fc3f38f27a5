package commands

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/marvey11/codescape-financial-api/internal/contracts"
)

var analyticsTimeout time.Duration

// performanceCmd represents the performance command
var performanceCmd = &cobra.Command{
	Use:   "performance",
	Short: "Latest and baseline quotes per pair",
	Long: `Pairs every entity pair's latest quote with its quote one interval earlier.
Pairs whose history does not reach back that far are left out.

Example:
  go run ./cmd/quotes performance --unit month --count 6
  go run ./cmd/quotes performance --unit year --count 1 --json`,
	RunE: runPerformance,
}

// rslCmd represents the rsl command
var rslCmd = &cobra.Command{
	Use:   "rsl",
	Short: "RS Levy indicator per pair",
	Long: `Computes the RS Levy momentum indicator.

Algorithms:
  weekly - newest weekly close against the 27 most recent weekly closes
  daily  - latest close against the mean of the 200 most recent quotes

Example:
  go run ./cmd/quotes rsl --algorithm weekly
  go run ./cmd/quotes rsl --algorithm daily --json`,
	RunE: runRSL,
}

// countCmd represents the count command
var countCmd = &cobra.Command{
	Use:   "count",
	Short: "Number of stored quotes per pair",
	RunE:  runCount,
}

var (
	perfUnit  string
	perfCount int
	rslAlgo   string
)

func init() {
	rootCmd.AddCommand(performanceCmd, rslCmd, countCmd)

	for _, c := range []*cobra.Command{performanceCmd, rslCmd, countCmd} {
		c.Flags().BoolVar(&outputJSON, "json", false, "print JSON instead of a table")
		c.Flags().DurationVar(&analyticsTimeout, "timeout", 2*time.Minute, "overall timeout")
	}

	performanceCmd.Flags().StringVar(&perfUnit, "unit", "", "interval unit (day|month|year)")
	performanceCmd.Flags().IntVar(&perfCount, "count", 1, "number of units")
	performanceCmd.MarkFlagRequired("unit")

	rslCmd.Flags().StringVar(&rslAlgo, "algorithm", string(contracts.AlgorithmWeekly), "daily or weekly")
}

func runPerformance(cmd *cobra.Command, args []string) error {
	unit, err := contracts.ParseUnit(perfUnit)
	if err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), analyticsTimeout)
	defer cancel()

	records, err := a.engine.PerformanceQuotes(ctx, contracts.Interval{Count: perfCount, Unit: unit})
	if err != nil {
		return err
	}

	if outputJSON {
		return printJSON(cmd.OutOrStdout(), records)
	}
	return printTable(cmd.OutOrStdout(),
		[]string{"ISIN", "NAME", "EXCHANGE", "LATEST DATE", "LATEST", "BASE DATE", "BASE"},
		performanceRows(records))
}

func runRSL(cmd *cobra.Command, args []string) error {
	algo, err := contracts.ParseAlgorithm(rslAlgo)
	if err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), analyticsTimeout)
	defer cancel()

	records, err := a.engine.RSLevy(ctx, algo)
	if err != nil {
		return err
	}

	if outputJSON {
		return printJSON(cmd.OutOrStdout(), records)
	}
	return printTable(cmd.OutOrStdout(),
		[]string{"ISIN", "NAME", "EXCHANGE", "DATE", "RSL"},
		rslRows(records))
}

func runCount(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), analyticsTimeout)
	defer cancel()

	counts, err := a.engine.QuoteCounts(ctx)
	if err != nil {
		return err
	}

	if outputJSON {
		return printJSON(cmd.OutOrStdout(), counts)
	}
	return printTable(cmd.OutOrStdout(), []string{"ISIN", "EXCHANGE", "COUNT"}, countRows(counts))
}
