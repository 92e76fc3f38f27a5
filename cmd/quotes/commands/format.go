package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/marvey11/codescape-financial-api/internal/contracts"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// every command renders its result through these helpers
// ═══════════════════════════════════════════════════════════

var outputJSON bool

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printTable writes a header row and the given rows as aligned columns
func printTable(w io.Writer, header []string, rows [][]string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

func performanceRows(records []contracts.PerformanceRecord) [][]string {
	rows := make([][]string, len(records))
	for i, r := range records {
		rows[i] = []string{
			r.ISIN, r.Name, r.Exchange,
			r.LatestDate.Format(contracts.DateFormat), r.LatestPrice.String(),
			r.BaseDate.Format(contracts.DateFormat), r.BasePrice.String(),
		}
	}
	return rows
}

func rslRows(records []contracts.RSLevyRecord) [][]string {
	rows := make([][]string, len(records))
	for i, r := range records {
		rows[i] = []string{
			r.ISIN, r.Name, r.Exchange,
			r.Date.Format(contracts.DateFormat), fmt.Sprintf("%.4f", r.RSLValue),
		}
	}
	return rows
}

func countRows(counts []contracts.QuoteCount) [][]string {
	rows := make([][]string, len(counts))
	for i, c := range counts {
		rows[i] = []string{c.ISIN, c.ExchangeName, fmt.Sprintf("%d", c.Count)}
	}
	return rows
}
