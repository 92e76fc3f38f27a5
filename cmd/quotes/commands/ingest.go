package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/marvey11/codescape-financial-api/internal/ingest"
	"github.com/marvey11/codescape-financial-api/pkg/redis"
)

// ingestCmd represents the ingest command
var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest quotes from a JSON file",
	Long: `Reads one ingestion payload or an array of payloads and upserts them.

Payload:
  {"isin": "DE0007164600", "exchange": "XETRA",
   "quotes": [{"date": "2024-01-02", "quote": 120.5}]}

The exchange may be given by name or by id. Payloads are processed in order
and the command stops at the first failure. With Redis enabled, payloads are
paced by the shared ingestion rate limit.

Example:
  go run ./cmd/quotes ingest --file quotes.json
  cat quotes.json | go run ./cmd/quotes ingest --file -`,
	RunE: runIngest,
}

var (
	ingestFile    string
	ingestTimeout time.Duration
)

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().StringVarP(&ingestFile, "file", "f", "", "payload file, - for stdin")
	ingestCmd.Flags().DurationVar(&ingestTimeout, "timeout", 5*time.Minute, "overall timeout")
	ingestCmd.MarkFlagRequired("file")
}

func runIngest(cmd *cobra.Command, args []string) error {
	var r io.Reader = cmd.InOrStdin()
	if ingestFile != "-" {
		f, err := os.Open(ingestFile)
		if err != nil {
			return fmt.Errorf("open payload: %w", err)
		}
		defer f.Close()
		r = f
	}

	reqs, err := ingest.Decode(r)
	if err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	rdb, err := redis.New(a.cfg)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer rdb.Close()
	if rdb.Enabled() {
		limit := redis.IngestRateLimit(a.cfg.RateLimit.RPS).For("cli")
		a.ingest.WithThrottle(redis.NewRateLimiter(rdb, "quotes").Pacer(limit))
	}

	ctx, cancel := context.WithTimeout(context.Background(), ingestTimeout)
	defer cancel()

	results, err := a.ingest.IngestAll(ctx, reqs)
	for _, res := range results {
		fmt.Fprintf(cmd.OutOrStdout(), "✅ %s @ %s: %d quotes\n", res.ISIN, res.Exchange, res.Stored)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\n%d payloads ingested\n", len(results))
	return nil
}
