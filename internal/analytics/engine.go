// Package analytics reduces the quote ledger into performance quotes and
// RS Levy indicators.
//
// Every call takes a fresh ledger snapshot, groups it once per entity pair and
// evaluates the pairs independently and in parallel. A pair without enough
// history, or whose window degenerates to a zero denominator, is left out of
// the result; it never fails the whole computation.
package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/marvey11/codescape-financial-api/internal/contracts"
	"github.com/marvey11/codescape-financial-api/internal/window"
	"github.com/marvey11/codescape-financial-api/pkg/logger"
)

// Engine computes derived analytics from a Ledger
// ⭐ SSOT: analytics reductions live here only
type Engine struct {
	ledger  contracts.Ledger
	workers int
	logger  *logger.Logger
}

// NewEngine creates a new analytics engine. workers bounds the number of
// pairs evaluated concurrently.
func NewEngine(ledger contracts.Ledger, workers int, log *logger.Logger) *Engine {
	if workers < 1 {
		workers = 1
	}
	return &Engine{
		ledger:  ledger,
		workers: workers,
		logger:  log.WithField("module", "analytics"),
	}
}

// PerformanceQuotes pairs each entity pair's latest quote with its baseline
// quote one interval earlier.
func (e *Engine) PerformanceQuotes(ctx context.Context, iv contracts.Interval) ([]contracts.PerformanceRecord, error) {
	if err := iv.Validate(); err != nil {
		return nil, err
	}

	series, err := e.load(ctx)
	if err != nil {
		return nil, err
	}

	records, err := evaluate(ctx, series, e.workers, func(s contracts.Series) (contracts.PerformanceRecord, bool, error) {
		latest, ok := s.Latest()
		if !ok {
			return contracts.PerformanceRecord{}, false, nil
		}

		base, ok, err := window.Baseline(s.Quotes, latest.Date, iv)
		if err != nil || !ok {
			return contracts.PerformanceRecord{}, false, err
		}

		return contracts.PerformanceRecord{
			ISIN:           s.Pair.Security.ISIN,
			Name:           s.Pair.Security.Name,
			InstrumentType: s.Pair.Security.InstrumentType,
			Exchange:       s.Pair.Exchange.Name,
			LatestDate:     latest.Date,
			LatestPrice:    latest.Price,
			BaseDate:       base.Date,
			BasePrice:      base.Price,
		}, true, nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.WithFields(map[string]interface{}{
		"interval": iv.String(),
		"pairs":    len(series),
		"records":  len(records),
	}).Info("Performance quotes computed")

	return records, nil
}

// RSLevy computes the RS Levy indicator with the given algorithm
func (e *Engine) RSLevy(ctx context.Context, algo contracts.Algorithm) ([]contracts.RSLevyRecord, error) {
	var reduce func(contracts.Series) (contracts.RSLevyRecord, bool)
	switch algo {
	case contracts.AlgorithmWeekly:
		reduce = e.weeklyRSL
	case contracts.AlgorithmDaily:
		reduce = e.dailyRSL
	default:
		return nil, fmt.Errorf("%w: unknown RS Levy algorithm %q", contracts.ErrInvalidArgument, algo)
	}

	series, err := e.load(ctx)
	if err != nil {
		return nil, err
	}

	records, err := evaluate(ctx, series, e.workers, func(s contracts.Series) (contracts.RSLevyRecord, bool, error) {
		r, ok := reduce(s)
		return r, ok, nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.WithFields(map[string]interface{}{
		"algorithm": string(algo),
		"pairs":     len(series),
		"records":   len(records),
	}).Info("RS Levy computed")

	return records, nil
}

// QuoteCounts returns the number of stored quotes per entity pair
func (e *Engine) QuoteCounts(ctx context.Context) ([]contracts.QuoteCount, error) {
	counts, err := e.ledger.Counts(ctx)
	if err != nil {
		return nil, fmt.Errorf("count quotes: %w", err)
	}
	return counts, nil
}

// weeklyRSL = newest weekly close * 27 / sum of the 27 newest weekly closes
func (e *Engine) weeklyRSL(s contracts.Series) (contracts.RSLevyRecord, bool) {
	closes, ok := window.WeeklyCloses(s.Quotes)
	if !ok {
		return contracts.RSLevyRecord{}, false
	}

	newest := closes[0]
	value, ok := e.ratio(s.Pair, newest.Price, closes, contracts.AlgorithmWeekly)
	if !ok {
		return contracts.RSLevyRecord{}, false
	}
	return rslRecord(s.Pair, newest.Date, value), true
}

// dailyRSL = latest close / mean of the 200 most recent quotes
func (e *Engine) dailyRSL(s contracts.Series) (contracts.RSLevyRecord, bool) {
	quotes, ok := window.DailyWindow(s.Quotes)
	if !ok {
		return contracts.RSLevyRecord{}, false
	}

	latest := quotes[0]
	value, ok := e.ratio(s.Pair, latest.Price, quotes, contracts.AlgorithmDaily)
	if !ok {
		return contracts.RSLevyRecord{}, false
	}
	return rslRecord(s.Pair, latest.Date, value), true
}

// ratio returns price / mean(window) computed as price * n / sum to keep a
// single rounding step. A zero sum drops the pair with a warning.
func (e *Engine) ratio(pair contracts.Pair, price decimal.Decimal, quotes []contracts.Quote, algo contracts.Algorithm) (float64, bool) {
	sum := decimal.Zero
	for _, q := range quotes {
		sum = sum.Add(q.Price)
	}

	if sum.IsZero() {
		e.logger.WithPair(pair.Security.ISIN, pair.Exchange.Name).
			WithField("algorithm", string(algo)).
			Warn("Skipping pair with all-zero price window")
		return 0, false
	}

	n := decimal.NewFromInt(int64(len(quotes)))
	return price.Mul(n).Div(sum).InexactFloat64(), true
}

func rslRecord(pair contracts.Pair, date time.Time, value float64) contracts.RSLevyRecord {
	return contracts.RSLevyRecord{
		ISIN:           pair.Security.ISIN,
		Name:           pair.Security.Name,
		InstrumentType: pair.Security.InstrumentType,
		Exchange:       pair.Exchange.Name,
		Date:           date,
		RSLValue:       value,
	}
}

// load takes a ledger snapshot and groups it per entity pair
func (e *Engine) load(ctx context.Context) ([]contracts.Series, error) {
	rows, err := e.ledger.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("load ledger snapshot: %w", err)
	}
	return groupByPair(rows), nil
}

// evaluate runs fn for every series with at most workers in flight and keeps
// the results fn accepts, in input order.
func evaluate[T any](ctx context.Context, series []contracts.Series, workers int, fn func(contracts.Series) (T, bool, error)) ([]T, error) {
	type slot struct {
		value T
		ok    bool
	}
	slots := make([]slot, len(series))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := range series {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			v, ok, err := fn(series[i])
			if err != nil {
				return err
			}
			slots[i] = slot{value: v, ok: ok}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]T, 0, len(series))
	for _, s := range slots {
		if s.ok {
			out = append(out, s.value)
		}
	}
	return out, nil
}
