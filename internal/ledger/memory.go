package ledger

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/marvey11/codescape-financial-api/internal/contracts"
)

// MemoryLedger is a process-local Ledger used for development and tests.
// It resolves pair identities through the supplied master data.
type MemoryLedger struct {
	md contracts.MasterData

	mu     sync.RWMutex
	quotes map[contracts.PairKey]map[time.Time]decimal.Decimal
}

// NewMemoryLedger creates an empty in-memory ledger
func NewMemoryLedger(md contracts.MasterData) *MemoryLedger {
	return &MemoryLedger{
		md:     md,
		quotes: make(map[contracts.PairKey]map[time.Time]decimal.Decimal),
	}
}

func (l *MemoryLedger) checkRefs(ctx context.Context, isin string, exchangeID int64) error {
	if _, err := l.md.SecurityByISIN(ctx, isin); err != nil {
		return err
	}
	if _, err := l.md.ExchangeByID(ctx, exchangeID); err != nil {
		return err
	}
	return nil
}

// UpsertBatch implements contracts.Ledger
func (l *MemoryLedger) UpsertBatch(ctx context.Context, isin string, exchangeID int64, items []contracts.Quote) error {
	if err := validatePrices(items); err != nil {
		return err
	}
	if err := l.checkRefs(ctx, isin, exchangeID); err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}

	items = dedupe(items)
	key := contracts.PairKey{ISIN: isin, ExchangeID: exchangeID}

	l.mu.Lock()
	defer l.mu.Unlock()

	byDate, ok := l.quotes[key]
	if !ok {
		byDate = make(map[time.Time]decimal.Decimal, len(items))
		l.quotes[key] = byDate
	}
	for _, it := range items {
		byDate[it.Date] = it.Price
	}
	return nil
}

// Insert implements contracts.Ledger
func (l *MemoryLedger) Insert(ctx context.Context, isin string, exchangeID int64, item contracts.Quote) error {
	if err := validatePrices([]contracts.Quote{item}); err != nil {
		return err
	}
	if err := l.checkRefs(ctx, isin, exchangeID); err != nil {
		return err
	}

	key := contracts.PairKey{ISIN: isin, ExchangeID: exchangeID}
	d := contracts.Day(item.Date)

	l.mu.Lock()
	defer l.mu.Unlock()

	byDate, ok := l.quotes[key]
	if !ok {
		byDate = make(map[time.Time]decimal.Decimal)
		l.quotes[key] = byDate
	}
	if _, exists := byDate[d]; exists {
		return fmt.Errorf("%w: quote for %s/%d on %s already exists",
			contracts.ErrConflict, isin, exchangeID, d.Format(contracts.DateFormat))
	}
	byDate[d] = item.Price
	return nil
}

// Query implements contracts.Ledger
func (l *MemoryLedger) Query(ctx context.Context, isin string, exchangeID int64, rng *contracts.DateRange) ([]contracts.Quote, error) {
	key := contracts.PairKey{ISIN: isin, ExchangeID: exchangeID}

	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]contracts.Quote, 0, len(l.quotes[key]))
	for d, p := range l.quotes[key] {
		if rng != nil && !rng.Contains(d) {
			continue
		}
		out = append(out, contracts.Quote{Date: d, Price: p})
	}
	sortQuotes(out)
	return out, nil
}

// Snapshot implements contracts.Ledger
func (l *MemoryLedger) Snapshot(ctx context.Context) ([]contracts.LedgerRow, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var rows []contracts.LedgerRow
	for key, byDate := range l.quotes {
		pair, err := l.pair(ctx, key)
		if err != nil {
			return nil, err
		}
		for d, p := range byDate {
			rows = append(rows, contracts.LedgerRow{
				Pair:  pair,
				Quote: contracts.Quote{Date: d, Price: p},
			})
		}
	}
	return rows, nil
}

// Counts implements contracts.Ledger
func (l *MemoryLedger) Counts(ctx context.Context) ([]contracts.QuoteCount, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	counts := make([]contracts.QuoteCount, 0, len(l.quotes))
	for key, byDate := range l.quotes {
		if len(byDate) == 0 {
			continue
		}
		pair, err := l.pair(ctx, key)
		if err != nil {
			return nil, err
		}
		counts = append(counts, contracts.QuoteCount{
			ISIN:         key.ISIN,
			ExchangeName: pair.Exchange.Name,
			Count:        int64(len(byDate)),
		})
	}

	sort.Slice(counts, func(i, j int) bool {
		if counts[i].ISIN != counts[j].ISIN {
			return counts[i].ISIN < counts[j].ISIN
		}
		return counts[i].ExchangeName < counts[j].ExchangeName
	})
	return counts, nil
}

func (l *MemoryLedger) pair(ctx context.Context, key contracts.PairKey) (contracts.Pair, error) {
	sec, err := l.md.SecurityByISIN(ctx, key.ISIN)
	if err != nil {
		return contracts.Pair{}, err
	}
	ex, err := l.md.ExchangeByID(ctx, key.ExchangeID)
	if err != nil {
		return contracts.Pair{}, err
	}
	return contracts.Pair{Security: *sec, Exchange: *ex}, nil
}

func sortQuotes(qs []contracts.Quote) {
	sort.Slice(qs, func(i, j int) bool {
		return qs[i].Date.Before(qs[j].Date)
	})
}
