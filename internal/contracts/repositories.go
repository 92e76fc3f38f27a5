package contracts

import (
	"context"
	"time"
)

// ⭐ SSOT: repository interfaces are defined here only

// DateRange is an inclusive calendar range
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether d falls inside the range
func (r DateRange) Contains(d time.Time) bool {
	return !d.Before(r.Start) && !d.After(r.End)
}

// Ledger is the quote fact store and the ground truth for all analytics
type Ledger interface {
	// UpsertBatch inserts or overwrites one quote per item. Duplicate dates
	// inside one batch resolve to the last item. The batch is atomic.
	UpsertBatch(ctx context.Context, isin string, exchangeID int64, items []Quote) error

	// Insert stores a single new quote and fails with ErrConflict if the
	// (security, exchange, date) triple already exists.
	Insert(ctx context.Context, isin string, exchangeID int64, item Quote) error

	// Query returns the quotes of one pair ordered by date ascending,
	// bounded by rng when it is non-nil.
	Query(ctx context.Context, isin string, exchangeID int64, rng *DateRange) ([]Quote, error)

	// Snapshot returns every stored quote joined with its pair identity
	Snapshot(ctx context.Context) ([]LedgerRow, error)

	// Counts returns the number of stored quotes per pair
	Counts(ctx context.Context) ([]QuoteCount, error)
}

// MasterData resolves security and exchange identities
type MasterData interface {
	SecurityByISIN(ctx context.Context, isin string) (*Security, error)
	ExchangeByID(ctx context.Context, id int64) (*Exchange, error)
	ExchangeByName(ctx context.Context, name string) (*Exchange, error)
	ListSecurities(ctx context.Context) ([]Security, error)
	ListExchanges(ctx context.Context) ([]Exchange, error)
	CreateSecurity(ctx context.Context, s Security) error
	CreateExchange(ctx context.Context, name string) (*Exchange, error)
}
