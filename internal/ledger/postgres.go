package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/marvey11/codescape-financial-api/internal/contracts"
)

// PostgreSQL error codes mapped onto the error taxonomy
const (
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"
	pgCheckViolation      = "23514"
)

// PostgresLedger implements contracts.Ledger on the quotes table
// ⭐ SSOT: quote persistence lives here only
type PostgresLedger struct {
	pool *pgxpool.Pool
}

// NewPostgresLedger creates a new ledger backed by pool
func NewPostgresLedger(pool *pgxpool.Pool) *PostgresLedger {
	return &PostgresLedger{pool: pool}
}

// mapError translates constraint violations into the shared taxonomy
func mapError(err error, isin string, exchangeID int64) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgForeignKeyViolation:
		return fmt.Errorf("%w: security %s or exchange %d", contracts.ErrNotFound, isin, exchangeID)
	case pgUniqueViolation:
		return fmt.Errorf("%w: %s", contracts.ErrConflict, pgErr.Detail)
	case pgCheckViolation:
		return fmt.Errorf("%w: %s", contracts.ErrInvalidArgument, pgErr.Message)
	default:
		return err
	}
}

// checkRefs reports ErrNotFound for an unknown security or exchange. Writes
// rely on the foreign keys instead.
func (r *PostgresLedger) checkRefs(ctx context.Context, isin string, exchangeID int64) error {
	var hasSecurity, hasExchange bool
	err := r.pool.QueryRow(ctx, `
		SELECT
			EXISTS (SELECT 1 FROM securities WHERE isin = $1),
			EXISTS (SELECT 1 FROM exchanges WHERE id = $2)
	`, isin, exchangeID).Scan(&hasSecurity, &hasExchange)
	if err != nil {
		return fmt.Errorf("check references: %w", err)
	}

	if !hasSecurity {
		return fmt.Errorf("%w: security %s", contracts.ErrNotFound, isin)
	}
	if !hasExchange {
		return fmt.Errorf("%w: exchange %d", contracts.ErrNotFound, exchangeID)
	}
	return nil
}

// UpsertBatch implements contracts.Ledger. All items are applied in one
// transaction; in-batch duplicates are collapsed to the last value first.
func (r *PostgresLedger) UpsertBatch(ctx context.Context, isin string, exchangeID int64, items []contracts.Quote) error {
	if err := validatePrices(items); err != nil {
		return err
	}
	if len(items) == 0 {
		return r.checkRefs(ctx, isin, exchangeID)
	}
	items = dedupe(items)

	query := `
		INSERT INTO quotes (isin, exchange_id, quote_date, price, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (isin, exchange_id, quote_date) DO UPDATE SET
			price = EXCLUDED.price,
			updated_at = NOW()
	`

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, it := range items {
		batch.Queue(query, isin, exchangeID, it.Date, it.Price)
	}

	results := tx.SendBatch(ctx, batch)
	for range items {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("upsert quotes for %s/%d: %w", isin, exchangeID, mapError(err, isin, exchangeID))
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("close batch: %w", mapError(err, isin, exchangeID))
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// Insert implements contracts.Ledger
func (r *PostgresLedger) Insert(ctx context.Context, isin string, exchangeID int64, item contracts.Quote) error {
	if err := validatePrices([]contracts.Quote{item}); err != nil {
		return err
	}

	query := `
		INSERT INTO quotes (isin, exchange_id, quote_date, price)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.pool.Exec(ctx, query, isin, exchangeID, contracts.Day(item.Date), item.Price)
	if err != nil {
		return fmt.Errorf("insert quote for %s/%d: %w", isin, exchangeID, mapError(err, isin, exchangeID))
	}
	return nil
}

// Query implements contracts.Ledger
func (r *PostgresLedger) Query(ctx context.Context, isin string, exchangeID int64, rng *contracts.DateRange) ([]contracts.Quote, error) {
	query := `
		SELECT quote_date, price
		FROM quotes
		WHERE isin = $1 AND exchange_id = $2
		ORDER BY quote_date ASC
	`
	args := []any{isin, exchangeID}

	if rng != nil {
		query = `
			SELECT quote_date, price
			FROM quotes
			WHERE isin = $1 AND exchange_id = $2 AND quote_date BETWEEN $3 AND $4
			ORDER BY quote_date ASC
		`
		args = append(args, rng.Start, rng.End)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query quotes: %w", err)
	}
	defer rows.Close()

	quotes := make([]contracts.Quote, 0)
	for rows.Next() {
		var q contracts.Quote
		if err := rows.Scan(&q.Date, &q.Price); err != nil {
			return nil, fmt.Errorf("scan quote: %w", err)
		}
		quotes = append(quotes, q)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return quotes, nil
}

// Snapshot implements contracts.Ledger
func (r *PostgresLedger) Snapshot(ctx context.Context) ([]contracts.LedgerRow, error) {
	query := `
		SELECT s.isin, s.name, s.instrument_type, e.id, e.name, q.quote_date, q.price
		FROM quotes q
		JOIN securities s ON s.isin = q.isin
		JOIN exchanges e ON e.id = q.exchange_id
		ORDER BY s.isin, e.id, q.quote_date
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query ledger snapshot: %w", err)
	}
	defer rows.Close()

	var out []contracts.LedgerRow
	for rows.Next() {
		var row contracts.LedgerRow
		if err := rows.Scan(
			&row.Security.ISIN, &row.Security.Name, &row.Security.InstrumentType,
			&row.Exchange.ID, &row.Exchange.Name,
			&row.Date, &row.Price,
		); err != nil {
			return nil, fmt.Errorf("scan ledger row: %w", err)
		}
		out = append(out, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return out, nil
}

// Counts implements contracts.Ledger
func (r *PostgresLedger) Counts(ctx context.Context) ([]contracts.QuoteCount, error) {
	query := `
		SELECT q.isin, e.name, COUNT(*)
		FROM quotes q
		JOIN exchanges e ON e.id = q.exchange_id
		GROUP BY q.isin, e.name
		ORDER BY q.isin, e.name
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query quote counts: %w", err)
	}
	defer rows.Close()

	counts := make([]contracts.QuoteCount, 0)
	for rows.Next() {
		var c contracts.QuoteCount
		if err := rows.Scan(&c.ISIN, &c.ExchangeName, &c.Count); err != nil {
			return nil, fmt.Errorf("scan quote count: %w", err)
		}
		counts = append(counts, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return counts, nil
}
