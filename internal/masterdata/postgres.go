package masterdata

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/marvey11/codescape-financial-api/internal/contracts"
)

// PostgresRepository implements contracts.MasterData on the securities and
// exchanges tables
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new repository
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// SecurityByISIN implements contracts.MasterData
func (r *PostgresRepository) SecurityByISIN(ctx context.Context, isin string) (*contracts.Security, error) {
	query := `
		SELECT isin, name, instrument_type
		FROM securities
		WHERE isin = $1
	`

	var s contracts.Security
	err := r.pool.QueryRow(ctx, query, isin).Scan(&s.ISIN, &s.Name, &s.InstrumentType)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: security %s", contracts.ErrNotFound, isin)
		}
		return nil, fmt.Errorf("query security: %w", err)
	}
	return &s, nil
}

// ExchangeByID implements contracts.MasterData
func (r *PostgresRepository) ExchangeByID(ctx context.Context, id int64) (*contracts.Exchange, error) {
	var e contracts.Exchange
	err := r.pool.QueryRow(ctx, `SELECT id, name FROM exchanges WHERE id = $1`, id).Scan(&e.ID, &e.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: exchange %d", contracts.ErrNotFound, id)
		}
		return nil, fmt.Errorf("query exchange: %w", err)
	}
	return &e, nil
}

// ExchangeByName implements contracts.MasterData
func (r *PostgresRepository) ExchangeByName(ctx context.Context, name string) (*contracts.Exchange, error) {
	var e contracts.Exchange
	err := r.pool.QueryRow(ctx, `SELECT id, name FROM exchanges WHERE name = $1`, name).Scan(&e.ID, &e.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: exchange %q", contracts.ErrNotFound, name)
		}
		return nil, fmt.Errorf("query exchange: %w", err)
	}
	return &e, nil
}

// ListSecurities implements contracts.MasterData
func (r *PostgresRepository) ListSecurities(ctx context.Context) ([]contracts.Security, error) {
	rows, err := r.pool.Query(ctx, `SELECT isin, name, instrument_type FROM securities ORDER BY isin`)
	if err != nil {
		return nil, fmt.Errorf("query securities: %w", err)
	}
	defer rows.Close()

	out := make([]contracts.Security, 0)
	for rows.Next() {
		var s contracts.Security
		if err := rows.Scan(&s.ISIN, &s.Name, &s.InstrumentType); err != nil {
			return nil, fmt.Errorf("scan security: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ListExchanges implements contracts.MasterData
func (r *PostgresRepository) ListExchanges(ctx context.Context) ([]contracts.Exchange, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name FROM exchanges ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query exchanges: %w", err)
	}
	defer rows.Close()

	out := make([]contracts.Exchange, 0)
	for rows.Next() {
		var e contracts.Exchange
		if err := rows.Scan(&e.ID, &e.Name); err != nil {
			return nil, fmt.Errorf("scan exchange: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// CreateSecurity implements contracts.MasterData
func (r *PostgresRepository) CreateSecurity(ctx context.Context, s contracts.Security) error {
	if err := validateSecurity(s); err != nil {
		return err
	}

	query := `
		INSERT INTO securities (isin, name, instrument_type)
		VALUES ($1, $2, $3)
	`

	if _, err := r.pool.Exec(ctx, query, s.ISIN, s.Name, s.InstrumentType); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: security %s already exists", contracts.ErrConflict, s.ISIN)
		}
		return fmt.Errorf("insert security: %w", err)
	}
	return nil
}

// CreateExchange implements contracts.MasterData
func (r *PostgresRepository) CreateExchange(ctx context.Context, name string) (*contracts.Exchange, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: exchange name is required", contracts.ErrInvalidArgument)
	}

	e := contracts.Exchange{Name: name}
	err := r.pool.QueryRow(ctx, `INSERT INTO exchanges (name) VALUES ($1) RETURNING id`, name).Scan(&e.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: exchange %q already exists", contracts.ErrConflict, name)
		}
		return nil, fmt.Errorf("insert exchange: %w", err)
	}
	return &e, nil
}
