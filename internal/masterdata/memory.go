package masterdata

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/marvey11/codescape-financial-api/internal/contracts"
)

// MemoryRepository is a process-local contracts.MasterData
type MemoryRepository struct {
	mu         sync.RWMutex
	securities map[string]contracts.Security
	exchanges  map[int64]contracts.Exchange
	nextID     int64
}

// NewMemoryRepository creates an empty repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		securities: make(map[string]contracts.Security),
		exchanges:  make(map[int64]contracts.Exchange),
		nextID:     1,
	}
}

// SecurityByISIN implements contracts.MasterData
func (r *MemoryRepository) SecurityByISIN(ctx context.Context, isin string) (*contracts.Security, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.securities[isin]
	if !ok {
		return nil, fmt.Errorf("%w: security %s", contracts.ErrNotFound, isin)
	}
	return &s, nil
}

// ExchangeByID implements contracts.MasterData
func (r *MemoryRepository) ExchangeByID(ctx context.Context, id int64) (*contracts.Exchange, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.exchanges[id]
	if !ok {
		return nil, fmt.Errorf("%w: exchange %d", contracts.ErrNotFound, id)
	}
	return &e, nil
}

// ExchangeByName implements contracts.MasterData
func (r *MemoryRepository) ExchangeByName(ctx context.Context, name string) (*contracts.Exchange, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.exchanges {
		if e.Name == name {
			return &e, nil
		}
	}
	return nil, fmt.Errorf("%w: exchange %q", contracts.ErrNotFound, name)
}

// ListSecurities implements contracts.MasterData
func (r *MemoryRepository) ListSecurities(ctx context.Context) ([]contracts.Security, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]contracts.Security, 0, len(r.securities))
	for _, s := range r.securities {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ISIN < out[j].ISIN })
	return out, nil
}

// ListExchanges implements contracts.MasterData
func (r *MemoryRepository) ListExchanges(ctx context.Context) ([]contracts.Exchange, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]contracts.Exchange, 0, len(r.exchanges))
	for _, e := range r.exchanges {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// CreateSecurity implements contracts.MasterData
func (r *MemoryRepository) CreateSecurity(ctx context.Context, s contracts.Security) error {
	if err := validateSecurity(s); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.securities[s.ISIN]; exists {
		return fmt.Errorf("%w: security %s already exists", contracts.ErrConflict, s.ISIN)
	}
	r.securities[s.ISIN] = s
	return nil
}

// CreateExchange implements contracts.MasterData
func (r *MemoryRepository) CreateExchange(ctx context.Context, name string) (*contracts.Exchange, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: exchange name is required", contracts.ErrInvalidArgument)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.exchanges {
		if e.Name == name {
			return nil, fmt.Errorf("%w: exchange %q already exists", contracts.ErrConflict, name)
		}
	}

	e := contracts.Exchange{ID: r.nextID, Name: name}
	r.exchanges[e.ID] = e
	r.nextID++
	return &e, nil
}
