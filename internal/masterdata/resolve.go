// Package masterdata resolves securities and exchanges. Master data is owned
// outside the quote ledger; the ledger only references it by identity.
package masterdata

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/marvey11/codescape-financial-api/internal/contracts"
)

// ISINLength is the fixed length of an ISIN
const ISINLength = 12

// ResolveExchange looks ref up by name first and, if that fails and ref is
// numeric, by surrogate id.
func ResolveExchange(ctx context.Context, md contracts.MasterData, ref string) (*contracts.Exchange, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("%w: exchange is required", contracts.ErrInvalidArgument)
	}

	e, err := md.ExchangeByName(ctx, ref)
	if err == nil {
		return e, nil
	}
	if !errors.Is(err, contracts.ErrNotFound) {
		return nil, err
	}

	id, convErr := strconv.ParseInt(ref, 10, 64)
	if convErr != nil {
		return nil, err
	}
	return md.ExchangeByID(ctx, id)
}

func validateSecurity(s contracts.Security) error {
	if len(s.ISIN) != ISINLength {
		return fmt.Errorf("%w: ISIN must be %d characters, got %q", contracts.ErrInvalidArgument, ISINLength, s.ISIN)
	}
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("%w: security name is required", contracts.ErrInvalidArgument)
	}
	return nil
}
