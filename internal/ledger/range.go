package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/marvey11/codescape-financial-api/internal/contracts"
)

// ParseDateRange builds the optional range filter of a ledger query.
//
// An empty or unparsable start disables the filter (nil, not an error).
// A missing or unparsable end defaults to now.
func ParseDateRange(start, end string, now time.Time) *contracts.DateRange {
	s, err := time.Parse(contracts.DateFormat, strings.TrimSpace(start))
	if err != nil {
		return nil
	}

	e, err := time.Parse(contracts.DateFormat, strings.TrimSpace(end))
	if err != nil {
		e = contracts.Day(now)
	}

	return &contracts.DateRange{Start: s, End: e}
}

// dedupe keeps the last item per calendar date, preserving first-seen order
func dedupe(items []contracts.Quote) []contracts.Quote {
	index := make(map[time.Time]int, len(items))
	out := make([]contracts.Quote, 0, len(items))
	for _, it := range items {
		it.Date = contracts.Day(it.Date)
		if i, ok := index[it.Date]; ok {
			out[i] = it
			continue
		}
		index[it.Date] = len(out)
		out = append(out, it)
	}
	return out
}

func validatePrices(items []contracts.Quote) error {
	for _, it := range items {
		if it.Price.IsNegative() {
			return fmt.Errorf("%w: negative price %s on %s",
				contracts.ErrInvalidArgument, it.Price, it.Date.Format(contracts.DateFormat))
		}
	}
	return nil
}
