package ledger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marvey11/codescape-financial-api/internal/contracts"
	"github.com/marvey11/codescape-financial-api/internal/masterdata"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func quote(d time.Time, price string) contracts.Quote {
	return contracts.Quote{Date: d, Price: decimal.RequireFromString(price)}
}

func setup(t *testing.T) (*MemoryLedger, int64) {
	t.Helper()
	ctx := context.Background()

	md := masterdata.NewMemoryRepository()
	require.NoError(t, md.CreateSecurity(ctx, contracts.Security{ISIN: "DE0007164600", Name: "SAP SE", InstrumentType: "share"}))
	require.NoError(t, md.CreateSecurity(ctx, contracts.Security{ISIN: "US0378331005", Name: "Apple Inc.", InstrumentType: "share"}))
	ex, err := md.CreateExchange(ctx, "XETRA")
	require.NoError(t, err)

	return NewMemoryLedger(md), ex.ID
}

func TestMemoryLedger_UpsertBatchIdempotent(t *testing.T) {
	ctx := context.Background()
	l, xetra := setup(t)

	batch := []contracts.Quote{
		quote(day(2024, 1, 2), "100.5"),
		quote(day(2024, 1, 3), "101"),
	}

	require.NoError(t, l.UpsertBatch(ctx, "DE0007164600", xetra, batch))
	first, err := l.Query(ctx, "DE0007164600", xetra, nil)
	require.NoError(t, err)

	require.NoError(t, l.UpsertBatch(ctx, "DE0007164600", xetra, batch))
	second, err := l.Query(ctx, "DE0007164600", xetra, nil)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, second, 2)
}

func TestMemoryLedger_UpsertOverwritesAndLastWins(t *testing.T) {
	ctx := context.Background()
	l, xetra := setup(t)

	require.NoError(t, l.UpsertBatch(ctx, "DE0007164600", xetra, []contracts.Quote{
		quote(day(2024, 1, 2), "100"),
	}))

	// later ingestion overwrites; duplicate dates within a batch keep the last value
	require.NoError(t, l.UpsertBatch(ctx, "DE0007164600", xetra, []contracts.Quote{
		quote(day(2024, 1, 2), "105"),
		quote(day(2024, 1, 3), "110"),
		quote(time.Date(2024, 1, 2, 17, 30, 0, 0, time.UTC), "107"),
	}))

	quotes, err := l.Query(ctx, "DE0007164600", xetra, nil)
	require.NoError(t, err)
	require.Len(t, quotes, 2, "one quote per calendar date")
	assert.Equal(t, day(2024, 1, 2), quotes[0].Date)
	assert.True(t, quotes[0].Price.Equal(decimal.NewFromInt(107)))
	assert.True(t, quotes[1].Price.Equal(decimal.NewFromInt(110)))
}

func TestMemoryLedger_Errors(t *testing.T) {
	ctx := context.Background()
	l, xetra := setup(t)

	err := l.UpsertBatch(ctx, "XX0000000000", xetra, []contracts.Quote{quote(day(2024, 1, 2), "1")})
	assert.ErrorIs(t, err, contracts.ErrNotFound)

	err = l.UpsertBatch(ctx, "DE0007164600", 99, []contracts.Quote{quote(day(2024, 1, 2), "1")})
	assert.ErrorIs(t, err, contracts.ErrNotFound)

	err = l.UpsertBatch(ctx, "DE0007164600", xetra, []contracts.Quote{quote(day(2024, 1, 2), "-1")})
	assert.ErrorIs(t, err, contracts.ErrInvalidArgument)

	// an empty batch still needs a known pair
	assert.ErrorIs(t, l.UpsertBatch(ctx, "XX0000000000", xetra, nil), contracts.ErrNotFound)
	assert.ErrorIs(t, l.UpsertBatch(ctx, "DE0007164600", 99, nil), contracts.ErrNotFound)
	assert.NoError(t, l.UpsertBatch(ctx, "DE0007164600", xetra, nil))
	counts, err := l.Counts(ctx)
	require.NoError(t, err)
	assert.Empty(t, counts)

	require.NoError(t, l.Insert(ctx, "DE0007164600", xetra, quote(day(2024, 1, 2), "1")))
	err = l.Insert(ctx, "DE0007164600", xetra, quote(day(2024, 1, 2), "2"))
	assert.ErrorIs(t, err, contracts.ErrConflict)
}

func TestMemoryLedger_QueryRange(t *testing.T) {
	ctx := context.Background()
	l, xetra := setup(t)

	var batch []contracts.Quote
	for d := day(2024, 1, 1); d.Before(day(2024, 2, 1)); d = d.AddDate(0, 0, 1) {
		batch = append(batch, quote(d, "10"))
	}
	require.NoError(t, l.UpsertBatch(ctx, "DE0007164600", xetra, batch))

	rng := &contracts.DateRange{Start: day(2024, 1, 10), End: day(2024, 1, 15)}
	quotes, err := l.Query(ctx, "DE0007164600", xetra, rng)
	require.NoError(t, err)
	require.Len(t, quotes, 6, "range is inclusive on both ends")
	assert.Equal(t, day(2024, 1, 10), quotes[0].Date)
	assert.Equal(t, day(2024, 1, 15), quotes[5].Date)

	all, err := l.Query(ctx, "DE0007164600", xetra, nil)
	require.NoError(t, err)
	assert.Len(t, all, 31)
	for i := 1; i < len(all); i++ {
		assert.True(t, all[i-1].Date.Before(all[i].Date), "ordered by date")
	}
}

func TestParseDateRange(t *testing.T) {
	now := time.Date(2024, 6, 30, 15, 4, 5, 0, time.UTC)

	rng := ParseDateRange("2024-01-01", "2024-03-31", now)
	require.NotNil(t, rng)
	assert.Equal(t, day(2024, 1, 1), rng.Start)
	assert.Equal(t, day(2024, 3, 31), rng.End)

	rng = ParseDateRange("2024-01-01", "", now)
	require.NotNil(t, rng)
	assert.Equal(t, day(2024, 6, 30), rng.End, "end defaults to today")

	assert.Nil(t, ParseDateRange("", "2024-03-31", now))
	assert.Nil(t, ParseDateRange("01/01/2024", "2024-03-31", now), "unparsable start skips the filter")
}

func TestMemoryLedger_SnapshotAndCounts(t *testing.T) {
	ctx := context.Background()
	l, xetra := setup(t)

	require.NoError(t, l.UpsertBatch(ctx, "DE0007164600", xetra, []contracts.Quote{
		quote(day(2024, 1, 2), "100"),
		quote(day(2024, 1, 3), "101"),
	}))
	require.NoError(t, l.UpsertBatch(ctx, "US0378331005", xetra, []contracts.Quote{
		quote(day(2024, 1, 2), "180"),
	}))

	rows, err := l.Snapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
	for _, r := range rows {
		assert.Equal(t, "XETRA", r.Exchange.Name)
		assert.NotEmpty(t, r.Security.Name)
	}

	counts, err := l.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []contracts.QuoteCount{
		{ISIN: "DE0007164600", ExchangeName: "XETRA", Count: 2},
		{ISIN: "US0378331005", ExchangeName: "XETRA", Count: 1},
	}, counts)
}

func TestMemoryLedger_ConcurrentUpserts(t *testing.T) {
	ctx := context.Background()
	l, xetra := setup(t)

	var wg sync.WaitGroup
	for _, isin := range []string{"DE0007164600", "US0378331005"} {
		for w := 0; w < 4; w++ {
			wg.Add(1)
			go func(isin string) {
				defer wg.Done()
				var batch []contracts.Quote
				for d := day(2024, 1, 1); d.Before(day(2024, 4, 1)); d = d.AddDate(0, 0, 1) {
					batch = append(batch, quote(d, "42"))
				}
				assert.NoError(t, l.UpsertBatch(ctx, isin, xetra, batch))
			}(isin)
		}
	}
	wg.Wait()

	counts, err := l.Counts(ctx)
	require.NoError(t, err)
	require.Len(t, counts, 2)
	for _, c := range counts {
		assert.Equal(t, int64(91), c.Count, "no duplicate dates for %s", c.ISIN)
	}
}
