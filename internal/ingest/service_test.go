package ingest

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marvey11/codescape-financial-api/internal/contracts"
	"github.com/marvey11/codescape-financial-api/internal/ledger"
	"github.com/marvey11/codescape-financial-api/internal/masterdata"
	"github.com/marvey11/codescape-financial-api/pkg/logger"
)

func newService(t *testing.T) (*Service, *ledger.MemoryLedger, int64) {
	t.Helper()
	ctx := context.Background()

	md := masterdata.NewMemoryRepository()
	require.NoError(t, md.CreateSecurity(ctx, contracts.Security{ISIN: "DE0007164600", Name: "SAP SE", InstrumentType: "share"}))
	ex, err := md.CreateExchange(ctx, "XETRA")
	require.NoError(t, err)

	l := ledger.NewMemoryLedger(md)
	return NewService(l, md, logger.Nop()), l, ex.ID
}

func item(date, price string) Item {
	q := decimal.RequireFromString(price)
	return Item{Date: date, Quote: &q}
}

func TestService_Ingest(t *testing.T) {
	ctx := context.Background()
	svc, l, xetra := newService(t)

	res, err := svc.Ingest(ctx, Request{
		ISIN:     "DE0007164600",
		Exchange: "XETRA",
		Quotes:   []Item{item("2024-01-02", "120.5"), item("2024-01-03", "121")},
	})
	require.NoError(t, err)
	assert.Equal(t, &Result{ISIN: "DE0007164600", Exchange: "XETRA", Stored: 2}, res)

	quotes, err := l.Query(ctx, "DE0007164600", xetra, nil)
	require.NoError(t, err)
	require.Len(t, quotes, 2)
	assert.Equal(t, "120.5", quotes[0].Price.String())
}

func TestService_IngestByExchangeID(t *testing.T) {
	ctx := context.Background()
	svc, _, xetra := newService(t)

	res, err := svc.Ingest(ctx, Request{
		ISIN:     "DE0007164600",
		Exchange: ExchangeRef("1"),
		Quotes:   []Item{item("2024-01-02", "1")},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), xetra)
	assert.Equal(t, "XETRA", res.Exchange)
}

func TestService_IngestValidation(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t)

	tests := []struct {
		name string
		req  Request
	}{
		{"short isin", Request{ISIN: "DE0001", Exchange: "XETRA", Quotes: []Item{item("2024-01-02", "1")}}},
		{"isin with symbols", Request{ISIN: "DE-007164600", Exchange: "XETRA", Quotes: []Item{item("2024-01-02", "1")}}},
		{"missing exchange", Request{ISIN: "DE0007164600", Quotes: []Item{item("2024-01-02", "1")}}},
		{"no quotes", Request{ISIN: "DE0007164600", Exchange: "XETRA"}},
		{"bad date", Request{ISIN: "DE0007164600", Exchange: "XETRA", Quotes: []Item{item("02.01.2024", "1")}}},
		{"negative quote", Request{ISIN: "DE0007164600", Exchange: "XETRA", Quotes: []Item{item("2024-01-02", "-0.01")}}},
		{"missing quote", Request{ISIN: "DE0007164600", Exchange: "XETRA", Quotes: []Item{{Date: "2024-01-02"}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Ingest(ctx, tt.req)
			assert.ErrorIs(t, err, contracts.ErrInvalidArgument)
		})
	}
}

func TestService_IngestZeroQuote(t *testing.T) {
	ctx := context.Background()
	svc, l, xetra := newService(t)

	_, err := svc.Ingest(ctx, Request{ISIN: "DE0007164600", Exchange: "XETRA", Quotes: []Item{item("2024-01-02", "0")}})
	require.NoError(t, err)

	quotes, err := l.Query(ctx, "DE0007164600", xetra, nil)
	require.NoError(t, err)
	require.Len(t, quotes, 1)
	assert.True(t, quotes[0].Price.IsZero())
}

func TestService_IngestDecodedMissingQuote(t *testing.T) {
	ctx := context.Background()
	svc, l, _ := newService(t)

	reqs, err := Decode(strings.NewReader(`{"isin":"DE0007164600","exchange":"XETRA","quotes":[{"date":"2024-01-02"}]}`))
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	assert.Nil(t, reqs[0].Quotes[0].Quote)

	_, err = svc.Ingest(ctx, reqs[0])
	assert.ErrorIs(t, err, contracts.ErrInvalidArgument)

	counts, err := l.Counts(ctx)
	require.NoError(t, err)
	assert.Empty(t, counts)
}

func TestService_IngestUnknownReferences(t *testing.T) {
	ctx := context.Background()
	svc, l, _ := newService(t)

	_, err := svc.Ingest(ctx, Request{ISIN: "US0378331005", Exchange: "XETRA", Quotes: []Item{item("2024-01-02", "1")}})
	assert.ErrorIs(t, err, contracts.ErrNotFound)

	_, err = svc.Ingest(ctx, Request{ISIN: "DE0007164600", Exchange: "NYSE", Quotes: []Item{item("2024-01-02", "1")}})
	assert.ErrorIs(t, err, contracts.ErrNotFound)

	counts, err := l.Counts(ctx)
	require.NoError(t, err)
	assert.Empty(t, counts, "failed ingestion stores nothing")
}

func TestService_IngestAll(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t)

	results, err := svc.IngestAll(ctx, []Request{
		{ISIN: "DE0007164600", Exchange: "XETRA", Quotes: []Item{item("2024-01-02", "1")}},
		{ISIN: "US0378331005", Exchange: "XETRA", Quotes: []Item{item("2024-01-02", "1")}},
	})
	assert.ErrorIs(t, err, contracts.ErrNotFound)
	assert.Len(t, results, 1)
}

type countingThrottle struct {
	calls int
	err   error
}

func (c *countingThrottle) Wait(ctx context.Context) error {
	c.calls++
	return c.err
}

func TestService_IngestAllThrottled(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t)
	throttle := &countingThrottle{}
	svc.WithThrottle(throttle)

	results, err := svc.IngestAll(ctx, []Request{
		{ISIN: "DE0007164600", Exchange: "XETRA", Quotes: []Item{item("2024-01-02", "1")}},
		{ISIN: "DE0007164600", Exchange: "XETRA", Quotes: []Item{item("2024-01-03", "2")}},
	})
	require.NoError(t, err)
	assert.Len(t, results, 2)
	assert.Equal(t, 2, throttle.calls)
}

func TestService_IngestAllThrottleError(t *testing.T) {
	ctx := context.Background()
	svc, l, _ := newService(t)
	svc.WithThrottle(&countingThrottle{err: context.DeadlineExceeded})

	results, err := svc.IngestAll(ctx, []Request{
		{ISIN: "DE0007164600", Exchange: "XETRA", Quotes: []Item{item("2024-01-02", "1")}},
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, results)

	counts, err := l.Counts(ctx)
	require.NoError(t, err)
	assert.Empty(t, counts)
}

func TestDecode(t *testing.T) {
	single := `{"isin":"DE0007164600","exchange":"XETRA","quotes":[{"date":"2024-01-02","quote":120.5}]}`
	reqs, err := Decode(strings.NewReader(single))
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	assert.Equal(t, ExchangeRef("XETRA"), reqs[0].Exchange)
	assert.Equal(t, "120.5", reqs[0].Quotes[0].Quote.String())

	many := `[{"isin":"DE0007164600","exchange":3,"quotes":[{"date":"2024-01-02","quote":"1"}]},
	          {"isin":"US0378331005","exchange":"XETRA","quotes":[]}]`
	reqs, err = Decode(strings.NewReader(many))
	require.NoError(t, err)
	require.Len(t, reqs, 2)
	assert.Equal(t, ExchangeRef("3"), reqs[0].Exchange)

	_, err = Decode(strings.NewReader("  "))
	assert.ErrorIs(t, err, contracts.ErrInvalidArgument)

	_, err = Decode(strings.NewReader(`{"isin":`))
	assert.ErrorIs(t, err, contracts.ErrInvalidArgument)

	_, err = Decode(strings.NewReader(`{"isin":"DE0007164600","exchange":true}`))
	assert.ErrorIs(t, err, contracts.ErrInvalidArgument)
}
