package contracts

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateFormat is the wire format of calendar dates
const DateFormat = "2006-01-02"

// Security is master data owned outside the ledger; the core only reads it
type Security struct {
	ISIN           string `json:"isin"`
	Name           string `json:"name"`
	InstrumentType string `json:"instrumentType"`
}

// Exchange is master data owned outside the ledger
type Exchange struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Quote is a single price observation of one entity pair on one calendar day
type Quote struct {
	Date  time.Time       `json:"date"`
	Price decimal.Decimal `json:"price"`
}

// PairKey identifies a (security, exchange) entity pair
type PairKey struct {
	ISIN       string
	ExchangeID int64
}

// Pair is an entity pair with its identity fields resolved
type Pair struct {
	Security Security `json:"security"`
	Exchange Exchange `json:"exchange"`
}

// Key returns the grouping key of the pair
func (p Pair) Key() PairKey {
	return PairKey{ISIN: p.Security.ISIN, ExchangeID: p.Exchange.ID}
}

// LedgerRow is one quote joined with its pair identity
type LedgerRow struct {
	Pair
	Quote
}

// Series is the full quote history of one pair, ordered by date ascending
type Series struct {
	Pair   Pair
	Quotes []Quote
}

// Latest returns the most recent quote of the series
func (s Series) Latest() (Quote, bool) {
	if len(s.Quotes) == 0 {
		return Quote{}, false
	}
	return s.Quotes[len(s.Quotes)-1], true
}

// QuoteCount is the number of stored quotes for one pair
type QuoteCount struct {
	ISIN         string `json:"isin"`
	ExchangeName string `json:"exchangeName"`
	Count        int64  `json:"count"`
}

// Day truncates t to midnight UTC of its own calendar date
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
