package contracts

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Unit is the calendar unit of a performance interval
type Unit string

const (
	UnitDay   Unit = "day"
	UnitMonth Unit = "month"
	UnitYear  Unit = "year"
)

// ParseUnit accepts day, month or year in any case
func ParseUnit(s string) (Unit, error) {
	switch u := Unit(strings.ToLower(strings.TrimSpace(s))); u {
	case UnitDay, UnitMonth, UnitYear:
		return u, nil
	default:
		return "", fmt.Errorf("%w: unknown interval unit %q", ErrInvalidArgument, s)
	}
}

// Interval is a calendar distance such as "6 months"
type Interval struct {
	Count int  `json:"count"`
	Unit  Unit `json:"unit"`
}

// Validate rejects a non-positive count or an unknown unit
func (iv Interval) Validate() error {
	if iv.Count < 1 {
		return fmt.Errorf("%w: interval count must be at least 1, got %d", ErrInvalidArgument, iv.Count)
	}
	if _, err := ParseUnit(string(iv.Unit)); err != nil {
		return err
	}
	return nil
}

func (iv Interval) String() string {
	return fmt.Sprintf("%d %s", iv.Count, iv.Unit)
}

// Algorithm selects the RS Levy window
type Algorithm string

const (
	AlgorithmDaily  Algorithm = "daily"
	AlgorithmWeekly Algorithm = "weekly"
)

// ParseAlgorithm accepts daily or weekly in any case
func ParseAlgorithm(s string) (Algorithm, error) {
	switch a := Algorithm(strings.ToLower(strings.TrimSpace(s))); a {
	case AlgorithmDaily, AlgorithmWeekly:
		return a, nil
	default:
		return "", fmt.Errorf("%w: unknown RS Levy algorithm %q", ErrInvalidArgument, s)
	}
}

// PerformanceRecord pairs the latest price of an entity pair with its
// baseline price one interval earlier. Callers derive the ratio.
type PerformanceRecord struct {
	ISIN           string          `json:"isin"`
	Name           string          `json:"name"`
	InstrumentType string          `json:"instrumentType"`
	Exchange       string          `json:"exchange"`
	LatestDate     time.Time       `json:"latestDate"`
	LatestPrice    decimal.Decimal `json:"latestPrice"`
	BaseDate       time.Time       `json:"baseDate"`
	BasePrice      decimal.Decimal `json:"basePrice"`
}

// RSLevyRecord is one relative-strength value. Date is the newest weekly
// close for the weekly algorithm and the latest quote date for daily.
type RSLevyRecord struct {
	ISIN           string    `json:"isin"`
	Name           string    `json:"name"`
	InstrumentType string    `json:"instrumentType"`
	Exchange       string    `json:"exchange"`
	Date           time.Time `json:"date"`
	RSLValue       float64   `json:"rslValue"`
}
