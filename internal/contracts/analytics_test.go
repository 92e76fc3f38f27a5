package contracts

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseUnit(t *testing.T) {
	tests := []struct {
		input   string
		want    Unit
		wantErr bool
	}{
		{"day", UnitDay, false},
		{"Month", UnitMonth, false},
		{" YEAR ", UnitYear, false},
		{"week", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseUnit(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidArgument) {
					t.Errorf("ParseUnit(%q) error = %v, want ErrInvalidArgument", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseUnit(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseUnit(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestInterval_Validate(t *testing.T) {
	tests := []struct {
		name     string
		interval Interval
		wantErr  bool
	}{
		{"one year", Interval{Count: 1, Unit: UnitYear}, false},
		{"six months", Interval{Count: 6, Unit: UnitMonth}, false},
		{"zero count", Interval{Count: 0, Unit: UnitDay}, true},
		{"negative count", Interval{Count: -3, Unit: UnitMonth}, true},
		{"unknown unit", Interval{Count: 2, Unit: "fortnight"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.interval.Validate()
			if tt.wantErr && !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("Validate() error = %v, want ErrInvalidArgument", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Validate() unexpected error: %v", err)
			}
		})
	}
}

func TestParseAlgorithm(t *testing.T) {
	if a, err := ParseAlgorithm("Weekly"); err != nil || a != AlgorithmWeekly {
		t.Errorf("ParseAlgorithm(Weekly) = %v, %v", a, err)
	}
	if a, err := ParseAlgorithm("daily"); err != nil || a != AlgorithmDaily {
		t.Errorf("ParseAlgorithm(daily) = %v, %v", a, err)
	}
	if _, err := ParseAlgorithm("monthly"); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("ParseAlgorithm(monthly) error = %v, want ErrInvalidArgument", err)
	}
}

func TestDay(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	in := time.Date(2024, 3, 15, 23, 30, 0, 0, loc)

	got := Day(in)
	want := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Day() = %v, want %v", got, want)
	}
}

func TestDateRange_Contains(t *testing.T) {
	r := DateRange{
		Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
	}

	if !r.Contains(r.Start) || !r.Contains(r.End) {
		t.Error("Expected range bounds to be inclusive")
	}
	if r.Contains(r.End.AddDate(0, 0, 1)) {
		t.Error("Expected day after end to be outside the range")
	}
}

func TestSeries_Latest(t *testing.T) {
	var empty Series
	if _, ok := empty.Latest(); ok {
		t.Error("Expected empty series to have no latest quote")
	}

	s := Series{Quotes: []Quote{
		{Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Price: decimal.NewFromInt(1)},
		{Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Price: decimal.NewFromInt(2)},
	}}
	latest, ok := s.Latest()
	if !ok || !latest.Price.Equal(decimal.NewFromInt(2)) {
		t.Errorf("Latest() = %v, %v", latest, ok)
	}
}
