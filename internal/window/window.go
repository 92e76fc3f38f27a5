// Package window locates the reference dates that bound performance and
// RS Levy windows inside one pair's irregular trading calendar.
//
// Every function is pure: it takes a quote sequence ordered by date ascending
// (as produced by contracts.Series) and never touches storage. "Not enough
// history" is reported as ok == false, never as an error, so callers can
// exclude the pair and carry on with the rest of the universe.
package window

import (
	"fmt"
	"sort"
	"time"

	"github.com/marvey11/codescape-financial-api/internal/contracts"
)

const (
	// WeeklyLookbackWeeks is the width of the candidate window behind the anchor
	WeeklyLookbackWeeks = 28

	// WeeklyCloseCount is the number of weekly closes a pair needs
	WeeklyCloseCount = 27

	// DailyWindowSize is the number of daily quotes a pair needs
	DailyWindowSize = 200
)

// SubtractInterval moves d back by iv. Months and years clamp to the last
// day of the target month, so 2024-03-31 minus one month is 2024-02-29.
func SubtractInterval(d time.Time, iv contracts.Interval) (time.Time, error) {
	if err := iv.Validate(); err != nil {
		return time.Time{}, err
	}

	switch iv.Unit {
	case contracts.UnitDay:
		return d.AddDate(0, 0, -iv.Count), nil
	case contracts.UnitMonth:
		return addMonthsClamped(d, -iv.Count), nil
	case contracts.UnitYear:
		return addMonthsClamped(d, -12*iv.Count), nil
	default:
		return time.Time{}, fmt.Errorf("%w: unknown interval unit %q", contracts.ErrInvalidArgument, iv.Unit)
	}
}

func addMonthsClamped(d time.Time, months int) time.Time {
	y, m, day := d.Date()
	first := time.Date(y, m, 1, 0, 0, 0, 0, d.Location()).AddDate(0, months, 0)
	last := first.AddDate(0, 1, -1).Day()
	if day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day,
		d.Hour(), d.Minute(), d.Second(), d.Nanosecond(), d.Location())
}

// Baseline returns the newest quote dated on or before latest minus iv.
// ok is false when the history does not reach back that far.
func Baseline(quotes []contracts.Quote, latest time.Time, iv contracts.Interval) (base contracts.Quote, ok bool, err error) {
	cutoff, err := SubtractInterval(latest, iv)
	if err != nil {
		return contracts.Quote{}, false, err
	}

	// first index strictly after the cutoff
	i := sort.Search(len(quotes), func(i int) bool {
		return quotes[i].Date.After(cutoff)
	})
	if i == 0 {
		return contracts.Quote{}, false, nil
	}
	return quotes[i-1], true, nil
}

// Anchor returns the most recent Thursday on or before d. ISO-8601 weeks are
// owned by their Thursday, so the anchor names the newest week in play.
func Anchor(d time.Time) time.Time {
	offset := (int(d.Weekday()) - int(time.Thursday) + 7) % 7
	return d.AddDate(0, 0, -offset)
}

type isoWeek struct {
	year, week int
}

func weekOf(d time.Time) isoWeek {
	y, w := d.ISOWeek()
	return isoWeek{y, w}
}

// WeeklyCloses returns the WeeklyCloseCount most recent weekly closes,
// newest first. The candidates are the quotes in (anchor - 28 weeks, anchor]
// where anchor is the Thursday on or before the latest quote; a week's close
// is its latest quote.
func WeeklyCloses(quotes []contracts.Quote) ([]contracts.Quote, bool) {
	if len(quotes) == 0 {
		return nil, false
	}

	anchor := Anchor(quotes[len(quotes)-1].Date)
	lower := anchor.AddDate(0, 0, -7*WeeklyLookbackWeeks)

	// ascending, one entry per ISO week
	var closes []contracts.Quote
	var lastWeek isoWeek
	for _, q := range quotes {
		if !q.Date.After(lower) || q.Date.After(anchor) {
			continue
		}
		w := weekOf(q.Date)
		if len(closes) > 0 && w == lastWeek {
			closes[len(closes)-1] = q
			continue
		}
		closes = append(closes, q)
		lastWeek = w
	}

	if len(closes) < WeeklyCloseCount {
		return nil, false
	}
	return newestFirst(closes[len(closes)-WeeklyCloseCount:]), true
}

// DailyWindow returns the DailyWindowSize most recent quotes, newest first.
// Pairs with fewer quotes in total do not qualify.
func DailyWindow(quotes []contracts.Quote) ([]contracts.Quote, bool) {
	if len(quotes) < DailyWindowSize {
		return nil, false
	}
	return newestFirst(quotes[len(quotes)-DailyWindowSize:]), true
}

func newestFirst(asc []contracts.Quote) []contracts.Quote {
	out := make([]contracts.Quote, len(asc))
	for i, q := range asc {
		out[len(asc)-1-i] = q
	}
	return out
}
