// Package statistics aggregates a user's readings over a date range.
//
// Aggregates are computed over every record in the range, never a single
// page. Floating point outputs are rounded to two decimals.
package statistics

import (
	"fmt"
	"math"
	"time"

	v1 "github.com/wosledon/vitanote/pkg/api/v1"
)

const (
	// DefaultDays is the range length when none is given.
	DefaultDays = 7
	// MaxDays caps the range length.
	MaxDays = 365

	day = 24 * time.Hour
)

// Range is a half-open [From, To) time window.
type Range struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// ResolveRange builds a range from optional bounds and a day count.
//
// Without bounds the range covers the last days calendar days (UTC)
// including today, ending at now. With only from, it ends at now. With
// only to, it starts days before to.
func ResolveRange(from, to time.Time, days int, now time.Time) (Range, error) {
	if days == 0 {
		days = DefaultDays
	}
	if days < 1 || days > MaxDays {
		return Range{}, fmt.Errorf("%w: days must be between 1 and %d", v1.ErrInvalidRequest, MaxDays)
	}
	now = now.UTC()

	var r Range
	switch {
	case from.IsZero() && to.IsZero():
		r = Range{From: startOfDay(now).AddDate(0, 0, -(days - 1)), To: now}
	case to.IsZero():
		r = Range{From: from.UTC(), To: now}
	case from.IsZero():
		r = Range{From: to.UTC().AddDate(0, 0, -days), To: to.UTC()}
	default:
		r = Range{From: from.UTC(), To: to.UTC()}
	}

	if !r.From.Before(r.To) {
		return Range{}, fmt.Errorf("%w: from must be before to", v1.ErrInvalidRequest)
	}
	if r.To.Sub(r.From) > (MaxDays+1)*day {
		return Range{}, fmt.Errorf("%w: range must not exceed %d days", v1.ErrInvalidRequest, MaxDays)
	}
	return r, nil
}

// Days returns the UTC midnight of every calendar day the range touches.
func (r Range) Days() []time.Time {
	if !r.From.Before(r.To) {
		return nil
	}
	last := startOfDay(r.To.Add(-time.Nanosecond))
	var days []time.Time
	for d := startOfDay(r.From); !d.After(last); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Round(v*100) / 100
}
