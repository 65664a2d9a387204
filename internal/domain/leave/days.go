package leave

import (
	"time"

	"github.com/shopspring/decimal"
)

var halfDayCount = decimal.NewFromFloat(0.5)

// Day truncates t to its calendar date in UTC. All range arithmetic runs on
// normalized dates so month and year boundaries fall out of plain
// day-by-day iteration.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// RequestedDays returns the day count a request consumes: 0.5 when halfDay
// is set, otherwise the inclusive count of calendar days in [from, to].
func RequestedDays(from, to time.Time, halfDay bool) (decimal.Decimal, error) {
	from, to = Day(from), Day(to)
	if to.Before(from) {
		return decimal.Zero, &ValidationError{Field: "toDate", Reason: "must be on or after fromDate"}
	}
	if halfDay {
		return halfDayCount, nil
	}
	days := int64(to.Sub(from).Hours()/24) + 1
	return decimal.NewFromInt(days), nil
}

// RangeDays lists every calendar day in the inclusive [from, to] range.
func RangeDays(from, to time.Time) []time.Time {
	from, to = Day(from), Day(to)
	var out []time.Time
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		out = append(out, day)
	}
	return out
}
