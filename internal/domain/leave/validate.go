package leave

import (
	"context"
	"errors"
	"time"

	"leavedesk/internal/domain/attendance"
	"leavedesk/internal/domain/holiday"
	"leavedesk/internal/domain/ledger"
	"leavedesk/internal/platform/config"
)

type AttendanceCalendar interface {
	DaysWithStatus(ctx context.Context, employeeID string, from, to time.Time, status attendance.Status) ([]time.Time, error)
}

type HolidayCalendar interface {
	InRange(ctx context.Context, from, to time.Time) ([]holiday.Holiday, error)
}

type QuotaReader interface {
	Get(ctx context.Context, employeeID, leaveTypeID string, year int) (ledger.Entry, error)
}

// Validator checks a proposed leave range against existing facts. Checks
// run in order and short-circuit on the first failure: recorded attendance,
// company holidays, then the remaining quota.
type Validator struct {
	Attendance AttendanceCalendar
	Holidays   HolidayCalendar
	Quotas     QuotaReader

	// MissingQuotaPolicy decides what a missing ledger row means for the
	// balance check: config.QuotaMissingUnlimited skips the check,
	// config.QuotaMissingZero treats the quota as exhausted.
	MissingQuotaPolicy string
}

// Validate returns nil when the range is acceptable, *ConflictError when it
// clashes with an existing fact.
func (v *Validator) Validate(ctx context.Context, employeeID, leaveTypeID string, from, to time.Time, halfDay bool) error {
	from, to = Day(from), Day(to)

	if err := v.CheckPresentDays(ctx, employeeID, from, to); err != nil {
		return err
	}

	holidays, err := v.Holidays.InRange(ctx, from, to)
	if err != nil {
		return err
	}
	if len(holidays) > 0 {
		conflict := &ConflictError{Check: "holiday"}
		for _, h := range holidays {
			conflict.Holidays = append(conflict.Holidays, h.Name)
		}
		// Days outermost so a day covered by overlapping holidays is
		// listed once.
		for _, day := range RangeDays(from, to) {
			for _, h := range holidays {
				if !day.Before(Day(h.StartDate)) && !day.After(Day(h.EndDate)) {
					conflict.Dates = append(conflict.Dates, day)
					break
				}
			}
		}
		return conflict
	}

	requested, err := RequestedDays(from, to, halfDay)
	if err != nil {
		return err
	}
	entry, err := v.Quotas.Get(ctx, employeeID, leaveTypeID, from.Year())
	if errors.Is(err, ledger.ErrNoEntry) {
		if v.MissingQuotaPolicy == config.QuotaMissingZero {
			return &ConflictError{Check: "balance", Requested: requested, Available: entry.Remaining()}
		}
		return nil
	}
	if err != nil {
		return err
	}
	if requested.GreaterThan(entry.Remaining()) {
		return &ConflictError{Check: "balance", Requested: requested, Available: entry.Remaining()}
	}
	return nil
}

// CheckPresentDays fails when the employee already has a present record
// inside the range. The state machine re-runs this one check defensively at
// approval time, since an employee can mark themselves present between
// submission and approval.
func (v *Validator) CheckPresentDays(ctx context.Context, employeeID string, from, to time.Time) error {
	days, err := v.Attendance.DaysWithStatus(ctx, employeeID, Day(from), Day(to), attendance.StatusPresent)
	if err != nil {
		return err
	}
	if len(days) > 0 {
		return &ConflictError{Check: "attendance", Dates: days}
	}
	return nil
}
