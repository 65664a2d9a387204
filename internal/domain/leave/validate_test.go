package leave

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"leavedesk/internal/domain/attendance"
	"leavedesk/internal/domain/holiday"
	"leavedesk/internal/domain/ledger"
	"leavedesk/internal/platform/config"
)

type calendarFake struct {
	presentDays []time.Time
	holidays    []holiday.Holiday
	entry       ledger.Entry
	entryErr    error

	attendanceCalls int
	holidayCalls    int
	quotaCalls      int
}

func (f *calendarFake) DaysWithStatus(ctx context.Context, employeeID string, from, to time.Time, status attendance.Status) ([]time.Time, error) {
	f.attendanceCalls++
	var out []time.Time
	for _, day := range f.presentDays {
		if !day.Before(from) && !day.After(to) {
			out = append(out, day)
		}
	}
	return out, nil
}

func (f *calendarFake) InRange(ctx context.Context, from, to time.Time) ([]holiday.Holiday, error) {
	f.holidayCalls++
	var out []holiday.Holiday
	for _, h := range f.holidays {
		if !h.StartDate.After(to) && !h.EndDate.Before(from) {
			out = append(out, h)
		}
	}
	return out, nil
}

func (f *calendarFake) Get(ctx context.Context, employeeID, leaveTypeID string, year int) (ledger.Entry, error) {
	f.quotaCalls++
	return f.entry, f.entryErr
}

func newValidator(f *calendarFake, policy string) *Validator {
	return &Validator{Attendance: f, Holidays: f, Quotas: f, MissingQuotaPolicy: policy}
}

func entry(total, used string) ledger.Entry {
	return ledger.Entry{
		TotalDays: decimal.RequireFromString(total),
		UsedDays:  decimal.RequireFromString(used),
	}
}

func TestValidatePasses(t *testing.T) {
	fake := &calendarFake{entry: entry("20", "5")}
	v := newValidator(fake, config.QuotaMissingUnlimited)

	err := v.Validate(context.Background(), "e1", "lt1", date(2025, time.March, 10), date(2025, time.March, 12), false)
	require.NoError(t, err)
}

func TestValidateAttendanceConflict(t *testing.T) {
	fake := &calendarFake{
		presentDays: []time.Time{date(2025, time.March, 11)},
		entry:       entry("20", "0"),
	}
	v := newValidator(fake, config.QuotaMissingUnlimited)

	err := v.Validate(context.Background(), "e1", "lt1", date(2025, time.March, 10), date(2025, time.March, 12), false)

	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	require.Equal(t, "attendance", conflict.Check)
	require.Equal(t, []time.Time{date(2025, time.March, 11)}, conflict.Dates)
}

func TestValidateHolidayConflict(t *testing.T) {
	fake := &calendarFake{
		holidays: []holiday.Holiday{{
			Name:      "Spring Festival",
			StartDate: date(2025, time.March, 11),
			EndDate:   date(2025, time.March, 11),
		}},
		entry: entry("20", "0"),
	}
	v := newValidator(fake, config.QuotaMissingUnlimited)

	err := v.Validate(context.Background(), "e1", "lt1", date(2025, time.March, 10), date(2025, time.March, 12), false)

	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	require.Equal(t, "holiday", conflict.Check)
	require.Equal(t, []string{"Spring Festival"}, conflict.Holidays)
	require.Equal(t, []time.Time{date(2025, time.March, 11)}, conflict.Dates)
}

func TestValidateOverlappingHolidaysListEachDayOnce(t *testing.T) {
	fake := &calendarFake{
		holidays: []holiday.Holiday{
			{
				Name:      "Spring Festival",
				StartDate: date(2025, time.March, 10),
				EndDate:   date(2025, time.March, 11),
			},
			{
				Name:      "Founders Day",
				StartDate: date(2025, time.March, 11),
				EndDate:   date(2025, time.March, 11),
			},
		},
		entry: entry("20", "0"),
	}
	v := newValidator(fake, config.QuotaMissingUnlimited)

	err := v.Validate(context.Background(), "e1", "lt1", date(2025, time.March, 10), date(2025, time.March, 12), false)

	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	require.Equal(t, []string{"Spring Festival", "Founders Day"}, conflict.Holidays)
	require.Equal(t, []time.Time{date(2025, time.March, 10), date(2025, time.March, 11)}, conflict.Dates)
}

func TestValidateBalanceConflict(t *testing.T) {
	fake := &calendarFake{entry: entry("10", "8")}
	v := newValidator(fake, config.QuotaMissingUnlimited)

	err := v.Validate(context.Background(), "e1", "lt1", date(2025, time.March, 10), date(2025, time.March, 14), false)

	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	require.Equal(t, "balance", conflict.Check)
	require.Equal(t, "5", conflict.Requested.String())
	require.Equal(t, "2", conflict.Available.String())
}

func TestValidateHalfDayFitsSmallBalance(t *testing.T) {
	fake := &calendarFake{entry: entry("10", "9.5")}
	v := newValidator(fake, config.QuotaMissingUnlimited)

	err := v.Validate(context.Background(), "e1", "lt1", date(2025, time.March, 10), date(2025, time.March, 10), true)
	require.NoError(t, err)
}

func TestValidateChecksShortCircuitInOrder(t *testing.T) {
	// A range that violates all three rules must report attendance first and
	// never reach the later checks.
	fake := &calendarFake{
		presentDays: []time.Time{date(2025, time.March, 10)},
		holidays: []holiday.Holiday{{
			Name:      "Spring Festival",
			StartDate: date(2025, time.March, 11),
			EndDate:   date(2025, time.March, 11),
		}},
		entry: entry("0", "0"),
	}
	v := newValidator(fake, config.QuotaMissingUnlimited)

	err := v.Validate(context.Background(), "e1", "lt1", date(2025, time.March, 10), date(2025, time.March, 12), false)

	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	require.Equal(t, "attendance", conflict.Check)
	require.Equal(t, 1, fake.attendanceCalls)
	require.Zero(t, fake.holidayCalls)
	require.Zero(t, fake.quotaCalls)
}

func TestValidateMissingQuotaUnlimited(t *testing.T) {
	fake := &calendarFake{entryErr: ledger.ErrNoEntry}
	v := newValidator(fake, config.QuotaMissingUnlimited)

	err := v.Validate(context.Background(), "e1", "lt1", date(2025, time.March, 10), date(2025, time.March, 12), false)
	require.NoError(t, err)
}

func TestValidateMissingQuotaZero(t *testing.T) {
	fake := &calendarFake{entryErr: ledger.ErrNoEntry}
	v := newValidator(fake, config.QuotaMissingZero)

	err := v.Validate(context.Background(), "e1", "lt1", date(2025, time.March, 10), date(2025, time.March, 12), false)

	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	require.Equal(t, "balance", conflict.Check)
}

func TestCheckPresentDays(t *testing.T) {
	fake := &calendarFake{presentDays: []time.Time{date(2025, time.March, 12)}}
	v := newValidator(fake, config.QuotaMissingUnlimited)

	err := v.CheckPresentDays(context.Background(), "e1", date(2025, time.March, 10), date(2025, time.March, 14))

	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	require.Equal(t, "attendance", conflict.Check)

	require.NoError(t, v.CheckPresentDays(context.Background(), "e1", date(2025, time.April, 1), date(2025, time.April, 2)))
}
