package ledger

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"leavedesk/internal/platform/config"
)

type memStore struct {
	entries map[string]Entry
}

func key(employeeID, leaveTypeID string, year int) string {
	return fmt.Sprintf("%s|%s|%d", employeeID, leaveTypeID, year)
}

func (m *memStore) Get(ctx context.Context, employeeID, leaveTypeID string, year int) (Entry, error) {
	e, ok := m.entries[key(employeeID, leaveTypeID, year)]
	if !ok {
		return Entry{}, ErrNoEntry
	}
	return e, nil
}

func (m *memStore) Assign(ctx context.Context, employeeID, leaveTypeID string, year int, totalDays decimal.Decimal) (Entry, error) {
	k := key(employeeID, leaveTypeID, year)
	e, ok := m.entries[k]
	if !ok {
		e = Entry{EmployeeID: employeeID, LeaveTypeID: leaveTypeID, Year: year, UsedDays: decimal.Zero}
	}
	e.TotalDays = totalDays
	m.entries[k] = e
	return e, nil
}

func (m *memStore) AddUsed(ctx context.Context, employeeID, leaveTypeID string, year int, delta decimal.Decimal) (Entry, error) {
	k := key(employeeID, leaveTypeID, year)
	e, ok := m.entries[k]
	if !ok {
		return Entry{}, ErrNoEntry
	}
	e.UsedDays = e.UsedDays.Add(delta)
	m.entries[k] = e
	return e, nil
}

func (m *memStore) ListByEmployee(ctx context.Context, employeeID string, year int) ([]Entry, error) {
	return nil, nil
}

func (m *memStore) ListAll(ctx context.Context, year int) ([]Entry, error) {
	return nil, nil
}

func newTestService(total, used string) (*Service, *memStore) {
	store := &memStore{entries: map[string]Entry{
		key("e1", "lt1", 2025): {
			EmployeeID: "e1", LeaveTypeID: "lt1", Year: 2025,
			TotalDays: decimal.RequireFromString(total),
			UsedDays:  decimal.RequireFromString(used),
		},
	}}
	return NewService(store, config.QuotaMissingUnlimited), store
}

func TestDebitConsumesDays(t *testing.T) {
	svc, _ := newTestService("20", "5")

	after, err := svc.Debit(context.Background(), "e1", "lt1", 2025, decimal.NewFromInt(3))
	require.NoError(t, err)
	require.Equal(t, "8", after.UsedDays.String())
	require.Equal(t, "12", after.Remaining().String())
}

func TestDebitExactRemainingIsAllowed(t *testing.T) {
	svc, _ := newTestService("20", "15")

	after, err := svc.Debit(context.Background(), "e1", "lt1", 2025, decimal.NewFromInt(5))
	require.NoError(t, err)
	require.True(t, after.Remaining().IsZero())
}

func TestDebitPastRemainingIsConsistencyError(t *testing.T) {
	svc, store := newTestService("20", "18")

	_, err := svc.Debit(context.Background(), "e1", "lt1", 2025, decimal.NewFromInt(5))

	var violation *ConsistencyError
	require.ErrorAs(t, err, &violation)
	require.Equal(t, "debit", violation.Op)
	require.Equal(t, "18", violation.Before.UsedDays.String())
	require.Equal(t, "23", violation.After.UsedDays.String())

	// The store value is NOT clamped: the caller's transaction is expected
	// to roll the write back.
	require.Equal(t, "23", store.entries[key("e1", "lt1", 2025)].UsedDays.String())
}

func TestCreditReturnsDays(t *testing.T) {
	svc, _ := newTestService("20", "5")

	after, err := svc.Credit(context.Background(), "e1", "lt1", 2025, decimal.NewFromInt(3))
	require.NoError(t, err)
	require.Equal(t, "2", after.UsedDays.String())
}

func TestCreditBelowZeroIsConsistencyError(t *testing.T) {
	svc, _ := newTestService("20", "2")

	_, err := svc.Credit(context.Background(), "e1", "lt1", 2025, decimal.NewFromInt(5))

	var violation *ConsistencyError
	require.ErrorAs(t, err, &violation)
	require.Equal(t, "credit", violation.Op)
	require.Equal(t, "2", violation.Before.UsedDays.String())
	require.Equal(t, "-3", violation.After.UsedDays.String())
}

func TestDebitMissingEntryUnderZeroPolicy(t *testing.T) {
	svc := NewService(&memStore{entries: map[string]Entry{}}, config.QuotaMissingZero)

	_, err := svc.Debit(context.Background(), "e1", "lt1", 2025, decimal.NewFromInt(1))
	require.ErrorIs(t, err, ErrNoEntry)
}

func TestMissingEntryUnderUnlimitedPolicyIsUntracked(t *testing.T) {
	store := &memStore{entries: map[string]Entry{}}
	svc := NewService(store, config.QuotaMissingUnlimited)

	_, err := svc.Debit(context.Background(), "e1", "lt1", 2025, decimal.NewFromInt(3))
	require.NoError(t, err)
	_, err = svc.Credit(context.Background(), "e1", "lt1", 2025, decimal.NewFromInt(3))
	require.NoError(t, err)

	// No row is created as a side effect; usage stays untracked.
	require.Empty(t, store.entries)
}

func TestDebitCreditRoundTripRestoresBalance(t *testing.T) {
	svc, _ := newTestService("20", "0")

	_, err := svc.Debit(context.Background(), "e1", "lt1", 2025, decimal.RequireFromString("3.5"))
	require.NoError(t, err)
	after, err := svc.Credit(context.Background(), "e1", "lt1", 2025, decimal.RequireFromString("3.5"))
	require.NoError(t, err)
	require.True(t, after.UsedDays.IsZero())
}
