package ledger

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shopspring/decimal"

	"leavedesk/internal/platform/config"
)

type StoreAPI interface {
	Get(ctx context.Context, employeeID, leaveTypeID string, year int) (Entry, error)
	Assign(ctx context.Context, employeeID, leaveTypeID string, year int, totalDays decimal.Decimal) (Entry, error)
	AddUsed(ctx context.Context, employeeID, leaveTypeID string, year int, delta decimal.Decimal) (Entry, error)
	ListByEmployee(ctx context.Context, employeeID string, year int) ([]Entry, error)
	ListAll(ctx context.Context, year int) ([]Entry, error)
}

// Service wraps the quota store with the debit/credit invariants: values are
// never clamped, contradictions are logged with before/after state and
// returned as ConsistencyError so the surrounding transaction rolls back.
//
// missingPolicy decides what an absent quota row means for debits and
// credits. Under config.QuotaMissingUnlimited the employee's usage is
// simply untracked and both operations succeed without writing, so a
// request that passed validation without a row can still complete its
// lifecycle. Under config.QuotaMissingZero the absence is an error.
type Service struct {
	store         StoreAPI
	missingPolicy string
}

func NewService(store StoreAPI, missingPolicy string) *Service {
	return &Service{store: store, missingPolicy: missingPolicy}
}

func (s *Service) Get(ctx context.Context, employeeID, leaveTypeID string, year int) (Entry, error) {
	return s.store.Get(ctx, employeeID, leaveTypeID, year)
}

func (s *Service) Assign(ctx context.Context, employeeID, leaveTypeID string, year int, totalDays decimal.Decimal) (Entry, error) {
	return s.store.Assign(ctx, employeeID, leaveTypeID, year, totalDays)
}

func (s *Service) ListByEmployee(ctx context.Context, employeeID string, year int) ([]Entry, error) {
	return s.store.ListByEmployee(ctx, employeeID, year)
}

func (s *Service) ListAll(ctx context.Context, year int) ([]Entry, error) {
	return s.store.ListAll(ctx, year)
}

// Debit consumes days from the quota. A debit that drives the remaining
// balance negative is a consistency violation: the validator should have
// blocked the request, so either a race or a bug got us here.
func (s *Service) Debit(ctx context.Context, employeeID, leaveTypeID string, year int, days decimal.Decimal) (Entry, error) {
	after, err := s.store.AddUsed(ctx, employeeID, leaveTypeID, year, days)
	if errors.Is(err, ErrNoEntry) && s.missingPolicy == config.QuotaMissingUnlimited {
		return Entry{}, nil
	}
	if err != nil {
		return Entry{}, err
	}
	if after.Remaining().IsNegative() {
		return Entry{}, s.violation(ctx, "debit", employeeID, leaveTypeID, year, days, after)
	}
	return after, nil
}

// Credit returns days to the quota on reversal. Crediting back more than
// was ever debited leaves used_days negative, which is contradictory.
func (s *Service) Credit(ctx context.Context, employeeID, leaveTypeID string, year int, days decimal.Decimal) (Entry, error) {
	after, err := s.store.AddUsed(ctx, employeeID, leaveTypeID, year, days.Neg())
	if errors.Is(err, ErrNoEntry) && s.missingPolicy == config.QuotaMissingUnlimited {
		return Entry{}, nil
	}
	if err != nil {
		return Entry{}, err
	}
	if after.UsedDays.IsNegative() {
		return Entry{}, s.violation(ctx, "credit", employeeID, leaveTypeID, year, days, after)
	}
	return after, nil
}

func (s *Service) violation(ctx context.Context, op, employeeID, leaveTypeID string, year int, days decimal.Decimal, after Entry) error {
	before := after
	if op == "debit" {
		before.UsedDays = after.UsedDays.Sub(days)
	} else {
		before.UsedDays = after.UsedDays.Add(days)
	}
	slog.ErrorContext(ctx, "quota ledger consistency violation",
		"op", op,
		"employeeId", employeeID,
		"leaveTypeId", leaveTypeID,
		"year", year,
		"days", days.String(),
		"usedBefore", before.UsedDays.String(),
		"usedAfter", after.UsedDays.String(),
		"total", after.TotalDays.String(),
	)
	return &ConsistencyError{
		Op:          op,
		EmployeeID:  employeeID,
		LeaveTypeID: leaveTypeID,
		Year:        year,
		Delta:       days,
		Before:      before,
		After:       after,
	}
}
