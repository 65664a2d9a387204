package ledger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrNoEntry is returned when no quota row exists for the requested
// (employee, leave type, year).
var ErrNoEntry = errors.New("ledger: no quota entry")

// ConsistencyError reports a debit or credit that would leave the ledger
// internally contradictory: a credit driving used below zero, or a debit
// driving the remaining balance negative. It indicates a bug or a race, not
// a user mistake, and is logged with full before/after state before being
// returned.
type ConsistencyError struct {
	Op          string
	EmployeeID  string
	LeaveTypeID string
	Year        int
	Delta       decimal.Decimal
	Before      Entry
	After       Entry
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("ledger: %s of %s for employee %s type %s year %d would leave used=%s of total=%s",
		e.Op, e.Delta, e.EmployeeID, e.LeaveTypeID, e.Year, e.After.UsedDays, e.After.TotalDays)
}
