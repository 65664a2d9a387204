package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// Entry is the per-employee, per-leave-type, per-year quota balance. Rows
// are created lazily on first assignment; (employee, leave type, year) is
// unique.
type Entry struct {
	ID          string          `json:"id"`
	EmployeeID  string          `json:"employeeId"`
	LeaveTypeID string          `json:"leaveTypeId"`
	Year        int             `json:"year"`
	TotalDays   decimal.Decimal `json:"totalDays"`
	UsedDays    decimal.Decimal `json:"usedDays"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// Remaining returns total minus used. It can go negative when the ledger
// has drifted; callers decide how loudly to complain.
func (e Entry) Remaining() decimal.Decimal {
	return e.TotalDays.Sub(e.UsedDays)
}
