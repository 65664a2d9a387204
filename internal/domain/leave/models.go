package leave

import (
	"fmt"
	"time"
)

type Status string

const (
	StatusOpen     Status = "open"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

func ParseStatus(value string) (Status, error) {
	switch Status(value) {
	case StatusOpen, StatusApproved, StatusRejected:
		return Status(value), nil
	}
	return "", fmt.Errorf("unknown leave status %q", value)
}

type LeaveType struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	IsPaid    bool      `json:"isPaid"`
	CreatedAt time.Time `json:"createdAt"`
}

// Request is one leave request. FromDate and ToDate are inclusive calendar
// dates. HalfDay forces the day count to 0.5 regardless of range length.
// Once a request leaves Open, its dates and half-day flag are immutable so a
// reversal always undoes exactly what approval did.
type Request struct {
	ID          string     `json:"id"`
	EmployeeID  string     `json:"employeeId"`
	LeaveTypeID string     `json:"leaveTypeId"`
	FromDate    time.Time  `json:"fromDate"`
	ToDate      time.Time  `json:"toDate"`
	HalfDay     bool       `json:"halfDay"`
	Reason      string     `json:"reason"`
	ApproverID  *string    `json:"approverId,omitempty"`
	Status      Status     `json:"status"`
	Comments    *string    `json:"comments,omitempty"`
	ApprovedAt  *time.Time `json:"approvedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}
