package attendance

import (
	"fmt"
	"time"
)

// Status is the closed set of per-day attendance states. OnLeave rows are
// synthesized by the leave engine; the rest come from check-ins or manual
// entry.
type Status string

const (
	StatusPresent      Status = "present"
	StatusAbsent       Status = "absent"
	StatusOnLeave      Status = "on_leave"
	StatusHalfDay      Status = "half_day"
	StatusWorkFromHome Status = "work_from_home"
)

func ParseStatus(value string) (Status, error) {
	switch Status(value) {
	case StatusPresent, StatusAbsent, StatusOnLeave, StatusHalfDay, StatusWorkFromHome:
		return Status(value), nil
	}
	return "", fmt.Errorf("unknown attendance status %q", value)
}

// Record is one employee-day. At most one record exists per (employee, day);
// the day column carries a calendar date, not an instant.
type Record struct {
	ID         string     `json:"id"`
	EmployeeID string     `json:"employeeId"`
	Day        time.Time  `json:"day"`
	Status     Status     `json:"status"`
	CheckIn    *time.Time `json:"checkIn,omitempty"`
	CheckOut   *time.Time `json:"checkOut,omitempty"`
	TotalHours *float64   `json:"totalHours,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}
