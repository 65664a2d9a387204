package leave

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound  = errors.New("leave: request not found")
	ErrForbidden = errors.New("leave: forbidden")

	// ErrStatusChanged means a guarded write found the request in a
	// different status than the caller read, i.e. a concurrent decision
	// won the race.
	ErrStatusChanged = errors.New("leave: request status changed")
)

// ValidationError reports malformed or missing input. Nothing has been
// written when it is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("leave: invalid %s: %s", e.Field, e.Reason)
}

// ConflictError reports a submission or approval that clashes with existing
// facts: recorded attendance, a company holiday, or the remaining quota. It
// carries the specifics so the caller can display them.
type ConflictError struct {
	Check     string // "attendance", "holiday" or "balance"
	Dates     []time.Time
	Holidays  []string
	Requested decimal.Decimal
	Available decimal.Decimal
}

func (e *ConflictError) Error() string {
	switch e.Check {
	case "attendance":
		return "leave: attendance already recorded on " + joinDates(e.Dates)
	case "holiday":
		return fmt.Sprintf("leave: range includes company holiday %s on %s",
			strings.Join(e.Holidays, ", "), joinDates(e.Dates))
	case "balance":
		return fmt.Sprintf("leave: requested %s days but only %s remaining",
			e.Requested, e.Available)
	}
	return "leave: conflict"
}

func joinDates(dates []time.Time) string {
	parts := make([]string, 0, len(dates))
	for _, d := range dates {
		parts = append(parts, d.Format("2006-01-02"))
	}
	return strings.Join(parts, ", ")
}

// StateError reports a transition the current status does not permit, such
// as approving an already-approved request or rejecting without comments.
// It carries the current status so the caller can refresh its view.
type StateError struct {
	Current Status
	Reason  string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("leave: %s (current status %s)", e.Reason, e.Current)
}
