package leave

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
)

func TestStoreSetDecisionGuardsOnPriorStatus(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	store := NewStore(mock)
	decidedAt := time.Now()

	mock.ExpectExec(regexp.QuoteMeta("WHERE id = $1 AND status = $2")).
		WithArgs("req-1", "open", "approved", "emp-mgr", (*string)(nil), decidedAt).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	if err := store.SetDecision(context.Background(), "req-1", StatusOpen, StatusApproved, "emp-mgr", nil, decidedAt); err != nil {
		t.Fatalf("SetDecision returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestStoreSetDecisionLostRace(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	store := NewStore(mock)
	decidedAt := time.Now()

	// A concurrent decision already moved the row off "open", so the
	// guarded update matches nothing.
	mock.ExpectExec(regexp.QuoteMeta("WHERE id = $1 AND status = $2")).
		WithArgs("req-1", "open", "approved", "emp-mgr", (*string)(nil), decidedAt).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err = store.SetDecision(context.Background(), "req-1", StatusOpen, StatusApproved, "emp-mgr", nil, decidedAt)
	if !errors.Is(err, ErrStatusChanged) {
		t.Fatalf("expected ErrStatusChanged, got %v", err)
	}
}

func TestStoreUpdateFieldsLostRace(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	store := NewStore(mock)
	req := Request{
		ID:          "req-1",
		EmployeeID:  "emp-1",
		LeaveTypeID: "lt-annual",
		FromDate:    time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC),
		ToDate:      time.Date(2025, time.March, 12, 0, 0, 0, 0, time.UTC),
		Status:      StatusApproved,
	}

	mock.ExpectExec(regexp.QuoteMeta("WHERE id = $1 AND status = $2")).
		WithArgs(req.ID, "open", req.FromDate, req.ToDate, req.HalfDay, req.Reason,
			"approved", req.Comments, req.ApproverID, req.ApprovedAt).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err = store.UpdateFields(context.Background(), req, StatusOpen)
	if !errors.Is(err, ErrStatusChanged) {
		t.Fatalf("expected ErrStatusChanged, got %v", err)
	}
}
