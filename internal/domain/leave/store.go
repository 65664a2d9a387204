package leave

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"leavedesk/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

const requestColumns = "id, employee_id, leave_type_id, from_date, to_date, half_day, reason, approver_id, status, comments, approved_at, created_at"

func scanRequest(row pgx.Row) (Request, error) {
	var req Request
	var status string
	err := row.Scan(&req.ID, &req.EmployeeID, &req.LeaveTypeID, &req.FromDate, &req.ToDate, &req.HalfDay, &req.Reason, &req.ApproverID, &status, &req.Comments, &req.ApprovedAt, &req.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Request{}, ErrNotFound
	}
	if err != nil {
		return Request{}, err
	}
	req.Status, err = ParseStatus(status)
	return req, err
}

func (s *Store) Create(ctx context.Context, req Request) (Request, error) {
	row := s.DB.QueryRow(ctx, `
    INSERT INTO leave_requests (employee_id, leave_type_id, from_date, to_date, half_day, reason, approver_id, status)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
    RETURNING `+requestColumns+`
  `, req.EmployeeID, req.LeaveTypeID, req.FromDate, req.ToDate, req.HalfDay, req.Reason, req.ApproverID, string(req.Status))
	return scanRequest(row)
}

func (s *Store) ByID(ctx context.Context, requestID string) (Request, error) {
	row := s.DB.QueryRow(ctx, `
    SELECT `+requestColumns+`
    FROM leave_requests
    WHERE id = $1
  `, requestID)
	return scanRequest(row)
}

// SetDecision records the outcome of a transition. Dates and the half-day
// flag are deliberately not touched here. The update is a compare-and-set
// on the status the caller read: if a concurrent decision got there first
// the write matches nothing and ErrStatusChanged is returned, so the
// transaction (and its ledger and attendance writes) rolls back instead of
// applying the side effects twice.
func (s *Store) SetDecision(ctx context.Context, requestID string, prior, status Status, approverID string, comments *string, decidedAt time.Time) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE leave_requests
    SET status = $3, approver_id = $4, comments = $5, approved_at = $6
    WHERE id = $1 AND status = $2
  `, requestID, string(prior), string(status), approverID, comments, decidedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrStatusChanged
	}
	return nil
}

// UpdateFields applies a generic edit. Only fields editable outside the
// dedicated approve/reject actions are written. Guarded on the status the
// caller read, same as SetDecision.
func (s *Store) UpdateFields(ctx context.Context, req Request, prior Status) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE leave_requests
    SET from_date = $3, to_date = $4, half_day = $5, reason = $6, status = $7, comments = $8, approver_id = $9, approved_at = $10
    WHERE id = $1 AND status = $2
  `, req.ID, string(prior), req.FromDate, req.ToDate, req.HalfDay, req.Reason, string(req.Status), req.Comments, req.ApproverID, req.ApprovedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrStatusChanged
	}
	return nil
}

type ListFilter struct {
	EmployeeID string
	ApproverID string
	Status     string
	Limit      int
	Offset     int
}

func (s *Store) List(ctx context.Context, filter ListFilter) ([]Request, int, error) {
	where := " WHERE 1=1"
	args := []any{}
	if filter.EmployeeID != "" {
		args = append(args, filter.EmployeeID)
		where += fmt.Sprintf(" AND employee_id = $%d", len(args))
	}
	if filter.ApproverID != "" {
		args = append(args, filter.ApproverID)
		where += fmt.Sprintf(" AND approver_id = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}

	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM leave_requests"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := "SELECT " + requestColumns + " FROM leave_requests" + where + " ORDER BY created_at DESC"
	args = append(args, filter.Limit, filter.Offset)
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Request
	for rows.Next() {
		var req Request
		var status string
		if err := rows.Scan(&req.ID, &req.EmployeeID, &req.LeaveTypeID, &req.FromDate, &req.ToDate, &req.HalfDay, &req.Reason, &req.ApproverID, &status, &req.Comments, &req.ApprovedAt, &req.CreatedAt); err != nil {
			return nil, 0, err
		}
		if req.Status, err = ParseStatus(status); err != nil {
			return nil, 0, err
		}
		out = append(out, req)
	}
	return out, total, rows.Err()
}

func (s *Store) ListTypes(ctx context.Context) ([]LeaveType, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, name, code, is_paid, created_at
    FROM leave_types
    ORDER BY name
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var types []LeaveType
	for rows.Next() {
		var t LeaveType
		if err := rows.Scan(&t.ID, &t.Name, &t.Code, &t.IsPaid, &t.CreatedAt); err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, rows.Err()
}

func (s *Store) CreateType(ctx context.Context, payload LeaveType) (string, error) {
	var id string
	if err := s.DB.QueryRow(ctx, `
    INSERT INTO leave_types (name, code, is_paid)
    VALUES ($1,$2,$3)
    RETURNING id
  `, payload.Name, payload.Code, payload.IsPaid).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) TypeExists(ctx context.Context, leaveTypeID string) (bool, error) {
	var count int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM leave_types WHERE id = $1", leaveTypeID).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}
