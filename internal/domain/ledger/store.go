package ledger

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"leavedesk/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

func (s *Store) Get(ctx context.Context, employeeID, leaveTypeID string, year int) (Entry, error) {
	var e Entry
	err := s.DB.QueryRow(ctx, `
    SELECT id, employee_id, leave_type_id, year, total_days, used_days, updated_at
    FROM leave_quotas
    WHERE employee_id = $1 AND leave_type_id = $2 AND year = $3
  `, employeeID, leaveTypeID, year).Scan(&e.ID, &e.EmployeeID, &e.LeaveTypeID, &e.Year, &e.TotalDays, &e.UsedDays, &e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, ErrNoEntry
	}
	return e, err
}

// Assign sets the yearly total for an employee and leave type, creating the
// row on first assignment. Used days are untouched.
func (s *Store) Assign(ctx context.Context, employeeID, leaveTypeID string, year int, totalDays decimal.Decimal) (Entry, error) {
	var e Entry
	err := s.DB.QueryRow(ctx, `
    INSERT INTO leave_quotas (employee_id, leave_type_id, year, total_days, used_days)
    VALUES ($1, $2, $3, $4, 0)
    ON CONFLICT (employee_id, leave_type_id, year) DO UPDATE
    SET total_days = EXCLUDED.total_days, updated_at = now()
    RETURNING id, employee_id, leave_type_id, year, total_days, used_days, updated_at
  `, employeeID, leaveTypeID, year, totalDays).Scan(&e.ID, &e.EmployeeID, &e.LeaveTypeID, &e.Year, &e.TotalDays, &e.UsedDays, &e.UpdatedAt)
	return e, err
}

// AddUsed applies delta to used_days in a single server-side update so
// concurrent approvals touching the same row stay commutative. Never
// read-modify-write this column in application code.
func (s *Store) AddUsed(ctx context.Context, employeeID, leaveTypeID string, year int, delta decimal.Decimal) (Entry, error) {
	var e Entry
	err := s.DB.QueryRow(ctx, `
    UPDATE leave_quotas
    SET used_days = used_days + $4, updated_at = now()
    WHERE employee_id = $1 AND leave_type_id = $2 AND year = $3
    RETURNING id, employee_id, leave_type_id, year, total_days, used_days, updated_at
  `, employeeID, leaveTypeID, year, delta).Scan(&e.ID, &e.EmployeeID, &e.LeaveTypeID, &e.Year, &e.TotalDays, &e.UsedDays, &e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, ErrNoEntry
	}
	return e, err
}

func (s *Store) ListByEmployee(ctx context.Context, employeeID string, year int) ([]Entry, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, employee_id, leave_type_id, year, total_days, used_days, updated_at
    FROM leave_quotas
    WHERE employee_id = $1 AND year = $2
    ORDER BY leave_type_id
  `, employeeID, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.EmployeeID, &e.LeaveTypeID, &e.Year, &e.TotalDays, &e.UsedDays, &e.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) ListAll(ctx context.Context, year int) ([]Entry, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, employee_id, leave_type_id, year, total_days, used_days, updated_at
    FROM leave_quotas
    WHERE year = $1
    ORDER BY employee_id, leave_type_id
  `, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.EmployeeID, &e.LeaveTypeID, &e.Year, &e.TotalDays, &e.UsedDays, &e.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
