package attendance

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"leavedesk/internal/platform/querier"
)

var ErrNotFound = errors.New("attendance: record not found")

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

const recordColumns = "id, employee_id, day, status, check_in, check_out, total_hours, created_at, updated_at"

func scanRecord(row pgx.Row) (Record, error) {
	var rec Record
	var status string
	err := row.Scan(&rec.ID, &rec.EmployeeID, &rec.Day, &status, &rec.CheckIn, &rec.CheckOut, &rec.TotalHours, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, err
	}
	rec.Status, err = ParseStatus(status)
	return rec, err
}

func (s *Store) ByEmployeeAndDay(ctx context.Context, employeeID string, day time.Time) (Record, error) {
	row := s.DB.QueryRow(ctx, `
    SELECT `+recordColumns+`
    FROM attendance_records
    WHERE employee_id = $1 AND day = $2
  `, employeeID, day)
	return scanRecord(row)
}

func (s *Store) ListRange(ctx context.Context, employeeID string, from, to time.Time) ([]Record, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+recordColumns+`
    FROM attendance_records
    WHERE employee_id = $1 AND day BETWEEN $2 AND $3
    ORDER BY day
  `, employeeID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var status string
		if err := rows.Scan(&rec.ID, &rec.EmployeeID, &rec.Day, &status, &rec.CheckIn, &rec.CheckOut, &rec.TotalHours, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		if rec.Status, err = ParseStatus(status); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// DaysWithStatus returns the days in the inclusive [from, to] range on which
// the employee has a record with the given status, in ascending order.
func (s *Store) DaysWithStatus(ctx context.Context, employeeID string, from, to time.Time, status Status) ([]time.Time, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT day
    FROM attendance_records
    WHERE employee_id = $1 AND day BETWEEN $2 AND $3 AND status = $4
    ORDER BY day
  `, employeeID, from, to, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []time.Time
	for rows.Next() {
		var day time.Time
		if err := rows.Scan(&day); err != nil {
			return nil, err
		}
		out = append(out, day)
	}
	return out, rows.Err()
}

// UpsertOnLeave writes the synthesized on-leave row for one day. The upsert
// is a single statement so concurrent approvals keyed on the same day stay
// commutative. An existing human-entered record is overwritten to on_leave;
// its check-in/out times are cleared since the day is no longer worked.
func (s *Store) UpsertOnLeave(ctx context.Context, employeeID string, day time.Time, hours float64) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO attendance_records (employee_id, day, status, total_hours)
    VALUES ($1, $2, $3, $4)
    ON CONFLICT (employee_id, day) DO UPDATE
    SET status = EXCLUDED.status,
        total_hours = EXCLUDED.total_hours,
        check_in = NULL,
        check_out = NULL,
        updated_at = now()
    WHERE attendance_records.status <> EXCLUDED.status
  `, employeeID, day, string(StatusOnLeave), hours)
	return err
}

// DeleteOnLeave removes the synthesized row for one day. Records a human
// overwrote after approval carry a different status and are left alone.
func (s *Store) DeleteOnLeave(ctx context.Context, employeeID string, day time.Time) error {
	_, err := s.DB.Exec(ctx, `
    DELETE FROM attendance_records
    WHERE employee_id = $1 AND day = $2 AND status = $3
  `, employeeID, day, string(StatusOnLeave))
	return err
}

func (s *Store) CheckIn(ctx context.Context, employeeID string, day time.Time, at time.Time) (Record, error) {
	row := s.DB.QueryRow(ctx, `
    INSERT INTO attendance_records (employee_id, day, status, check_in)
    VALUES ($1, $2, $3, $4)
    ON CONFLICT (employee_id, day) DO UPDATE
    SET status = EXCLUDED.status,
        check_in = COALESCE(attendance_records.check_in, EXCLUDED.check_in),
        updated_at = now()
    RETURNING `+recordColumns+`
  `, employeeID, day, string(StatusPresent), at)
	return scanRecord(row)
}

func (s *Store) CheckOut(ctx context.Context, employeeID string, day time.Time, at time.Time) (Record, error) {
	row := s.DB.QueryRow(ctx, `
    UPDATE attendance_records
    SET check_out = $3,
        total_hours = EXTRACT(EPOCH FROM ($3 - check_in)) / 3600,
        updated_at = now()
    WHERE employee_id = $1 AND day = $2 AND check_in IS NOT NULL
    RETURNING `+recordColumns+`
  `, employeeID, day, at)
	return scanRecord(row)
}

func (s *Store) CreateManual(ctx context.Context, employeeID string, day time.Time, status Status, hours *float64) (Record, error) {
	row := s.DB.QueryRow(ctx, `
    INSERT INTO attendance_records (employee_id, day, status, total_hours)
    VALUES ($1, $2, $3, $4)
    ON CONFLICT (employee_id, day) DO UPDATE
    SET status = EXCLUDED.status,
        total_hours = EXCLUDED.total_hours,
        updated_at = now()
    RETURNING `+recordColumns+`
  `, employeeID, day, string(status), hours)
	return scanRecord(row)
}

func (s *Store) DeleteByID(ctx context.Context, recordID string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM attendance_records WHERE id = $1", recordID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
