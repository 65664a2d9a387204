package holiday

import (
	"context"
	"time"

	"leavedesk/internal/platform/querier"
)

// Store owns the company holiday calendar. The leave engine only calls
// InRange; list/create/delete back the HR administration endpoints.
type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

// InRange returns every holiday overlapping the inclusive [from, to] range,
// ordered by start date.
func (s *Store) InRange(ctx context.Context, from, to time.Time) ([]Holiday, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, name, start_date, end_date, days, created_at
    FROM holidays
    WHERE start_date <= $2 AND end_date >= $1
    ORDER BY start_date
  `, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Holiday
	for rows.Next() {
		var h Holiday
		if err := rows.Scan(&h.ID, &h.Name, &h.StartDate, &h.EndDate, &h.Days, &h.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (s *Store) List(ctx context.Context) ([]Holiday, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, name, start_date, end_date, days, created_at
    FROM holidays
    ORDER BY start_date
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Holiday
	for rows.Next() {
		var h Holiday
		if err := rows.Scan(&h.ID, &h.Name, &h.StartDate, &h.EndDate, &h.Days, &h.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (s *Store) Create(ctx context.Context, name string, startDate, endDate time.Time) (string, error) {
	days := int(endDate.Sub(startDate).Hours()/24) + 1
	var id string
	if err := s.DB.QueryRow(ctx, `
    INSERT INTO holidays (name, start_date, end_date, days)
    VALUES ($1,$2,$3,$4)
    RETURNING id
  `, name, startDate, endDate, days).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) Delete(ctx context.Context, holidayID string) error {
	_, err := s.DB.Exec(ctx, "DELETE FROM holidays WHERE id = $1", holidayID)
	return err
}
