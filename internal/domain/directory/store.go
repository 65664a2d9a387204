package directory

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"leavedesk/internal/platform/querier"
)

var ErrNotFound = errors.New("directory: not found")

// Store reads employee, role and department rows. The leave engine never
// writes through it; employee CRUD lives elsewhere.
type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

func (s *Store) EmployeeByID(ctx context.Context, employeeID string) (Employee, error) {
	var e Employee
	err := s.DB.QueryRow(ctx, `
    SELECT id, user_id, first_name, last_name, email, department_id, role_id, manager_id, created_at
    FROM employees
    WHERE id = $1
  `, employeeID).Scan(&e.ID, &e.UserID, &e.FirstName, &e.LastName, &e.Email, &e.DepartmentID, &e.RoleID, &e.ManagerID, &e.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Employee{}, ErrNotFound
	}
	return e, err
}

func (s *Store) EmployeeByUserID(ctx context.Context, userID string) (Employee, error) {
	var e Employee
	err := s.DB.QueryRow(ctx, `
    SELECT id, user_id, first_name, last_name, email, department_id, role_id, manager_id, created_at
    FROM employees
    WHERE user_id = $1
  `, userID).Scan(&e.ID, &e.UserID, &e.FirstName, &e.LastName, &e.Email, &e.DepartmentID, &e.RoleID, &e.ManagerID, &e.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Employee{}, ErrNotFound
	}
	return e, err
}

func (s *Store) RoleByID(ctx context.Context, roleID string) (Role, error) {
	var r Role
	var access string
	err := s.DB.QueryRow(ctx, `
    SELECT id, name, level, access
    FROM roles
    WHERE id = $1
  `, roleID).Scan(&r.ID, &r.Name, &r.Level, &access)
	if errors.Is(err, pgx.ErrNoRows) {
		return Role{}, ErrNotFound
	}
	if err != nil {
		return Role{}, err
	}
	r.Access, err = ParseAccessLevel(access)
	return r, err
}

// Snapshot loads every employee and role in one consistent read, ordered by
// employee id. The approver resolver runs against the result.
func (s *Store) Snapshot(ctx context.Context) (Snapshot, error) {
	snap := Snapshot{Roles: make(map[string]Role)}

	rows, err := s.DB.Query(ctx, `
    SELECT id, name, level, access
    FROM roles
  `)
	if err != nil {
		return Snapshot{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var r Role
		var access string
		if err := rows.Scan(&r.ID, &r.Name, &r.Level, &access); err != nil {
			return Snapshot{}, err
		}
		if r.Access, err = ParseAccessLevel(access); err != nil {
			return Snapshot{}, err
		}
		snap.Roles[r.ID] = r
	}
	if err := rows.Err(); err != nil {
		return Snapshot{}, err
	}

	empRows, err := s.DB.Query(ctx, `
    SELECT id, user_id, first_name, last_name, email, department_id, role_id, manager_id, created_at
    FROM employees
    ORDER BY id
  `)
	if err != nil {
		return Snapshot{}, err
	}
	defer empRows.Close()
	for empRows.Next() {
		var e Employee
		if err := empRows.Scan(&e.ID, &e.UserID, &e.FirstName, &e.LastName, &e.Email, &e.DepartmentID, &e.RoleID, &e.ManagerID, &e.CreatedAt); err != nil {
			return Snapshot{}, err
		}
		snap.Employees = append(snap.Employees, e)
	}
	return snap, empRows.Err()
}

func (s *Store) ListDepartments(ctx context.Context) ([]Department, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, name
    FROM departments
    ORDER BY name
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Department
	for rows.Next() {
		var d Department
		if err := rows.Scan(&d.ID, &d.Name); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
