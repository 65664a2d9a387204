package auth

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"leavedesk/internal/platform/querier"
)

var ErrUserNotFound = errors.New("auth: user not found")

type User struct {
	ID           string
	Email        string
	PasswordHash string
	EmployeeID   string
	RoleID       string
	RoleName     string
}

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

func (s *Store) UserByEmail(ctx context.Context, email string) (User, error) {
	var u User
	err := s.DB.QueryRow(ctx, `
    SELECT u.id, u.email, u.password_hash, COALESCE(e.id, ''), e.role_id, r.name
    FROM users u
    JOIN employees e ON e.user_id = u.id
    JOIN roles r ON r.id = e.role_id
    WHERE u.email = $1
  `, email).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.EmployeeID, &u.RoleID, &u.RoleName)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	return u, err
}

// HasPermission checks the static role permission table. Satisfies the
// transport middleware's PermissionStore.
func (s *Store) HasPermission(ctx context.Context, roleName, permission string) (bool, error) {
	for _, granted := range RolePermissions[roleName] {
		if granted == permission {
			return true, nil
		}
	}
	return false, nil
}
