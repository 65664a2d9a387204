package directory

import (
	"fmt"
	"time"
)

// AccessLevel is the closed set of access labels a role can carry. It is
// resolved once, when a role row is read, so the rest of the system never
// compares raw label strings.
type AccessLevel string

const (
	AccessAdmin    AccessLevel = "admin"
	AccessManager  AccessLevel = "manager"
	AccessEmployee AccessLevel = "employee"
)

func ParseAccessLevel(value string) (AccessLevel, error) {
	switch AccessLevel(value) {
	case AccessAdmin, AccessManager, AccessEmployee:
		return AccessLevel(value), nil
	}
	return "", fmt.Errorf("unknown access level %q", value)
}

type Role struct {
	ID     string      `json:"id"`
	Name   string      `json:"name"`
	Level  int         `json:"level"` // higher is more senior
	Access AccessLevel `json:"access"`
}

type Department struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Employee struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Email        string    `json:"email"`
	DepartmentID string    `json:"departmentId"`
	RoleID       string    `json:"roleId"`
	ManagerID    *string   `json:"managerId,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Snapshot is a point-in-time view of the directory. The approver resolver
// is a pure function of one snapshot; employees are ordered by ascending id
// so resolution is reproducible.
type Snapshot struct {
	Employees []Employee
	Roles     map[string]Role
}

func (s Snapshot) Role(roleID string) (Role, bool) {
	role, ok := s.Roles[roleID]
	return role, ok
}

// HighestLevel returns the top hierarchy level present in the snapshot.
func (s Snapshot) HighestLevel() int {
	highest := 0
	for _, role := range s.Roles {
		if role.Level > highest {
			highest = role.Level
		}
	}
	return highest
}
