package auth

import (
	"context"
	"testing"
)

func TestRolePermissionsEscalate(t *testing.T) {
	for role, perms := range RolePermissions {
		if len(perms) == 0 {
			t.Fatalf("role %s has no permissions", role)
		}
	}

	// Everything an employee may do, a manager may do; everything a manager
	// may do, an admin may do.
	for _, perm := range RolePermissions[RoleEmployee] {
		if !contains(RolePermissions[RoleManager], perm) {
			t.Fatalf("manager missing employee permission %s", perm)
		}
	}
	for _, perm := range RolePermissions[RoleManager] {
		if !contains(RolePermissions[RoleAdmin], perm) {
			t.Fatalf("admin missing manager permission %s", perm)
		}
	}
}

func TestOnlyAdminAssignsQuotas(t *testing.T) {
	if contains(RolePermissions[RoleEmployee], PermQuotaAssign) {
		t.Fatal("employee must not assign quotas")
	}
	if contains(RolePermissions[RoleManager], PermQuotaAssign) {
		t.Fatal("manager must not assign quotas")
	}
	if !contains(RolePermissions[RoleAdmin], PermQuotaAssign) {
		t.Fatal("admin must assign quotas")
	}
}

func TestStoreHasPermission(t *testing.T) {
	store := &Store{}

	ok, err := store.HasPermission(context.Background(), RoleManager, PermLeaveApprove)
	if err != nil || !ok {
		t.Fatalf("manager should approve leave: ok=%v err=%v", ok, err)
	}

	ok, err = store.HasPermission(context.Background(), RoleEmployee, PermLeaveApprove)
	if err != nil || ok {
		t.Fatalf("employee should not approve leave: ok=%v err=%v", ok, err)
	}

	ok, err = store.HasPermission(context.Background(), "Unknown", PermLeaveRead)
	if err != nil || ok {
		t.Fatalf("unknown role should have nothing: ok=%v err=%v", ok, err)
	}
}

func contains(perms []string, perm string) bool {
	for _, p := range perms {
		if p == perm {
			return true
		}
	}
	return false
}
