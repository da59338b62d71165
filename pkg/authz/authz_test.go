package authz_test

import (
	"testing"

	"github.com/nexushq/nexus-server/pkg/authz"
)

func principal(perms ...string) *authz.Principal {
	return &authz.Principal{
		UserID:      1,
		CompanyID:   1,
		RoleName:    "Custom",
		Permissions: perms,
	}
}

func TestHasPermission(t *testing.T) {
	tests := []struct {
		name     string
		perms    []string
		required string
		want     bool
	}{
		{"exact match", []string{"users.read"}, "users.read", true},
		{"missing token", []string{"users.read"}, "users.delete", false},
		{"empty set", nil, "users.read", false},
		{"admin.all grants anything", []string{"admin.all"}, "files.delete", true},
		{"admin.all grants unknown token", []string{"admin.all"}, "not.a.real.permission", true},
		{"admin.all among others", []string{"tasks.read", "admin.all"}, "settings.update", true},
		{"similar token is not a match", []string{"users.read"}, "users.rea", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := authz.HasPermission(principal(tt.perms...), tt.required); got != tt.want {
				t.Errorf("HasPermission(%v, %q) = %v, want %v", tt.perms, tt.required, got, tt.want)
			}
		})
	}
}

// Every token in the admin set must be granted, and admin.all must grant
// tokens outside the set too.
func TestAdminAllUniversality(t *testing.T) {
	p := principal("admin.all")
	checks := append(authz.AdminPermissions(), authz.EmployeePermissions()...)
	checks = append(checks, "some.future.permission")
	for _, perm := range checks {
		if !authz.HasPermission(p, perm) {
			t.Errorf("admin.all did not grant %q", perm)
		}
	}
}

func TestHasAny(t *testing.T) {
	tests := []struct {
		name     string
		perms    []string
		required []string
		want     bool
	}{
		{"one of two", []string{"tasks.read"}, []string{"tasks.update", "tasks.read"}, true},
		{"none", []string{"tasks.read"}, []string{"users.read", "users.update"}, false},
		{"empty required", []string{"tasks.read"}, nil, false},
		{"admin.all", []string{"admin.all"}, []string{"anything"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := authz.HasAny(principal(tt.perms...), tt.required); got != tt.want {
				t.Errorf("HasAny(%v, %v) = %v, want %v", tt.perms, tt.required, got, tt.want)
			}
		})
	}
}

func TestHasAll(t *testing.T) {
	tests := []struct {
		name     string
		perms    []string
		required []string
		want     bool
	}{
		{"all present", []string{"tasks.read", "tasks.update"}, []string{"tasks.read", "tasks.update"}, true},
		{"one missing", []string{"tasks.read"}, []string{"tasks.read", "tasks.update"}, false},
		{"empty required is vacuously true", []string{"tasks.read"}, nil, true},
		{"admin.all short-circuits", []string{"admin.all"}, []string{"a", "b", "c"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := authz.HasAll(principal(tt.perms...), tt.required); got != tt.want {
				t.Errorf("HasAll(%v, %v) = %v, want %v", tt.perms, tt.required, got, tt.want)
			}
		})
	}
}

func TestDefaultPermissionSets(t *testing.T) {
	admin := principal(authz.AdminPermissions()...)
	employee := principal(authz.EmployeePermissions()...)

	if !authz.HasPermission(admin, "users.delete") {
		t.Error("admin set should grant users.delete")
	}
	if authz.HasPermission(employee, "users.read") {
		t.Error("employee set should not grant users.read")
	}
	if !authz.HasPermission(employee, "files.create") {
		t.Error("employee set should grant files.create")
	}
	if authz.HasAll(employee, []string{"files.create", "files.delete"}) {
		t.Error("employee set should not satisfy files.delete")
	}
}
