package authz

// Default role names created for every new company.
const (
	RoleAdmin    = "Admin"
	RoleEmployee = "Employee"
)

// AdminPermissions is the permission set of the Admin role. admin.all
// alone would be sufficient; the explicit tokens keep the role readable
// in API responses.
func AdminPermissions() []string {
	return []string{
		PermAdminAll,
		"users.create", "users.read", "users.update", "users.delete",
		"roles.create", "roles.read", "roles.update", "roles.delete",
		"tasks.create", "tasks.read", "tasks.update", "tasks.delete",
		"categories.create", "categories.read", "categories.update", "categories.delete",
		"submissions.create", "submissions.read", "submissions.update", "submissions.delete", "submissions.review",
		"files.create", "files.read", "files.update", "files.delete",
		"analytics.read", "analytics.export",
		"settings.read", "settings.update",
	}
}

// EmployeePermissions is the permission set of the default Employee role.
func EmployeePermissions() []string {
	return []string{
		"tasks.read",
		"categories.read",
		"submissions.create", "submissions.read",
		"files.create", "files.read",
	}
}

// Role descriptions shown in the roles listing.
const (
	AdminRoleDescription    = "Full system access with ability to manage users, tasks, and all company settings"
	EmployeeRoleDescription = "Standard employee access to view tasks and submit work"
)
