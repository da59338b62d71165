// Package authz implements the permission gate used by every protected
// endpoint. It is pure and stateless: decisions depend only on the
// principal's permission set and the required tokens.
package authz

// PermAdminAll grants every other permission.
const PermAdminAll = "admin.all"

// Principal is the resolved identity of an authenticated request.
type Principal struct {
	UserID      uint
	CompanyID   uint
	CompanySlug string
	Email       string
	Name        string
	RoleName    string
	Permissions []string
}

// HasPermission reports whether the principal holds the required
// permission token. admin.all implies every permission.
func HasPermission(p *Principal, required string) bool {
	for _, perm := range p.Permissions {
		if perm == PermAdminAll || perm == required {
			return true
		}
	}
	return false
}

// HasAny reports whether the principal holds at least one of the
// required permission tokens.
func HasAny(p *Principal, required []string) bool {
	for _, perm := range required {
		if HasPermission(p, perm) {
			return true
		}
	}
	return false
}

// HasAll reports whether the principal holds every required permission
// token. admin.all short-circuits to true.
func HasAll(p *Principal, required []string) bool {
	if HasPermission(p, PermAdminAll) {
		return true
	}
	for _, perm := range required {
		if !HasPermission(p, perm) {
			return false
		}
	}
	return true
}

// IsAdmin reports whether the principal's role is the admin role.
func IsAdmin(p *Principal) bool {
	return p.RoleName == RoleAdmin
}
