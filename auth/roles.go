package auth

// Role is a project-scoped role. The set is closed; authorization decisions
// go through Role methods rather than ad-hoc string comparisons.
type Role string

const (
	// RoleAdmin can manage the project, its members and their roles.
	RoleAdmin Role = "admin"
	// RoleMember can view and work inside the project.
	RoleMember Role = "member"
)

// IsValid checks if the role is one of the predefined valid roles
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleMember:
		return true
	default:
		return false
	}
}

// OneOf reports whether the role is contained in the allowed set. Unknown
// roles are never allowed, regardless of the set.
func (r Role) OneOf(allowed ...Role) bool {
	if !r.IsValid() {
		return false
	}
	for _, a := range allowed {
		if r == a {
			return true
		}
	}
	return false
}

// AllRoles returns all predefined roles
func AllRoles() []Role {
	return []Role{RoleAdmin, RoleMember}
}

// ParseRole safely parses a string into a Role type
func ParseRole(roleStr string) (Role, bool) {
	role := Role(roleStr)
	return role, role.IsValid()
}
