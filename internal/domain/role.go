package domain

// Role is an ordered privilege level. Higher values carry more privilege.
type Role int

const (
	RoleUser Role = iota
	RoleAdmin
)

var roleNames = map[Role]string{
	RoleUser:  "User",
	RoleAdmin: "Admin",
}

// Roles lists every role from lowest to highest privilege.
func Roles() []Role {
	return []Role{RoleUser, RoleAdmin}
}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return roleNames[RoleUser]
}

// Satisfies reports whether r grants at least the privilege of required.
func (r Role) Satisfies(required Role) bool {
	return r >= required
}

// ParseRole maps a role name to a Role. Matching is exact and case-sensitive;
// unknown names resolve to the lowest-privilege role.
func ParseRole(name string) Role {
	for role, n := range roleNames {
		if n == name {
			return role
		}
	}
	return RoleUser
}
