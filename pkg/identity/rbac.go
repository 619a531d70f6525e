package identity

// PermissionWildcard grants every permission unconditionally for a role.
const PermissionWildcard = "*"

// rolePermissions is the static role→permission table. OWNER, ADMIN and
// SUPER_ADMIN carry the wildcard entry and are also short-circuited through
// fullAccessRoles; both grant paths are load-bearing and covered by tests.
var rolePermissions = map[Role][]string{
	RoleOwner:      {PermissionWildcard},
	RoleAdmin:      {PermissionWildcard},
	RoleSuperAdmin: {PermissionWildcard},
	RoleAnalyst:    {"read", "write", "analyze", "council", "graph", "pulse", "lens", "bridge"},
	RoleViewer:     {"read", "council"},
}

var fullAccessRoles = map[Role]bool{
	RoleOwner:      true,
	RoleAdmin:      true,
	RoleSuperAdmin: true,
}

// HasPermission reports whether the user's role grants the named permission.
// A nil user or unknown role never holds any permission.
func HasPermission(u *User, permission string) bool {
	if u == nil {
		return false
	}
	if fullAccessRoles[u.Role] {
		return true
	}
	perms, ok := rolePermissions[u.Role]
	if !ok {
		return false
	}
	for _, p := range perms {
		if p == PermissionWildcard || p == permission {
			return true
		}
	}
	return false
}

// HasRole reports whether the user's role is a member of the given set.
func HasRole(u *User, roles ...Role) bool {
	if u == nil {
		return false
	}
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}

// Permissions returns a copy of the permission list for a role. Unknown roles
// return nil.
func Permissions(r Role) []string {
	perms, ok := rolePermissions[r]
	if !ok {
		return nil
	}
	out := make([]string, len(perms))
	copy(out, perms)
	return out
}
