package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func userWithRole(r Role) *User {
	return &User{ID: "u1", Email: "u1@example.com", Name: "U One", Role: r, OrganizationID: "org1", Status: "active"}
}

func TestHasPermissionFullAccessRoles(t *testing.T) {
	for _, role := range []Role{RoleOwner, RoleAdmin, RoleSuperAdmin} {
		u := userWithRole(role)
		assert.True(t, HasPermission(u, "read"), "role %s", role)
		assert.True(t, HasPermission(u, "anything"), "role %s", role)
		assert.True(t, HasPermission(u, "definitely-not-in-any-table"), "role %s", role)
	}
}

// Full-access roles are granted twice over: once by the explicit role
// short-circuit and once by the wildcard table entry. This pins both paths so
// removing one does not silently narrow access.
func TestFullAccessRolesDoubleGranted(t *testing.T) {
	for role := range fullAccessRoles {
		perms, ok := rolePermissions[role]
		require.True(t, ok, "role %s missing from permission table", role)
		require.Contains(t, perms, PermissionWildcard, "role %s missing wildcard entry", role)
	}
}

func TestHasPermissionAnalyst(t *testing.T) {
	u := userWithRole(RoleAnalyst)
	for _, p := range []string{"read", "write", "analyze", "council", "graph", "pulse", "lens", "bridge"} {
		assert.True(t, HasPermission(u, p), "permission %s", p)
	}
	assert.False(t, HasPermission(u, "admin"))
	assert.False(t, HasPermission(u, "delete"))
}

func TestHasPermissionViewer(t *testing.T) {
	u := userWithRole(RoleViewer)
	assert.True(t, HasPermission(u, "read"))
	assert.True(t, HasPermission(u, "council"))
	assert.False(t, HasPermission(u, "write"))
	assert.False(t, HasPermission(u, "analyze"))
}

func TestHasPermissionUnknownRoleOrNilUser(t *testing.T) {
	assert.False(t, HasPermission(nil, "read"))
	assert.False(t, HasPermission(userWithRole(Role("INTRUDER")), "read"))
	// The literal wildcard string must not grant access for non-privileged roles
	// beyond what the table already allows.
	assert.False(t, HasPermission(userWithRole(Role("INTRUDER")), PermissionWildcard))
}

func TestHasRole(t *testing.T) {
	u := userWithRole(RoleViewer)
	assert.True(t, HasRole(u, RoleViewer))
	assert.True(t, HasRole(u, RoleAdmin, RoleViewer))
	assert.False(t, HasRole(u, RoleAdmin))
	assert.False(t, HasRole(nil, RoleViewer))
}

func TestRoleValid(t *testing.T) {
	assert.True(t, RoleOwner.Valid())
	assert.True(t, RoleViewer.Valid())
	assert.False(t, Role("viewer").Valid())
	assert.False(t, Role("").Valid())
}

func TestUserPatchApply(t *testing.T) {
	u := *userWithRole(RoleAnalyst)
	name := "Renamed"
	patched := UserPatch{Name: &name}.Apply(u)

	assert.Equal(t, "Renamed", patched.Name)
	assert.Equal(t, u.Email, patched.Email)
	assert.Equal(t, u.Role, patched.Role)
	assert.Equal(t, u.OrganizationID, patched.OrganizationID)
	// Original untouched.
	assert.Equal(t, "U One", u.Name)
}

func TestPermissionsCopy(t *testing.T) {
	perms := Permissions(RoleViewer)
	require.Equal(t, []string{"read", "council"}, perms)
	perms[0] = "mutated"
	assert.Equal(t, []string{"read", "council"}, Permissions(RoleViewer))
	assert.Nil(t, Permissions(Role("UNKNOWN")))
}
