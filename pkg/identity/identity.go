// Package identity defines the authenticated principal and the role/permission
// model shared by the session controller, API client, and host programs.
//
// Purpose:
//
//	Typed representation of a Datacendia user plus the static role→permission
//	table used for client-side access checks. The authoritative copy of a user
//	lives in the platform identity service; clients hold a cached, possibly
//	stale copy.
//
// Thread Safety:
//
//	All functions are pure; User values are treated as immutable snapshots.
package identity

// Role is the fixed enumeration of platform roles.
type Role string

const (
	RoleViewer     Role = "VIEWER"
	RoleAnalyst    Role = "ANALYST"
	RoleAdmin      Role = "ADMIN"
	RoleSuperAdmin Role = "SUPER_ADMIN"
	RoleOwner      Role = "OWNER"
)

// Valid reports whether r is one of the known platform roles.
func (r Role) Valid() bool {
	switch r {
	case RoleViewer, RoleAnalyst, RoleAdmin, RoleSuperAdmin, RoleOwner:
		return true
	}
	return false
}

// User is the authenticated principal as reported by the identity service.
type User struct {
	ID             string `json:"id"`
	Email          string `json:"email"`
	Name           string `json:"name"`
	Role           Role   `json:"role"`
	OrganizationID string `json:"organizationId"`
	Status         string `json:"status"`
}

// UserPatch carries the fields an optimistic local update may overwrite.
// Nil fields are left untouched by Apply.
type UserPatch struct {
	Email  *string
	Name   *string
	Role   *Role
	Status *string
}

// Apply merges the patch into a copy of u and returns it.
func (p UserPatch) Apply(u User) User {
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
	if p.Status != nil {
		u.Status = *p.Status
	}
	return u
}
