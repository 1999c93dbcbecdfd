package models

type Role string

const (
	RoleUser  Role = "ROLE_USER"
	RoleAdmin Role = "ROLE_ADMIN"
)

// Permission names an operation guarded by role.
type Permission string

const (
	PermManageOwnContent Permission = "content:manage"
	PermDeleteFolder     Permission = "folder:delete"
)

var rolePermissions = map[Role][]Permission{
	RoleUser:  {PermManageOwnContent},
	RoleAdmin: {PermManageOwnContent, PermDeleteFolder},
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, ok := rolePermissions[r]
	return ok
}

// Permissions returns the operations granted to r. Unknown roles get none.
func (r Role) Permissions() []Permission {
	perms := rolePermissions[r]
	out := make([]Permission, len(perms))
	copy(out, perms)
	return out
}

// Can reports whether r grants p.
func (r Role) Can(p Permission) bool {
	for _, granted := range rolePermissions[r] {
		if granted == p {
			return true
		}
	}
	return false
}
