package models

// Role names. Admins and librarians share the staff surface; students only
// see their own records.
const (
	RoleAdmin     = "admin"
	RoleLibrarian = "librarian"
	RoleStudent   = "student"
)

// Roles lists every valid role name.
var Roles = []string{RoleAdmin, RoleLibrarian, RoleStudent}

// StaffRoles are the roles allowed to manage the catalog and circulation.
var StaffRoles = []string{RoleAdmin, RoleLibrarian}

// IsValidRole reports whether name is one of Roles.
func IsValidRole(name string) bool {
	for _, r := range Roles {
		if r == name {
			return true
		}
	}
	return false
}
