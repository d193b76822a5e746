// Package rbac implements role based access control for HTTP handlers.
//
// Konta has two roles: administrators manage the catalog, sellers and
// reports; sellers run the POS and execute their own preassigned sales
// orders.
package rbac

// Role names stored on users.role.
const (
	RoleAdmin  = "admin"
	RoleSeller = "seller"
)

// IsAdmin reports whether the role grants administrator rights.
func IsAdmin(role string) bool {
	return role == RoleAdmin
}
