// Package role defines the closed set of authorization roles a principal can
// hold and resolves a principal's role from the backend.
package role

import "strings"

// Role is the authorization class of a principal.  Only the three values
// declared below are valid; anything else read from the backend is mapped
// to Rider at the resolver boundary.
type Role string

const (
	Rider         Role = "rider"
	Vendor        Role = "vendor"
	Administrator Role = "administrator"
)

// Parse maps a backend role string onto a Role.  The backend stores riders
// as "user" and administrators as "admin"; the canonical names are accepted
// as well.  ok is false for empty or unrecognized values.
func Parse(s string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "user", "rider":
		return Rider, true
	case "vendor":
		return Vendor, true
	case "admin", "administrator":
		return Administrator, true
	}
	return Rider, false
}

// Wire returns the string the backend uses for r.
func (r Role) Wire() string {
	switch r {
	case Vendor:
		return "vendor"
	case Administrator:
		return "admin"
	default:
		return "user"
	}
}

// Landing is the canonical dashboard path for r.  A principal who is denied
// a page is redirected here.
func (r Role) Landing() string {
	switch r {
	case Vendor:
		return "/dashboard/vendor/profile"
	case Administrator:
		return "/dashboard/admin/profile"
	default:
		return "/dashboard/user/profile"
	}
}

// CanBook reports whether r may create bookings.  Vendors and administrators
// never can, regardless of ticket state.
func (r Role) CanBook() bool { return r == Rider }

// Valid reports whether r is one of the declared roles.
func (r Role) Valid() bool {
	return r == Rider || r == Vendor || r == Administrator
}
