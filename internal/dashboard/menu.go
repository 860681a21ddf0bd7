// Package dashboard implements the role dashboards: rider bookings and
// transactions, vendor ticket and booking management, and the
// administrator's moderation tools.  Every mutation is followed by a full
// re-fetch of the affected list; nothing is patched locally.
package dashboard

import "github.com/iliyamo/ticketbari-web/internal/role"

// MenuItem is one dashboard navigation entry.
type MenuItem struct {
	Label string `json:"label"`
	Path  string `json:"path"`
}

var (
	riderMenu = []MenuItem{
		{"User Profile", "/dashboard/user/profile"},
		{"My Booked Tickets", "/dashboard/user/bookings"},
		{"Transaction History", "/dashboard/user/transactions"},
	}
	vendorMenu = []MenuItem{
		{"Vendor Profile", "/dashboard/vendor/profile"},
		{"Add Ticket", "/dashboard/vendor/tickets/new"},
		{"My Added Tickets", "/dashboard/vendor/tickets"},
		{"Requested Bookings", "/dashboard/vendor/bookings"},
		{"Revenue Overview", "/dashboard/vendor/revenue"},
	}
	adminMenu = []MenuItem{
		{"Admin Profile", "/dashboard/admin/profile"},
		{"Manage Tickets", "/dashboard/admin/tickets"},
		{"Manage Users", "/dashboard/admin/users"},
		{"Advertise Tickets", "/dashboard/admin/advertise"},
	}
	homeItem = MenuItem{"Back to Home", "/"}
)

// Menu composes the dashboard menu for r.  The first entry is always the
// role's landing page.
func Menu(r role.Role) []MenuItem {
	var items []MenuItem
	switch r {
	case role.Vendor:
		items = vendorMenu
	case role.Administrator:
		items = adminMenu
	default:
		items = riderMenu
	}
	out := make([]MenuItem, 0, len(items)+1)
	out = append(out, items...)
	return append(out, homeItem)
}
