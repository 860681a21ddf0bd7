package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ticketbari-web/internal/middleware"
	"github.com/iliyamo/ticketbari-web/internal/role"
)

// RegisterDashboard registers the dashboards under /dashboard.  Every route
// requires a session; each role area admits only its role and redirects
// anyone else to their own landing page.
func RegisterDashboard(e *echo.Echo, h Handlers) {
	d := h.Dashboard
	g := e.Group("/dashboard", h.Sessions, middleware.RequireAuth(), middleware.ResolveRole(h.Roles))
	g.GET("", d.Home)
	g.GET("/menu", d.Menu)

	user := g.Group("/user", middleware.RequireRole(h.Roles, role.Rider))
	user.GET("/profile", d.Profile)
	user.GET("/bookings", d.RiderBookings)
	user.POST("/bookings/:id/pay", h.Booking.Pay)
	user.GET("/bookings/:id/ticket.pdf", h.Booking.TicketPDF)
	user.GET("/transactions", d.RiderTransactions)

	vendor := g.Group("/vendor", middleware.RequireRole(h.Roles, role.Vendor))
	vendor.GET("/profile", d.Profile)
	vendor.GET("/tickets", d.VendorTickets)
	vendor.GET("/tickets/new", d.TicketForm)
	vendor.POST("/tickets", d.AddTicket)
	vendor.PUT("/tickets/:id", d.UpdateTicket)
	vendor.DELETE("/tickets/:id", d.DeleteTicket)
	vendor.GET("/bookings", d.VendorBookings)
	vendor.PATCH("/bookings/:id", d.DecideBooking)
	vendor.GET("/revenue", d.VendorRevenue)

	admin := g.Group("/admin", middleware.RequireRole(h.Roles, role.Administrator))
	admin.GET("/profile", d.Profile)
	admin.GET("/tickets", d.AdminTickets)
	admin.PATCH("/tickets/:id/verify", d.VerifyTicket)
	admin.GET("/advertise", d.Advertise)
	admin.PATCH("/advertise/:id", d.ToggleAdvertise)
	admin.GET("/users", d.AdminUsers)
	admin.PATCH("/users/:id/role", d.SetUserRole)
	admin.PATCH("/users/:id/fraud", d.MarkFraud)
}
