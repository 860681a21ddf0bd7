// Package router defines how HTTP routes are registered.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ticketbari-web/internal/handler"
	"github.com/iliyamo/ticketbari-web/internal/middleware"
	"github.com/iliyamo/ticketbari-web/internal/role"
)

// Handlers bundles everything the routes need.
type Handlers struct {
	Auth      *handler.AuthHandler
	Public    *handler.PublicHandler
	Booking   *handler.BookingHandler
	Dashboard *handler.DashboardHandler

	Roles    middleware.RoleResolver
	Limit    echo.MiddlewareFunc // sign-in rate limit
	Cache    echo.MiddlewareFunc // home page response cache
	Sessions echo.MiddlewareFunc // session loader
}

// RegisterRoutes registers the health check, which needs no session.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the sign-in endpoints.  The mutating ones are
// rate limited.
func RegisterAuth(e *echo.Echo, h Handlers) {
	e.GET("/login", h.Auth.LoginPage, h.Sessions)
	e.POST("/login", h.Auth.Login, h.Sessions, h.Limit)
	e.POST("/login/provider", h.Auth.LoginProvider, h.Sessions, h.Limit)
	e.POST("/register", h.Auth.Register, h.Sessions, h.Limit)
	e.POST("/password/forgot", h.Auth.ForgotPassword, h.Sessions, h.Limit)
	e.POST("/logout", h.Auth.Logout, h.Sessions)
}

// RegisterPublic registers the catalog and the ticket details page.  The
// home page strips are the same for every visitor and go through the
// response cache; they do not need a session.
func RegisterPublic(e *echo.Echo, h Handlers) {
	e.GET("/tickets/latest", h.Public.Latest, h.Cache)
	e.GET("/tickets/advertised", h.Public.Advertised, h.Cache)

	g := e.Group("/tickets", h.Sessions)
	g.GET("", h.Public.Tickets)
	g.GET("/:id", h.Public.Ticket, middleware.RequireAuth(), middleware.ResolveRole(h.Roles))

	rider := g.Group("/:id", middleware.RequireAuth(), middleware.RequireRole(h.Roles, role.Rider))
	rider.POST("/quote", h.Booking.Quote)
	rider.POST("/bookings", h.Booking.Create)
}
