package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ticketbari-web/internal/apperr"
	"github.com/iliyamo/ticketbari-web/internal/guard"
	"github.com/iliyamo/ticketbari-web/internal/model"
	"github.com/iliyamo/ticketbari-web/internal/role"
)

// RoleResolver looks up a principal's role.  *role.Resolver implements it.
type RoleResolver interface {
	Resolve(ctx context.Context, p model.Principal, bearer string) role.Resolution
}

// RequireAuth admits any signed-in principal.  Anyone else is sent to the
// sign-in page with the requested path remembered in "from".
func RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			s := CurrentSession(c)
			in := guard.Input{Authenticated: s.Authenticated(), Target: target(c)}
			if d := guard.Decide(in); d.State != guard.AuthenticatedAllowed {
				return respondDecision(c, in, d)
			}
			return next(c)
		}
	}
}

// ResolveRole makes sure the session carries a role for its principal
// before the handler runs.  It does nothing for signed-out sessions.
func ResolveRole(r RoleResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			Resolve(c, r)
			return next(c)
		}
	}
}

// RequireRole admits a signed-in principal whose role is one of roles.  The
// role is resolved once per principal; while it is unresolved the request
// gets a 202 loading answer and no decision is made.  A denied principal is
// redirected to the landing page of their own role.
func RequireRole(r RoleResolver, roles ...role.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			s := CurrentSession(c)
			in := guard.Input{Authenticated: s.Authenticated(), Allowed: roles, Target: target(c)}
			if in.Authenticated {
				in.Role, in.Resolved = Resolve(c, r)
			}
			if d := guard.Decide(in); d.State != guard.AuthenticatedAllowed {
				return respondDecision(c, in, d)
			}
			return next(c)
		}
	}
}

// Resolve returns the cached role of the current principal, resolving it
// first when needed.  resolved stays false when the request was cancelled
// mid-lookup or the session switched principal meanwhile.
func Resolve(c echo.Context, r RoleResolver) (role.Role, bool) {
	s := CurrentSession(c)
	if got, ok := s.Role(); ok {
		return got, true
	}
	p, ok := s.Principal()
	if !ok {
		return role.Rider, false
	}
	ctx := c.Request().Context()
	res := r.Resolve(ctx, p, s.Credential())
	if ctx.Err() != nil {
		return role.Rider, false
	}
	if !s.SetResolution(p.Email, res) {
		return role.Rider, false
	}
	return res.Role, true
}

func target(c echo.Context) string { return c.Request().URL.RequestURI() }

// respondDecision answers a request the guard did not admit.  Page
// navigations (GET asking for HTML) get a 303; API calls get a JSON body
// carrying the redirect.
func respondDecision(c echo.Context, in guard.Input, d guard.Decision) error {
	switch d.State {
	case guard.AuthenticatedUnresolved:
		return c.JSON(http.StatusAccepted, echo.Map{"state": d.State.String(), "loading": true})
	case guard.Unauthenticated:
		if wantsHTML(c) {
			return c.Redirect(http.StatusSeeOther, d.Redirect)
		}
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required", "redirect": d.Redirect})
	default:
		if wantsHTML(c) {
			return c.Redirect(http.StatusSeeOther, d.Redirect)
		}
		denied := apperr.AuthorizationError{Role: string(in.Role), Action: "open " + c.Path()}
		return c.JSON(http.StatusForbidden, echo.Map{"error": denied.Error(), "redirect": d.Redirect})
	}
}

func wantsHTML(c echo.Context) bool {
	r := c.Request()
	return r.Method == http.MethodGet && strings.Contains(r.Header.Get(echo.HeaderAccept), echo.MIMETextHTML)
}
