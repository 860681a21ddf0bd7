package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ticketbari-web/internal/session"
)

// identity names the caller for rate limiting and logs: the signed-in
// email, else the session id, else "anon".
func identity(c echo.Context) string {
	s, ok := c.Get(sessionKey).(*session.Session)
	if !ok || s == nil {
		return "anon"
	}
	if p, ok := s.Principal(); ok && p.Email != "" {
		return p.Email
	}
	if s.ID != "" {
		return "sid:" + s.ID
	}
	return "anon"
}
