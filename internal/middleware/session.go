package middleware

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ticketbari-web/internal/session"
)

// CookieName is the session cookie.  It only carries the opaque session id.
const CookieName = "sid"

const sessionKey = "session"

// SessionOptions control the cookie written by LoadSession.
type SessionOptions struct {
	Secure bool
	TTL    time.Duration
}

// LoadSession opens the session named by the sid cookie and stores it in
// the context.  A missing or unknown id gets a fresh signed-out session and
// a new cookie.
func LoadSession(m *session.Manager, opts SessionOptions) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var id string
			if ck, err := c.Cookie(CookieName); err == nil {
				id = ck.Value
			}
			s, err := m.Open(c.Request().Context(), id)
			if err != nil {
				c.Logger().Errorf("session: load %s: %v", id, err)
				return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "session store unavailable"})
			}
			if s.ID != id {
				WriteSessionCookie(c, s.ID, opts)
			}
			c.Set(sessionKey, s)
			return next(c)
		}
	}
}

// WriteSessionCookie (re)issues the session cookie.
func WriteSessionCookie(c echo.Context, id string, opts SessionOptions) {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = session.DefaultTTL
	}
	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(ttl / time.Second),
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// SetSession replaces the session of the current request, e.g. after a
// sign-in moved it to a new id.
func SetSession(c echo.Context, s *session.Session) { c.Set(sessionKey, s) }

// CurrentSession returns the session loaded by LoadSession.  Without the
// middleware it returns an empty signed-out session so handlers never see
// nil.
func CurrentSession(c echo.Context) *session.Session {
	if s, ok := c.Get(sessionKey).(*session.Session); ok && s != nil {
		return s
	}
	s := session.New("")
	c.Set(sessionKey, s)
	return s
}
