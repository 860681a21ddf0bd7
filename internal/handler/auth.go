package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ticketbari-web/internal/auth"
	"github.com/iliyamo/ticketbari-web/internal/guard"
	"github.com/iliyamo/ticketbari-web/internal/middleware"
	"github.com/iliyamo/ticketbari-web/internal/model"
	"github.com/iliyamo/ticketbari-web/internal/session"
)

// AuthHandler bundles dependencies for the sign-in endpoints.
type AuthHandler struct {
	Sessions   *session.Manager
	Workspaces *Workspaces
	Cookie     middleware.SessionOptions
}

func NewAuthHandler(m *session.Manager, ws *Workspaces, cookie middleware.SessionOptions) *AuthHandler {
	return &AuthHandler{Sessions: m, Workspaces: ws, Cookie: cookie}
}

// ----- DTOs -----

type loginReq struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
	From     string `json:"from" form:"from"`
}

type providerReq struct {
	IDToken string `json:"idToken" form:"idToken"`
	From    string `json:"from" form:"from"`
}

type registerReq struct {
	Name     string `json:"name" form:"name"`
	Email    string `json:"email" form:"email"`
	PhotoURL string `json:"photoURL" form:"photoURL"`
	Password string `json:"password" form:"password"`
	From     string `json:"from" form:"from"`
}

type forgotReq struct {
	Email string `json:"email" form:"email"`
}

type signedInResp struct {
	Principal model.Principal `json:"principal"`
	Redirect  string          `json:"redirect"`
}

// LoginPage describes the sign-in page: where to return afterwards and
// whether the visitor is already signed in.
func (h *AuthHandler) LoginPage(c echo.Context) error {
	from := guard.SafeReturnPath(c.QueryParam("from"))
	s := middleware.CurrentSession(c)
	if p, ok := s.Principal(); ok {
		return c.JSON(http.StatusOK, echo.Map{"authenticated": true, "principal": p, "redirect": from})
	}
	return c.JSON(http.StatusOK, echo.Map{"authenticated": false, "from": from})
}

// Login signs in with email and password.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	return h.establish(c, req.From, http.StatusOK, func(s *session.Session) (model.Principal, error) {
		return h.Sessions.SignIn(c.Request().Context(), s, req.Email, req.Password)
	})
}

// LoginProvider completes a federated sign-in with the id token from the
// provider popup.
func (h *AuthHandler) LoginProvider(c echo.Context) error {
	var req providerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	return h.establish(c, req.From, http.StatusOK, func(s *session.Session) (model.Principal, error) {
		return h.Sessions.SignInWithProvider(c.Request().Context(), s, req.IDToken)
	})
}

// Register creates an account and signs it in.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	profile := auth.Profile{Name: strings.TrimSpace(req.Name), PhotoURL: strings.TrimSpace(req.PhotoURL)}
	return h.establish(c, req.From, http.StatusCreated, func(s *session.Session) (model.Principal, error) {
		return h.Sessions.Register(c.Request().Context(), s, req.Email, req.Password, profile)
	})
}

// ForgotPassword sends a password reset email.  The session is left as it
// is; the visitor goes back to the sign-in page.
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req forgotReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := h.Sessions.SendPasswordReset(c.Request().Context(), req.Email); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusAccepted, echo.Map{"sent": true, "redirect": guard.LoginPath})
}

// Logout clears the session and expires the cookie.
func (h *AuthHandler) Logout(c echo.Context) error {
	s := middleware.CurrentSession(c)
	h.Sessions.SignOut(c.Request().Context(), s)
	h.Workspaces.Drop(s.ID)
	c.SetCookie(&http.Cookie{
		Name:     middleware.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.Cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return c.JSON(http.StatusOK, echo.Map{"redirect": "/"})
}

// establish runs a sign-in on a fresh session.  On success the old session
// and its workspace are discarded and the cookie moves to the new id.
func (h *AuthHandler) establish(c echo.Context, from string, status int, signIn func(*session.Session) (model.Principal, error)) error {
	old := middleware.CurrentSession(c)
	fresh := h.Sessions.Fresh()
	p, err := signIn(fresh)
	if err != nil {
		return respondError(c, err)
	}
	if old.ID != "" {
		h.Sessions.SignOut(c.Request().Context(), old)
		h.Workspaces.Drop(old.ID)
	}
	middleware.WriteSessionCookie(c, fresh.ID, h.Cookie)
	middleware.SetSession(c, fresh)
	return c.JSON(status, signedInResp{Principal: p, Redirect: guard.SafeReturnPath(from)})
}
