// Package guard decides what happens when a browser navigates to a gated
// page.  Decide is a pure function; the echo adapters live in
// internal/middleware.
package guard

import (
	"net/url"
	"strings"

	"github.com/iliyamo/ticketbari-web/internal/role"
)

// LoginPath is where unauthenticated visitors are sent.
const LoginPath = "/login"

// State is the outcome of one navigation attempt.
type State int

const (
	Unauthenticated State = iota
	AuthenticatedUnresolved
	AuthenticatedAllowed
	AuthenticatedDenied
)

func (s State) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case AuthenticatedUnresolved:
		return "authenticated-unresolved"
	case AuthenticatedAllowed:
		return "authenticated-allowed"
	case AuthenticatedDenied:
		return "authenticated-denied"
	}
	return "unknown"
}

// Input is everything a guard looks at.  An empty Allowed set means any
// authenticated principal may enter.
type Input struct {
	Authenticated bool
	Role          role.Role
	Resolved      bool
	Allowed       []role.Role
	Target        string
}

// Decision says whether to render Target, show a loading state or redirect.
type Decision struct {
	State    State
	Redirect string
}

// Decide evaluates one navigation attempt.
func Decide(in Input) Decision {
	if !in.Authenticated {
		return Decision{State: Unauthenticated, Redirect: LoginRedirect(in.Target)}
	}
	if len(in.Allowed) == 0 {
		return Decision{State: AuthenticatedAllowed}
	}
	if !in.Resolved {
		return Decision{State: AuthenticatedUnresolved}
	}
	for _, r := range in.Allowed {
		if r == in.Role {
			return Decision{State: AuthenticatedAllowed}
		}
	}
	return Decision{State: AuthenticatedDenied, Redirect: in.Role.Landing()}
}

// LoginRedirect builds the sign-in URL that remembers target for the
// post-login return.
func LoginRedirect(target string) string {
	target = SafeReturnPath(target)
	if target == "/" {
		return LoginPath
	}
	return LoginPath + "?" + url.Values{"from": {target}}.Encode()
}

// SafeReturnPath accepts only same-origin absolute paths.  Anything else,
// including scheme-relative "//host" forms, becomes "/".
func SafeReturnPath(p string) string {
	if p == "" || !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.HasPrefix(p, "/\\") {
		return "/"
	}
	u, err := url.Parse(p)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "/"
	}
	if strings.HasPrefix(u.Path, LoginPath) {
		return "/"
	}
	return p
}
