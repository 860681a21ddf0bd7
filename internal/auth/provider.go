// Package auth adapts the external authentication provider.  The session
// manager only sees the Provider interface; IdentityToolkit is the REST
// implementation used in production.
package auth

import (
	"context"

	"github.com/iliyamo/ticketbari-web/internal/model"
)

// Profile is the extra information collected at registration.
type Profile struct {
	Name     string `json:"name"`
	PhotoURL string `json:"photoURL"`
}

// Provider issues principals.  Implementations return the apperr
// authentication sentinels so callers can tell failures apart.
type Provider interface {
	SignIn(ctx context.Context, email, password string) (model.Principal, error)
	// SignInWithIDP completes a federated sign-in from a token the browser
	// obtained from the identity provider's popup.
	SignInWithIDP(ctx context.Context, idToken string) (model.Principal, error)
	Register(ctx context.Context, email, password string, profile Profile) (model.Principal, error)
	SignOut(ctx context.Context, p model.Principal) error
	// SendPasswordReset asks the provider to email a reset link.
	SendPasswordReset(ctx context.Context, email string) error
}
