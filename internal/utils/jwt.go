package utils // package utils provides helpers for inspecting bearer credentials

import (
	"time" // time values for expirations

	"github.com/golang-jwt/jwt/v5" // JWT library used to read claims from the backend's credential
)

// CredentialExpiry reads the expiration (exp) claim of a bearer credential
// issued by the backend.  The signature is not verified: the backend is the
// only party that can validate its own tokens, the client only needs to know
// how long to keep the credential around.  ok is false when the credential
// is not a JWT or carries no exp claim, in which case callers should treat
// it as opaque.
func CredentialExpiry(raw string) (exp time.Time, ok bool) {
	// ParseUnverified decodes header and claims without checking the
	// signature or the standard time claims.
	tok, _, err := jwt.NewParser().ParseUnverified(raw, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}
	// GetExpirationTime returns nil when the claim is absent.
	t, err := tok.Claims.GetExpirationTime()
	if err != nil || t == nil {
		return time.Time{}, false
	}
	return t.Time.UTC(), true
}

// CredentialTTL bounds max by the credential's remaining lifetime.  A
// credential that has already expired yields zero.
func CredentialTTL(raw string, max time.Duration, now time.Time) time.Duration {
	exp, ok := CredentialExpiry(raw)
	if !ok {
		return max
	}
	left := exp.Sub(now)
	if left <= 0 {
		return 0
	}
	if max > 0 && left > max {
		return max
	}
	return left
}
