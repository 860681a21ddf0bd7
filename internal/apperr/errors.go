// Package apperr defines the error taxonomy shared by the client packages.
// Handlers translate these into HTTP responses; nothing in the client retries
// on any of them.
package apperr

import "fmt"

// Authentication failures reported by the session manager.
var (
	ErrInvalidCredentials = AuthenticationError{Reason: "invalid credentials"}
	ErrProviderCancelled  = AuthenticationError{Reason: "provider sign-in cancelled"}
	ErrProviderError      = AuthenticationError{Reason: "provider sign-in failed"}
	ErrEmailInUse         = AuthenticationError{Reason: "email already in use"}
	ErrWeakPassword       = AuthenticationError{Reason: "password is too weak"}
	ErrAccountNotFound    = AuthenticationError{Reason: "no account with that email"}
)

// AuthenticationError covers bad credentials, cancelled provider sign-in and
// registration refusals.
type AuthenticationError struct {
	Reason string
	Err    error
}

func (e AuthenticationError) Error() string {
	if e.Reason == "" {
		return "authentication failed"
	}
	return e.Reason
}

func (e AuthenticationError) Unwrap() error { return e.Err }

// Is matches on Reason so that a wrapped provider error still compares equal
// to the exported sentinels.
func (e AuthenticationError) Is(target error) bool {
	t, ok := target.(AuthenticationError)
	return ok && t.Reason == e.Reason
}

// AuthorizationError is a role mismatch.  The guard chain turns it into a
// redirect rather than an error message.
type AuthorizationError struct {
	Role   string
	Action string
}

func (e AuthorizationError) Error() string {
	if e.Action == "" {
		return fmt.Sprintf("role %s not permitted", e.Role)
	}
	return fmt.Sprintf("role %s not permitted to %s", e.Role, e.Action)
}

// ValidationError is a client-side input problem detected before anything is
// submitted.
type ValidationError struct {
	Field string
	Msg   string
}

func (e ValidationError) Error() string {
	switch {
	case e.Field != "" && e.Msg != "":
		return fmt.Sprintf("%s: %s", e.Field, e.Msg)
	case e.Msg != "":
		return e.Msg
	case e.Field != "":
		return fmt.Sprintf("invalid %s", e.Field)
	}
	return "validation error"
}

// RemoteError is a non-2xx answer from the backend.  Message carries the
// server-provided reason when there was one.
type RemoteError struct {
	Status  int
	Message string
}

// GenericRemoteMessage is shown when the backend gave no reason.
const GenericRemoteMessage = "request failed"

func (e RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s (status %d)", GenericRemoteMessage, e.Status)
	}
	return e.Message
}

// PaymentError wraps a failure in either payment stage.  The booking stays
// accepted so the rider can try again.
type PaymentError struct {
	Stage string // "tokenize" or "confirm"
	Err   error
}

const (
	StageTokenize = "tokenize"
	StageConfirm  = "confirm"
)

func (e PaymentError) Error() string {
	if e.Err == nil {
		return "payment " + e.Stage + " failed"
	}
	return e.Err.Error()
}

func (e PaymentError) Unwrap() error { return e.Err }
