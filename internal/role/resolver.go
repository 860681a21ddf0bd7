package role

import (
	"context"
	"errors"
	"fmt"

	"github.com/labstack/gommon/log"

	"github.com/iliyamo/ticketbari-web/internal/api"
	"github.com/iliyamo/ticketbari-web/internal/model"
)

// ErrUnknownRole is recorded when the backend answers with a role string
// outside the closed set.
var ErrUnknownRole = errors.New("unknown role")

// Resolution is the outcome of one role lookup.  Role is always usable.
// Err is non-nil when the lookup failed or returned an unrecognized value;
// in that case Role is Rider and the resolution is degraded.
type Resolution struct {
	Role Role
	Err  error
}

// Degraded reports whether Role is the fail-open default rather than the
// backend's answer.
func (r Resolution) Degraded() bool { return r.Err != nil }

// Resolver fetches a principal's role from the backend.
type Resolver struct {
	Backend *api.Client
}

func NewResolver(backend *api.Client) *Resolver { return &Resolver{Backend: backend} }

// Resolve issues one GET /users/{email} with bearer attached.  Any failure
// (transport, 4xx, 5xx, unrecognized role) resolves to Rider; the error is
// kept on the Resolution and never returned.
func (r *Resolver) Resolve(ctx context.Context, p model.Principal, bearer string) Resolution {
	u, err := r.Backend.WithBearer(bearer).GetUser(ctx, p.Email)
	if err != nil {
		log.Warnf("role: lookup for %s failed, defaulting to rider: %v", p.Email, err)
		return Resolution{Role: Rider, Err: err}
	}
	// A missing role field is the backend's way of saying "user".
	if u.Role == "" {
		return Resolution{Role: Rider}
	}
	role, ok := Parse(u.Role)
	if !ok {
		err := fmt.Errorf("%w %q for %s", ErrUnknownRole, u.Role, p.Email)
		log.Warnf("role: %v, defaulting to rider", err)
		return Resolution{Role: Rider, Err: err}
	}
	return Resolution{Role: role}
}
