// Package session owns the signed-in state of one browser: the principal
// issued by the authentication provider, the bearer credential issued by the
// backend and the role resolved for that principal.
package session

import (
	"sync"

	"github.com/iliyamo/ticketbari-web/internal/model"
	"github.com/iliyamo/ticketbari-web/internal/role"
)

// Session is the context object handed to every request.  Principal,
// credential and role are read and written together under mu so a reader
// never sees a credential that belongs to a different principal.
type Session struct {
	ID string

	mu         sync.RWMutex
	principal  *model.Principal
	credential string

	// role is only meaningful when resolved is true and roleFor matches the
	// current principal's email.
	resolved bool
	roleFor  string
	res      role.Resolution
}

// New returns an empty (signed-out) session with the given id.
func New(id string) *Session { return &Session{ID: id} }

// Principal returns the signed-in principal, if any.
func (s *Session) Principal() (model.Principal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.principal == nil {
		return model.Principal{}, false
	}
	return *s.principal, true
}

// Authenticated reports whether a principal is present.
func (s *Session) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.principal != nil
}

// Credential returns the backend bearer credential.  It may be empty for a
// signed-in principal whose credential exchange failed.
func (s *Session) Credential() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.credential
}

// Role returns the resolved role for the current principal.  resolved is
// false while no resolution has completed for this principal.
func (s *Session) Role() (r role.Role, resolved bool) {
	res, ok := s.Resolution()
	return res.Role, ok
}

// Resolution is like Role but also carries the lookup error, if the role is
// the fail-open default.
func (s *Session) Resolution() (role.Resolution, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.principal == nil || !s.resolved || s.roleFor != s.principal.Email {
		return role.Resolution{}, false
	}
	return s.res, true
}

// SetResolution caches res for the principal identified by email.  It is a
// no-op, returning false, when the session has since signed out or switched
// principal, so a late lookup can not attach a role to the wrong person.
func (s *Session) SetResolution(email string, res role.Resolution) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.principal == nil || s.principal.Email != email {
		return false
	}
	s.resolved = true
	s.roleFor = email
	s.res = res
	return true
}

// set installs a freshly authenticated principal.  A different principal
// invalidates the cached role.
func (s *Session) set(p model.Principal, credential string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.principal == nil || s.principal.Email != p.Email {
		s.resolved = false
		s.roleFor = ""
		s.res = role.Resolution{}
	}
	cp := p
	s.principal = &cp
	s.credential = credential
}

// Clear signs the session out.  Principal, credential and role are dropped
// in one critical section.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.principal = nil
	s.credential = ""
	s.resolved = false
	s.roleFor = ""
	s.res = role.Resolution{}
}
