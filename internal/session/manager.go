package session

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/labstack/gommon/log"

	"github.com/iliyamo/ticketbari-web/internal/api"
	"github.com/iliyamo/ticketbari-web/internal/apperr"
	"github.com/iliyamo/ticketbari-web/internal/auth"
	"github.com/iliyamo/ticketbari-web/internal/model"
	"github.com/iliyamo/ticketbari-web/internal/utils"
)

// DefaultTTL bounds a session when no TTL is configured.
const DefaultTTL = 24 * time.Hour

// Manager runs the sign-in pipeline: authenticate with the provider,
// exchange the principal's email for a backend credential, then persist.
type Manager struct {
	Provider auth.Provider
	Backend  *api.Client
	Store    Store
	TTL      time.Duration

	now func() time.Time
}

func NewManager(p auth.Provider, backend *api.Client, store Store, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{Provider: p, Backend: backend, Store: store, TTL: ttl, now: time.Now}
}

// Open returns the session stored under id.  Signed-out sessions are not
// stored, so an unknown id that is a well-formed session id stays a
// signed-out session under that id.  An empty or malformed id yields a
// fresh session with a new random id; callers compare s.ID to the id they
// asked for to decide whether to reissue the cookie.
func (m *Manager) Open(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return m.Fresh(), nil
	}
	rec, ok, err := m.Store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if ok && rec.Principal != nil {
		s := New(id)
		s.set(*rec.Principal, rec.Token)
		return s, nil
	}
	if _, err := uuid.Parse(id); err == nil {
		return New(id), nil
	}
	return m.Fresh(), nil
}

// Fresh returns a new signed-out session.  Sign-in handlers establish the
// principal on a fresh session so an id handed out before sign-in is never
// promoted.
func (m *Manager) Fresh() *Session { return New(uuid.NewString()) }

// SignIn authenticates an email/password pair.
func (m *Manager) SignIn(ctx context.Context, s *Session, email, password string) (model.Principal, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return model.Principal{}, apperr.ValidationError{Field: "email", Msg: "is required"}
	}
	if password == "" {
		return model.Principal{}, apperr.ValidationError{Field: "password", Msg: "is required"}
	}
	return m.establish(ctx, s, func(ctx context.Context) (model.Principal, error) {
		return m.Provider.SignIn(ctx, email, password)
	})
}

// SignInWithProvider completes a federated sign-in from the id token the
// browser got from the provider popup.  An empty token means the popup was
// dismissed.
func (m *Manager) SignInWithProvider(ctx context.Context, s *Session, idToken string) (model.Principal, error) {
	if strings.TrimSpace(idToken) == "" {
		return model.Principal{}, apperr.ErrProviderCancelled
	}
	return m.establish(ctx, s, func(ctx context.Context) (model.Principal, error) {
		return m.Provider.SignInWithIDP(ctx, idToken)
	})
}

// Register creates an account and signs it in.
func (m *Manager) Register(ctx context.Context, s *Session, email, password string, profile auth.Profile) (model.Principal, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return model.Principal{}, apperr.ValidationError{Field: "email", Msg: "is required"}
	}
	if strings.TrimSpace(profile.Name) == "" {
		return model.Principal{}, apperr.ValidationError{Field: "name", Msg: "is required"}
	}
	if err := CheckPassword(password); err != nil {
		return model.Principal{}, err
	}
	return m.establish(ctx, s, func(ctx context.Context) (model.Principal, error) {
		return m.Provider.Register(ctx, email, password, profile)
	})
}

// SendPasswordReset asks the provider to email a reset link to email.  The
// session is not touched.
func (m *Manager) SendPasswordReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return apperr.ValidationError{Field: "email", Msg: "is required"}
	}
	if !strings.Contains(email, "@") {
		return apperr.ValidationError{Field: "email", Msg: "is not an email address"}
	}
	if err := m.Provider.SendPasswordReset(ctx, email); err != nil {
		log.Warnf("session: password reset for %s: %v", email, err)
		return err
	}
	return nil
}

// SignOut clears the session locally and in the store.  A provider failure
// is logged; the session is cleared regardless.
func (m *Manager) SignOut(ctx context.Context, s *Session) {
	if p, ok := s.Principal(); ok {
		if err := m.Provider.SignOut(ctx, p); err != nil {
			log.Warnf("session: provider sign-out for %s failed: %v", p.Email, err)
		}
	}
	s.Clear()
	if err := m.Store.Delete(ctx, s.ID); err != nil {
		log.Errorf("session: %v", err)
	}
}

// CheckPassword applies the registration rule: at least six characters with
// one upper-case and one lower-case letter.
func CheckPassword(pw string) error {
	if len([]rune(pw)) < 6 {
		return apperr.ValidationError{Field: "password", Msg: "must be at least 6 characters"}
	}
	var upper, lower bool
	for _, r := range pw {
		upper = upper || unicode.IsUpper(r)
		lower = lower || unicode.IsLower(r)
	}
	if !upper {
		return apperr.ValidationError{Field: "password", Msg: "must contain an upper-case letter"}
	}
	if !lower {
		return apperr.ValidationError{Field: "password", Msg: "must contain a lower-case letter"}
	}
	return nil
}

// establish runs the three pipeline steps in order.
func (m *Manager) establish(ctx context.Context, s *Session, authenticate func(context.Context) (model.Principal, error)) (model.Principal, error) {
	p, err := authenticate(ctx)
	if err != nil {
		return model.Principal{}, err
	}
	cred := m.exchange(ctx, p)
	if err := m.persist(ctx, s, p, cred); err != nil {
		return model.Principal{}, err
	}
	return p, nil
}

// exchange trades the principal's email for a backend bearer credential.
// Failure leaves the principal signed in without one.
func (m *Manager) exchange(ctx context.Context, p model.Principal) string {
	tok, err := m.Backend.IssueToken(ctx, p.Email)
	if err != nil {
		log.Warnf("session: credential exchange for %s failed: %v", p.Email, err)
		return ""
	}
	return tok
}

func (m *Manager) persist(ctx context.Context, s *Session, p model.Principal, cred string) error {
	ttl := m.TTL
	if cred != "" {
		ttl = utils.CredentialTTL(cred, m.TTL, m.now())
		if ttl <= 0 {
			log.Warnf("session: backend issued an expired credential for %s", p.Email)
			cred, ttl = "", m.TTL
		}
	}
	if err := m.Store.Save(ctx, s.ID, Record{Principal: &p, Token: cred}, ttl); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	s.set(p, cred)
	return nil
}
