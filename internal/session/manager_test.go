package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/ticketbari-web/internal/api"
	"github.com/iliyamo/ticketbari-web/internal/apperr"
	"github.com/iliyamo/ticketbari-web/internal/auth"
	"github.com/iliyamo/ticketbari-web/internal/model"
	"github.com/iliyamo/ticketbari-web/internal/role"
)

type providerMock struct{ mock.Mock }

func (m *providerMock) SignIn(ctx context.Context, email, password string) (model.Principal, error) {
	args := m.Called(ctx, email, password)
	return args.Get(0).(model.Principal), args.Error(1)
}

func (m *providerMock) SignInWithIDP(ctx context.Context, idToken string) (model.Principal, error) {
	args := m.Called(ctx, idToken)
	return args.Get(0).(model.Principal), args.Error(1)
}

func (m *providerMock) Register(ctx context.Context, email, password string, profile auth.Profile) (model.Principal, error) {
	args := m.Called(ctx, email, password, profile)
	return args.Get(0).(model.Principal), args.Error(1)
}

func (m *providerMock) SignOut(ctx context.Context, p model.Principal) error {
	return m.Called(ctx, p).Error(0)
}

func (m *providerMock) SendPasswordReset(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

var alice = model.Principal{ID: "p1", DisplayName: "Alice", Email: "alice@example.com"}

func credential(t *testing.T, exp time.Time) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"email": "alice@example.com", "exp": exp.Unix()}).
		SignedString([]byte("backend"))
	require.NoError(t, err)
	return s
}

// jwtBackend answers POST /jwt with token, or 500 when token is empty.
func jwtBackend(t *testing.T, token string) *api.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/jwt", r.URL.Path)
		if token == "" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"token": token})
	}))
	t.Cleanup(srv.Close)
	return api.New(srv.URL, 0)
}

func TestSignInPipeline(t *testing.T) {
	tok := credential(t, time.Now().Add(time.Hour))
	prov := new(providerMock)
	prov.On("SignIn", mock.Anything, "alice@example.com", "Secret1").Return(alice, nil)
	store := NewMemoryStore()
	m := NewManager(prov, jwtBackend(t, tok), store, 0)

	s, err := m.Open(context.Background(), "")
	require.NoError(t, err)
	require.NotEmpty(t, s.ID)

	p, err := m.SignIn(context.Background(), s, " alice@example.com ", "Secret1")
	require.NoError(t, err)
	assert.Equal(t, alice, p)
	assert.Equal(t, tok, s.Credential())

	// A later request sees the same principal and credential.
	again, err := m.Open(context.Background(), s.ID)
	require.NoError(t, err)
	got, ok := again.Principal()
	require.True(t, ok)
	assert.Equal(t, alice.Email, got.Email)
	assert.Equal(t, tok, again.Credential())
	prov.AssertExpectations(t)
}

func TestSignInInvalidCredentials(t *testing.T) {
	prov := new(providerMock)
	prov.On("SignIn", mock.Anything, "alice@example.com", "bad").Return(model.Principal{}, apperr.ErrInvalidCredentials)
	m := NewManager(prov, jwtBackend(t, "unused"), NewMemoryStore(), 0)
	s := New("sid-1")

	_, err := m.SignIn(context.Background(), s, "alice@example.com", "bad")
	assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)
	assert.False(t, s.Authenticated())

	_, err = m.SignIn(context.Background(), s, "", "x")
	assert.ErrorAs(t, err, new(apperr.ValidationError))
}

func TestExchangeFailureKeepsPrincipal(t *testing.T) {
	prov := new(providerMock)
	prov.On("SignIn", mock.Anything, mock.Anything, mock.Anything).Return(alice, nil)
	m := NewManager(prov, jwtBackend(t, ""), NewMemoryStore(), 0)
	s := New("sid-1")

	_, err := m.SignIn(context.Background(), s, "alice@example.com", "Secret1")
	require.NoError(t, err)
	assert.True(t, s.Authenticated())
	assert.Empty(t, s.Credential())
}

func TestSignInWithProvider(t *testing.T) {
	prov := new(providerMock)
	prov.On("SignInWithIDP", mock.Anything, "bad").Return(model.Principal{}, apperr.AuthenticationError{Reason: apperr.ErrProviderError.Reason})
	prov.On("SignInWithIDP", mock.Anything, "good").Return(alice, nil)
	m := NewManager(prov, jwtBackend(t, "opaque"), NewMemoryStore(), 0)
	s := New("sid-1")

	_, err := m.SignInWithProvider(context.Background(), s, "  ")
	assert.ErrorIs(t, err, apperr.ErrProviderCancelled)
	prov.AssertNotCalled(t, "SignInWithIDP", mock.Anything, "  ")

	_, err = m.SignInWithProvider(context.Background(), s, "bad")
	assert.ErrorIs(t, err, apperr.ErrProviderError)

	_, err = m.SignInWithProvider(context.Background(), s, "good")
	require.NoError(t, err)
	assert.Equal(t, "opaque", s.Credential())
}

func TestRegister(t *testing.T) {
	prof := auth.Profile{Name: "Alice", PhotoURL: "http://img/a.png"}
	prov := new(providerMock)
	prov.On("Register", mock.Anything, "taken@example.com", "Secret1", prof).Return(model.Principal{}, apperr.ErrEmailInUse)
	prov.On("Register", mock.Anything, "alice@example.com", "Secret1", prof).Return(alice, nil)
	m := NewManager(prov, jwtBackend(t, "opaque"), NewMemoryStore(), 0)
	s := New("sid-1")

	for _, pw := range []string{"Ab1", "secret1", "SECRET1"} {
		_, err := m.Register(context.Background(), s, "alice@example.com", pw, prof)
		assert.ErrorAs(t, err, new(apperr.ValidationError), pw)
	}
	prov.AssertNotCalled(t, "Register", mock.Anything, mock.Anything, "Ab1", mock.Anything)

	_, err := m.Register(context.Background(), s, "taken@example.com", "Secret1", prof)
	assert.ErrorIs(t, err, apperr.ErrEmailInUse)

	p, err := m.Register(context.Background(), s, "alice@example.com", "Secret1", prof)
	require.NoError(t, err)
	assert.Equal(t, alice.Email, p.Email)
	assert.True(t, s.Authenticated())
}

func TestSignOutClearsEvenWhenProviderFails(t *testing.T) {
	prov := new(providerMock)
	prov.On("SignIn", mock.Anything, mock.Anything, mock.Anything).Return(alice, nil)
	prov.On("SignOut", mock.Anything, alice).Return(errors.New("provider down"))
	store := NewMemoryStore()
	m := NewManager(prov, jwtBackend(t, "opaque"), store, 0)
	s := New("sid-1")
	_, err := m.SignIn(context.Background(), s, "alice@example.com", "Secret1")
	require.NoError(t, err)
	s.SetResolution(alice.Email, role.Resolution{Role: role.Vendor})

	m.SignOut(context.Background(), s)

	assert.False(t, s.Authenticated())
	assert.Empty(t, s.Credential())
	_, resolved := s.Role()
	assert.False(t, resolved)
	_, ok, _ := store.Load(context.Background(), "sid-1")
	assert.False(t, ok)
}

func TestOpenUnknownIDIssuesFreshSession(t *testing.T) {
	m := NewManager(new(providerMock), jwtBackend(t, "x"), NewMemoryStore(), 0)
	s, err := m.Open(context.Background(), "forged")
	require.NoError(t, err)
	assert.NotEqual(t, "forged", s.ID)
	assert.False(t, s.Authenticated())
}

func TestPersistUsesCredentialExpiry(t *testing.T) {
	now := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	store := NewMemoryStore()
	store.now = func() time.Time { return now }
	prov := new(providerMock)
	prov.On("SignIn", mock.Anything, mock.Anything, mock.Anything).Return(alice, nil)
	m := NewManager(prov, jwtBackend(t, credential(t, now.Add(10*time.Minute))), store, time.Hour)
	m.now = func() time.Time { return now }
	s := New("sid-1")
	_, err := m.SignIn(context.Background(), s, "alice@example.com", "Secret1")
	require.NoError(t, err)

	now = now.Add(9 * time.Minute)
	_, ok, _ := store.Load(context.Background(), "sid-1")
	assert.True(t, ok)
	now = now.Add(2 * time.Minute)
	_, ok, _ = store.Load(context.Background(), "sid-1")
	assert.False(t, ok)
}

func TestOpenKeepsSignedOutSessionID(t *testing.T) {
	m := NewManager(new(providerMock), jwtBackend(t, "x"), NewMemoryStore(), 0)
	first, err := m.Open(context.Background(), "")
	require.NoError(t, err)

	again, err := m.Open(context.Background(), first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.False(t, again.Authenticated())
}

func TestSendPasswordResetTrimsAndValidates(t *testing.T) {
	prov := new(providerMock)
	prov.On("SendPasswordReset", mock.Anything, "alice@example.com").Return(nil).Once()
	prov.On("SendPasswordReset", mock.Anything, "ghost@example.com").Return(apperr.ErrAccountNotFound).Once()
	m := NewManager(prov, jwtBackend(t, "opaque"), NewMemoryStore(), 0)

	require.NoError(t, m.SendPasswordReset(context.Background(), "  alice@example.com "))
	assert.ErrorIs(t, m.SendPasswordReset(context.Background(), "ghost@example.com"), apperr.ErrAccountNotFound)

	for _, bad := range []string{"", "   ", "alice"} {
		assert.ErrorAs(t, m.SendPasswordReset(context.Background(), bad), new(apperr.ValidationError), bad)
	}
	prov.AssertExpectations(t)
}
