package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/ticketbari-web/internal/apperr"
)

func toolkit(t *testing.T, h http.HandlerFunc) *IdentityToolkit {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewIdentityToolkit(srv.URL, "key-1")
}

func fail(w http.ResponseWriter, msg string) {
	w.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"code": 400, "message": msg}})
}

func TestSignIn(t *testing.T) {
	p := toolkit(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/accounts:signInWithPassword", r.URL.Path)
		assert.Equal(t, "key-1", r.URL.Query().Get("key"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["password"] != "Secret1" {
			fail(w, "INVALID_LOGIN_CREDENTIALS")
			return
		}
		_, _ = w.Write([]byte(`{"localId":"p1","email":"a@example.com","displayName":"Alice","profilePicture":"http://img/a.png"}`))
	})

	pr, err := p.SignIn(context.Background(), "a@example.com", "Secret1")
	require.NoError(t, err)
	assert.Equal(t, "p1", pr.ID)
	assert.Equal(t, "Alice", pr.DisplayName)
	assert.Equal(t, "http://img/a.png", pr.AvatarURL)

	_, err = p.SignIn(context.Background(), "a@example.com", "nope")
	assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)
}

func TestRegisterErrors(t *testing.T) {
	p := toolkit(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		switch body["email"] {
		case "taken@example.com":
			fail(w, "EMAIL_EXISTS")
		default:
			fail(w, "WEAK_PASSWORD : Password should be at least 6 characters")
		}
	})
	_, err := p.Register(context.Background(), "taken@example.com", "Secret1", Profile{})
	assert.ErrorIs(t, err, apperr.ErrEmailInUse)

	_, err = p.Register(context.Background(), "new@example.com", "abc", Profile{})
	assert.ErrorIs(t, err, apperr.ErrWeakPassword)
}

func TestRegisterSetsProfile(t *testing.T) {
	var calls []string
	p := toolkit(t, func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.URL.Path)
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if strings.HasSuffix(r.URL.Path, "update") {
			assert.Equal(t, "id-tok", body["idToken"])
			assert.Equal(t, "Bob", body["displayName"])
		}
		_, _ = w.Write([]byte(`{"localId":"p2","email":"bob@example.com","idToken":"id-tok"}`))
	})
	pr, err := p.Register(context.Background(), "bob@example.com", "Secret1", Profile{Name: "Bob", PhotoURL: "http://img/b.png"})
	require.NoError(t, err)
	assert.Equal(t, []string{"/accounts:signUp", "/accounts:update"}, calls)
	assert.Equal(t, "Bob", pr.DisplayName)
	assert.Equal(t, "http://img/b.png", pr.AvatarURL)
}

func TestSignInWithIDP(t *testing.T) {
	p := toolkit(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		post, err := url.ParseQuery(body["postBody"].(string))
		require.NoError(t, err)
		if post.Get("id_token") != "google-token" {
			fail(w, "INVALID_IDP_RESPONSE")
			return
		}
		assert.Equal(t, "google.com", post.Get("providerId"))
		_, _ = w.Write([]byte(`{"localId":"p3","email":"c@example.com","displayName":"Cara"}`))
	})

	_, err := p.SignInWithIDP(context.Background(), "")
	assert.ErrorIs(t, err, apperr.ErrProviderCancelled)

	_, err = p.SignInWithIDP(context.Background(), "bad")
	assert.ErrorIs(t, err, apperr.ErrProviderError)

	pr, err := p.SignInWithIDP(context.Background(), "google-token")
	require.NoError(t, err)
	assert.Equal(t, "c@example.com", pr.Email)
}

func TestSendPasswordReset(t *testing.T) {
	p := toolkit(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/accounts:sendOobCode", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "PASSWORD_RESET", body["requestType"])
		switch body["email"] {
		case "ghost@example.com":
			fail(w, "EMAIL_NOT_FOUND")
		case "flood@example.com":
			fail(w, "RESET_PASSWORD_EXCEED_LIMIT")
		default:
			_, _ = w.Write([]byte(`{"email":"a@example.com"}`))
		}
	})

	require.NoError(t, p.SendPasswordReset(context.Background(), "a@example.com"))

	err := p.SendPasswordReset(context.Background(), "ghost@example.com")
	assert.ErrorIs(t, err, apperr.ErrAccountNotFound)
	assert.NotErrorIs(t, err, apperr.ErrInvalidCredentials)

	assert.ErrorIs(t, p.SendPasswordReset(context.Background(), "flood@example.com"), apperr.ErrProviderError)
}
