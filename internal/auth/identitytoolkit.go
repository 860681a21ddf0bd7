package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/iliyamo/ticketbari-web/internal/apperr"
	"github.com/iliyamo/ticketbari-web/internal/model"
)

// DefaultIdentityToolkitURL is the public endpoint of the hosted provider.
const DefaultIdentityToolkitURL = "https://identitytoolkit.googleapis.com/v1"

// IdentityToolkit talks to an identity-toolkit compatible REST API
// (accounts:signInWithPassword, accounts:signUp, accounts:signInWithIdp,
// accounts:update, accounts:sendOobCode) using a web API key.
type IdentityToolkit struct {
	BaseURL    string
	APIKey     string
	ProviderID string // federated provider, e.g. "google.com"
	RequestURI string // continue URI echoed to the provider
	HTTP       *http.Client
}

func NewIdentityToolkit(baseURL, apiKey string) *IdentityToolkit {
	if baseURL == "" {
		baseURL = DefaultIdentityToolkitURL
	}
	return &IdentityToolkit{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		APIKey:     apiKey,
		ProviderID: "google.com",
		RequestURI: "http://localhost",
		HTTP:       &http.Client{},
	}
}

type accountResp struct {
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
	DisplayName  string `json:"displayName"`
	PhotoURL     string `json:"photoUrl"`
	ProfilePic   string `json:"profilePicture"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
}

func (r accountResp) principal() model.Principal {
	photo := r.PhotoURL
	if photo == "" {
		photo = r.ProfilePic
	}
	return model.Principal{ID: r.LocalID, DisplayName: r.DisplayName, Email: r.Email, AvatarURL: photo}
}

// providerError is the provider's error envelope: {"error":{"code":400,"message":"EMAIL_EXISTS"}}.
type providerError struct {
	Status int
	Code   string
}

func (e providerError) Error() string {
	return fmt.Sprintf("identity provider: %s (status %d)", e.Code, e.Status)
}

func (p *IdentityToolkit) call(ctx context.Context, method string, body, out any) error {
	bs, err := json.Marshal(body)
	if err != nil {
		return err
	}
	u := fmt.Sprintf("%s/accounts:%s?key=%s", p.BaseURL, method, url.QueryEscape(p.APIKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(bs))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := p.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("identity provider %s: %w", method, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		var env struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.Unmarshal(raw, &env)
		// Messages look like "WEAK_PASSWORD : Password should be at least 6 characters".
		code, _, _ := strings.Cut(env.Error.Message, " ")
		return providerError{Status: resp.StatusCode, Code: code}
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(raw, out)
}

// SignIn verifies an email/password pair.
func (p *IdentityToolkit) SignIn(ctx context.Context, email, password string) (model.Principal, error) {
	var out accountResp
	err := p.call(ctx, "signInWithPassword", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}, &out)
	if err != nil {
		return model.Principal{}, classify(err, apperr.ErrInvalidCredentials)
	}
	return out.principal(), nil
}

// SignInWithIDP exchanges a federated id token for a principal.  An empty
// token means the user closed the popup.
func (p *IdentityToolkit) SignInWithIDP(ctx context.Context, idToken string) (model.Principal, error) {
	if strings.TrimSpace(idToken) == "" {
		return model.Principal{}, apperr.ErrProviderCancelled
	}
	var out accountResp
	err := p.call(ctx, "signInWithIdp", map[string]any{
		"postBody":            url.Values{"id_token": {idToken}, "providerId": {p.ProviderID}}.Encode(),
		"requestUri":          p.RequestURI,
		"returnSecureToken":   true,
		"returnIdpCredential": true,
	}, &out)
	if err != nil {
		return model.Principal{}, apperr.AuthenticationError{Reason: apperr.ErrProviderError.Reason, Err: err}
	}
	return out.principal(), nil
}

// Register creates an account, then sets the display name and photo.
func (p *IdentityToolkit) Register(ctx context.Context, email, password string, profile Profile) (model.Principal, error) {
	var out accountResp
	err := p.call(ctx, "signUp", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}, &out)
	if err != nil {
		return model.Principal{}, classify(err, apperr.ErrProviderError)
	}
	if profile.Name != "" || profile.PhotoURL != "" {
		var upd accountResp
		if err := p.call(ctx, "update", map[string]any{
			"idToken":           out.IDToken,
			"displayName":       profile.Name,
			"photoUrl":          profile.PhotoURL,
			"returnSecureToken": false,
		}, &upd); err != nil {
			return model.Principal{}, classify(err, apperr.ErrProviderError)
		}
	}
	pr := out.principal()
	if pr.Email == "" {
		pr.Email = email
	}
	pr.DisplayName = profile.Name
	pr.AvatarURL = profile.PhotoURL
	return pr, nil
}

// SignOut is local for this provider; identity-toolkit tokens simply expire.
func (p *IdentityToolkit) SignOut(context.Context, model.Principal) error { return nil }

// SendPasswordReset has the provider email a password reset link.
// EMAIL_NOT_FOUND is reported as apperr.ErrAccountNotFound.
func (p *IdentityToolkit) SendPasswordReset(ctx context.Context, email string) error {
	err := p.call(ctx, "sendOobCode", map[string]any{
		"requestType": "PASSWORD_RESET",
		"email":       email,
	}, nil)
	if err == nil {
		return nil
	}
	if pe, ok := err.(providerError); ok && pe.Code == "EMAIL_NOT_FOUND" {
		return apperr.AuthenticationError{Reason: apperr.ErrAccountNotFound.Reason, Err: pe}
	}
	return classify(err, apperr.ErrProviderError)
}

// classify maps provider error codes onto the authentication sentinels.
// Unknown codes fall back to def; transport failures are provider errors.
func classify(err error, def apperr.AuthenticationError) error {
	pe, ok := err.(providerError)
	if !ok {
		return apperr.AuthenticationError{Reason: apperr.ErrProviderError.Reason, Err: err}
	}
	var target apperr.AuthenticationError
	switch pe.Code {
	case "EMAIL_NOT_FOUND", "INVALID_PASSWORD", "INVALID_LOGIN_CREDENTIALS", "USER_DISABLED", "INVALID_EMAIL":
		target = apperr.ErrInvalidCredentials
	case "EMAIL_EXISTS":
		target = apperr.ErrEmailInUse
	case "WEAK_PASSWORD":
		target = apperr.ErrWeakPassword
	default:
		target = def
	}
	return apperr.AuthenticationError{Reason: target.Reason, Err: pe}
}
