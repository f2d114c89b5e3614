package oauth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skill-journal/internal/config"
	"skill-journal/internal/domain/user"
)

func fakeProvider(t *testing.T, routes map[string]any) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.Form.Get("code") != "good-code" {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid_grant"})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "tok", "token_type": "bearer", "expires_in": 3600})
	})
	for path, body := range routes {
		body := body
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer tok" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(body)
		})
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

var oauthConfig = config.OAuthConfig{
	GoogleClientID: "gid", GoogleClientSecret: "gsecret",
	GitHubClientID: "hid", GitHubClientSecret: "hsecret",
}

func TestGoogleExchange(t *testing.T) {
	srv := fakeProvider(t, map[string]any{
		"/userinfo": map[string]any{"sub": "g-1", "email": "Ann@Example.com", "email_verified": true, "name": "Ann"},
	})
	c := NewWithEndpoints(oauthConfig, Endpoints{GoogleToken: srv.URL + "/token", GoogleUserInfo: srv.URL + "/userinfo"})

	p, err := c.Exchange(context.Background(), user.ProviderGoogle, "good-code")
	require.NoError(t, err)
	assert.Equal(t, Profile{Provider: user.ProviderGoogle, Subject: "g-1", Email: "ann@example.com", Name: "Ann"}, p)

	_, err = c.Exchange(context.Background(), user.ProviderGoogle, "bad-code")
	assert.ErrorIs(t, err, ErrExchange)
}

func TestGoogleUnverifiedEmail(t *testing.T) {
	srv := fakeProvider(t, map[string]any{
		"/userinfo": map[string]any{"sub": "g-1", "email": "a@example.com", "email_verified": false},
	})
	c := NewWithEndpoints(oauthConfig, Endpoints{GoogleToken: srv.URL + "/token", GoogleUserInfo: srv.URL + "/userinfo"})

	_, err := c.Exchange(context.Background(), user.ProviderGoogle, "good-code")
	assert.ErrorIs(t, err, ErrNoEmail)
}

func TestGitHubExchangeFallsBackToEmailsEndpoint(t *testing.T) {
	srv := fakeProvider(t, map[string]any{
		"/user": map[string]any{"id": 42, "login": "octo", "email": nil},
		"/user/emails": []map[string]any{
			{"email": "old@example.com", "primary": false, "verified": true},
			{"email": "octo@example.com", "primary": true, "verified": true},
		},
	})
	c := NewWithEndpoints(oauthConfig, Endpoints{GitHubToken: srv.URL + "/token", GitHubAPI: srv.URL})

	p, err := c.Exchange(context.Background(), user.ProviderGitHub, "good-code")
	require.NoError(t, err)
	assert.Equal(t, "42", p.Subject)
	assert.Equal(t, "octo", p.Name)
	assert.Equal(t, "octo@example.com", p.Email)
}

func TestDisabledProvider(t *testing.T) {
	c := New(config.OAuthConfig{})
	assert.False(t, c.Enabled(user.ProviderGoogle))

	_, err := c.Exchange(context.Background(), user.ProviderGoogle, "code")
	assert.ErrorIs(t, err, ErrUnknownProvider)
}
