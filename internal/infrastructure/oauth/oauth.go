// Package oauth exchanges an authorization code from Google or GitHub for the
// signed-in account's profile.
package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"skill-journal/internal/config"
	"skill-journal/internal/domain/user"
)

var (
	ErrUnknownProvider = errors.New("unknown oauth provider")
	ErrExchange        = errors.New("oauth code exchange failed")
	ErrNoEmail         = errors.New("oauth account has no verified email")
)

type Profile struct {
	Provider user.Provider
	Subject  string
	Email    string
	Name     string
}

// Exchanger turns an authorization code into a profile.
type Exchanger interface {
	Exchange(ctx context.Context, provider user.Provider, code string) (Profile, error)
}

type providerClient struct {
	conf    *oauth2.Config
	profile func(ctx context.Context, c *http.Client) (Profile, error)
}

type Client struct {
	providers map[user.Provider]providerClient
}

var _ Exchanger = (*Client)(nil)

// Endpoints overrides provider URLs; zero values use the public ones.
type Endpoints struct {
	GoogleToken    string
	GoogleUserInfo string
	GitHubToken    string
	GitHubAPI      string
}

func New(cfg config.OAuthConfig) *Client {
	return NewWithEndpoints(cfg, Endpoints{})
}

func NewWithEndpoints(cfg config.OAuthConfig, ep Endpoints) *Client {
	ep = ep.withDefaults()
	c := &Client{providers: make(map[user.Provider]providerClient)}

	if cfg.GoogleEnabled() {
		endpoint := endpoints.Google
		endpoint.TokenURL = ep.GoogleToken
		c.providers[user.ProviderGoogle] = providerClient{
			conf: &oauth2.Config{
				ClientID:     cfg.GoogleClientID,
				ClientSecret: cfg.GoogleClientSecret,
				RedirectURL:  cfg.GoogleRedirectURI,
				Endpoint:     endpoint,
				Scopes:       []string{"openid", "email", "profile"},
			},
			profile: func(ctx context.Context, hc *http.Client) (Profile, error) {
				return googleProfile(ctx, hc, ep.GoogleUserInfo)
			},
		}
	}
	if cfg.GitHubEnabled() {
		endpoint := endpoints.GitHub
		endpoint.TokenURL = ep.GitHubToken
		c.providers[user.ProviderGitHub] = providerClient{
			conf: &oauth2.Config{
				ClientID:     cfg.GitHubClientID,
				ClientSecret: cfg.GitHubClientSecret,
				RedirectURL:  cfg.GitHubRedirectURI,
				Endpoint:     endpoint,
				Scopes:       []string{"read:user", "user:email"},
			},
			profile: func(ctx context.Context, hc *http.Client) (Profile, error) {
				return githubProfile(ctx, hc, ep.GitHubAPI)
			},
		}
	}
	return c
}

func (e Endpoints) withDefaults() Endpoints {
	if e.GoogleToken == "" {
		e.GoogleToken = endpoints.Google.TokenURL
	}
	if e.GoogleUserInfo == "" {
		e.GoogleUserInfo = "https://openidconnect.googleapis.com/v1/userinfo"
	}
	if e.GitHubToken == "" {
		e.GitHubToken = endpoints.GitHub.TokenURL
	}
	if e.GitHubAPI == "" {
		e.GitHubAPI = "https://api.github.com"
	}
	e.GitHubAPI = strings.TrimRight(e.GitHubAPI, "/")
	return e
}

func (c *Client) Enabled(p user.Provider) bool {
	_, ok := c.providers[p]
	return ok
}

func (c *Client) Exchange(ctx context.Context, provider user.Provider, code string) (Profile, error) {
	pc, ok := c.providers[provider]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
	}
	if strings.TrimSpace(code) == "" {
		return Profile{}, ErrExchange
	}

	tok, err := pc.conf.Exchange(ctx, code)
	if err != nil {
		return Profile{}, fmt.Errorf("%w: %v", ErrExchange, err)
	}
	p, err := pc.profile(ctx, pc.conf.Client(ctx, tok))
	if err != nil {
		return Profile{}, err
	}
	p.Provider = provider
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	if p.Email == "" {
		return Profile{}, ErrNoEmail
	}
	return p, nil
}

func googleProfile(ctx context.Context, hc *http.Client, url string) (Profile, error) {
	var body struct {
		Sub           string `json:"sub"`
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
	}
	if err := getJSON(ctx, hc, url, &body); err != nil {
		return Profile{}, err
	}
	if !body.EmailVerified {
		return Profile{}, ErrNoEmail
	}
	return Profile{Subject: body.Sub, Email: body.Email, Name: body.Name}, nil
}

func githubProfile(ctx context.Context, hc *http.Client, api string) (Profile, error) {
	var u struct {
		ID    int64  `json:"id"`
		Login string `json:"login"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := getJSON(ctx, hc, api+"/user", &u); err != nil {
		return Profile{}, err
	}
	p := Profile{Subject: strconv.FormatInt(u.ID, 10), Email: u.Email, Name: u.Name}
	if p.Name == "" {
		p.Name = u.Login
	}
	if p.Email != "" {
		return p, nil
	}

	// Private emails only show up on the emails endpoint.
	var emails []struct {
		Email    string `json:"email"`
		Primary  bool   `json:"primary"`
		Verified bool   `json:"verified"`
	}
	if err := getJSON(ctx, hc, api+"/user/emails", &emails); err != nil {
		return Profile{}, err
	}
	for _, e := range emails {
		if e.Primary && e.Verified {
			p.Email = e.Email
			break
		}
	}
	return p, nil
}

func getJSON(ctx context.Context, hc *http.Client, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrExchange, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%w: %s returned %d", ErrExchange, url, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
