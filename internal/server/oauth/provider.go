// Package oauth implements the redirect based login through external
// identity providers on top of golang.org/x/oauth2.
package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/textdrive/internal/server/models"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

const gitHubUserURL = "https://api.github.com/user"

// ErrUnknownProvider is returned by Registry.Get for unconfigured providers.
var ErrUnknownProvider = errors.New("unknown identity provider")

// Provider runs the authorization code flow against one identity provider
// and reads the signed in user's profile afterwards.
type Provider struct {
	name    string
	config  *oauth2.Config
	userURL string
}

// NewProvider builds a provider from an explicit oauth2 configuration and
// the URL of its user profile endpoint.
func NewProvider(name string, config *oauth2.Config, userURL string) *Provider {
	return &Provider{name: name, config: config, userURL: userURL}
}

// NewGitHubProvider configures GitHub with the given client credentials.
// redirectURL is where GitHub sends the user back with the code.
func NewGitHubProvider(clientID, clientSecret, redirectURL string) *Provider {
	return NewProvider("github", &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     github.Endpoint,
		RedirectURL:  redirectURL,
		Scopes:       []string{"read:user", "user:email"},
	}, gitHubUserURL)
}

func (p *Provider) Name() string { return p.name }

// AuthCodeURL is the provider page the user is redirected to.
func (p *Provider) AuthCodeURL(state string) string {
	return p.config.AuthCodeURL(state)
}

type profile struct {
	ID    json.Number `json:"id"`
	Login string      `json:"login"`
	Email string      `json:"email"`
}

// Exchange trades the authorization code for a token and fetches the
// user's profile with it.
func (p *Provider) Exchange(ctx context.Context, code string) (models.ExternalIdentity, error) {
	tok, err := p.config.Exchange(ctx, code)
	if err != nil {
		return models.ExternalIdentity{}, fmt.Errorf("exchange code: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userURL, nil)
	if err != nil {
		return models.ExternalIdentity{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.config.Client(ctx, tok).Do(req)
	if err != nil {
		return models.ExternalIdentity{}, fmt.Errorf("fetch profile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return models.ExternalIdentity{}, fmt.Errorf("fetch profile: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var pr profile
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&pr); err != nil {
		return models.ExternalIdentity{}, fmt.Errorf("decode profile: %w", err)
	}
	if pr.ID == "" {
		return models.ExternalIdentity{}, errors.New("profile has no id")
	}

	return models.ExternalIdentity{
		Provider: p.name,
		ID:       pr.ID.String(),
		Login:    pr.Login,
		Email:    pr.Email,
	}, nil
}

// Registry holds the configured providers by name.
type Registry map[string]*Provider

func NewRegistry(providers ...*Provider) Registry {
	r := Registry{}
	for _, p := range providers {
		r[p.Name()] = p
	}
	return r
}

func (r Registry) Get(name string) (*Provider, error) {
	p, ok := r[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
	return p, nil
}
