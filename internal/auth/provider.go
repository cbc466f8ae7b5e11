// Package auth supplies Microsoft Graph bearer tokens.
//
// Provider keeps the OAuth2 token obtained by the authorization-code flow in a
// local file and refreshes it silently when it expires. Refresh happens under a
// mutex, so concurrent callers either read a valid token or wait for the one
// refresh in flight.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/microsoft"
)

// Scopes requested during the authorization-code flow.
var Scopes = []string{"offline_access", "User.Read", "Calendars.ReadWrite"}

// ErrNotAuthenticated is returned when there is no token to use or refresh.
var ErrNotAuthenticated = errors.New("not authenticated, run the 'auth' command first")

// TokenSource yields an access token for one request.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Static is a fixed access token.
type Static string

// Token returns the token itself.
func (s Static) Token(context.Context) (string, error) {
	if s == "" {
		return "", ErrNotAuthenticated
	}
	return string(s), nil
}

// NewOAuthConfig returns the Azure AD OAuth2 config for the given app registration.
func NewOAuthConfig(clientID, clientSecret, tenant, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes:       Scopes,
		Endpoint:     microsoft.AzureADEndpoint(tenant),
	}
}

// Provider is a TokenSource backed by a token file.
type Provider struct {
	config *oauth2.Config
	path   string
	logger *slog.Logger

	mu    sync.Mutex
	token *oauth2.Token
}

// NewProvider creates a Provider. A missing token file is not an error;
// Token reports ErrNotAuthenticated until Exchange has run.
func NewProvider(logger *slog.Logger, config *oauth2.Config, path string) (*Provider, error) {
	p := &Provider{config: config, path: path, logger: logger}

	token, err := LoadToken(path)
	switch {
	case err == nil:
		p.token = token
	case errors.Is(err, os.ErrNotExist):
		logger.Debug("No token file found.", "file", path)
	default:
		return nil, fmt.Errorf("could not load token from %s: %w", path, err)
	}
	return p, nil
}

// AuthCodeURL returns the URL the user visits to grant access.
func (p *Provider) AuthCodeURL(state string) string {
	return p.config.AuthCodeURL(state)
}

// Exchange trades an authorization code for a token and persists it.
func (p *Provider) Exchange(ctx context.Context, code string) error {
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("unable to exchange authorization code: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.token = token
	if err := SaveToken(p.path, token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// Token returns a valid access token, refreshing it first if it has expired.
func (p *Provider) Token(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.token == nil {
		return "", ErrNotAuthenticated
	}
	if p.token.Valid() {
		return p.token.AccessToken, nil
	}
	if p.token.RefreshToken == "" {
		return "", fmt.Errorf("token expired and has no refresh token: %w", ErrNotAuthenticated)
	}

	p.logger.Debug("Refreshing access token.")
	token, err := p.config.TokenSource(ctx, p.token).Token()
	if err != nil {
		return "", fmt.Errorf("failed to refresh token: %w", err)
	}
	p.token = token

	// The refreshed token is still usable for this process if saving fails.
	if err := SaveToken(p.path, token); err != nil {
		p.logger.Warn("Failed to persist refreshed token", "file", p.path, "error", err)
	}
	return token.AccessToken, nil
}

// SaveToken saves a token to a file path.
func SaveToken(path string, token *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("unable to create token file: %w", err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(token)
}

// LoadToken retrieves a token from a local file.
func LoadToken(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, fmt.Errorf("malformed token file: %w", err)
	}
	return tok, nil
}
