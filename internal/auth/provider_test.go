package auth_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"outlookcal/internal/auth"

	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// tokenServer answers OAuth2 token requests and counts them by grant type.
func tokenServer(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		atomic.AddInt32(hits, 1)
		w.Header().Set("Content-Type", "application/json")
		switch r.Form.Get("grant_type") {
		case "refresh_token":
			_, _ = io.WriteString(w, `{"access_token":"fresh","token_type":"Bearer","refresh_token":"r2","expires_in":3600}`)
		case "authorization_code":
			if r.Form.Get("code") != "good-code" {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = io.WriteString(w, `{"error":"invalid_grant"}`)
				return
			}
			_, _ = io.WriteString(w, `{"access_token":"first","token_type":"Bearer","refresh_token":"r1","expires_in":3600}`)
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(tokenURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID: "client",
		Endpoint: oauth2.Endpoint{
			AuthURL:   tokenURL + "/authorize",
			TokenURL:  tokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
		Scopes: auth.Scopes,
	}
}

func TestProviderNotAuthenticated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	p, err := auth.NewProvider(discardLogger(), testConfig("http://127.0.0.1:0"), path)
	require.NoError(t, err)

	_, err = p.Token(context.Background())
	require.True(t, errors.Is(err, auth.ErrNotAuthenticated))
}

func TestProviderValidTokenIsReused(t *testing.T) {
	var hits int32
	srv := tokenServer(t, &hits)
	path := filepath.Join(t.TempDir(), "token.json")
	require.NoError(t, auth.SaveToken(path, &oauth2.Token{
		AccessToken: "cached", RefreshToken: "r1", Expiry: time.Now().Add(time.Hour),
	}))

	p, err := auth.NewProvider(discardLogger(), testConfig(srv.URL), path)
	require.NoError(t, err)

	tok, err := p.Token(context.Background())
	require.NoError(t, err)
	require.Equal(t, "cached", tok)
	require.Equal(t, int32(0), atomic.LoadInt32(&hits))
}

func TestProviderRefreshesOnceUnderConcurrency(t *testing.T) {
	var hits int32
	srv := tokenServer(t, &hits)
	path := filepath.Join(t.TempDir(), "token.json")
	require.NoError(t, auth.SaveToken(path, &oauth2.Token{
		AccessToken: "stale", RefreshToken: "r1", Expiry: time.Now().Add(-time.Hour),
	}))

	p, err := auth.NewProvider(discardLogger(), testConfig(srv.URL), path)
	require.NoError(t, err)

	const readers = 16
	var wg sync.WaitGroup
	results := make([]string, readers)
	errs := make([]error, readers)
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = p.Token(context.Background())
		}(i)
	}
	wg.Wait()

	for i := 0; i < readers; i++ {
		require.NoError(t, errs[i])
		require.Equal(t, "fresh", results[i])
	}
	require.Equal(t, int32(1), atomic.LoadInt32(&hits))

	saved, err := auth.LoadToken(path)
	require.NoError(t, err)
	require.Equal(t, "fresh", saved.AccessToken)
	require.Equal(t, "r2", saved.RefreshToken)
}

func TestProviderExpiredWithoutRefreshToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	require.NoError(t, auth.SaveToken(path, &oauth2.Token{
		AccessToken: "stale", Expiry: time.Now().Add(-time.Hour),
	}))

	p, err := auth.NewProvider(discardLogger(), testConfig("http://127.0.0.1:0"), path)
	require.NoError(t, err)

	_, err = p.Token(context.Background())
	require.True(t, errors.Is(err, auth.ErrNotAuthenticated))
}

func TestProviderExchange(t *testing.T) {
	var hits int32
	srv := tokenServer(t, &hits)
	path := filepath.Join(t.TempDir(), "token.json")

	p, err := auth.NewProvider(discardLogger(), testConfig(srv.URL), path)
	require.NoError(t, err)
	require.Contains(t, p.AuthCodeURL("state-token"), "state=state-token")

	require.Error(t, p.Exchange(context.Background(), "bad-code"))
	require.NoError(t, p.Exchange(context.Background(), "good-code"))

	tok, err := p.Token(context.Background())
	require.NoError(t, err)
	require.Equal(t, "first", tok)

	saved, err := auth.LoadToken(path)
	require.NoError(t, err)
	require.Equal(t, "first", saved.AccessToken)
}

func TestNewOAuthConfig(t *testing.T) {
	cfg := auth.NewOAuthConfig("id", "secret", "contoso", "http://localhost/cb")
	require.Equal(t, "https://login.microsoftonline.com/contoso/oauth2/v2.0/token", cfg.Endpoint.TokenURL)
	require.Equal(t, auth.Scopes, cfg.Scopes)
}
