package auth

import (
	"fmt"
	"net/http"
	"time"
)

// Transport adds a bearer token from Source to each request.
type Transport struct {
	Source TokenSource
	Base   http.RoundTripper
}

// RoundTrip fetches a token for the request's context before sending it.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	token, err := t.Source.Token(req.Context())
	if err != nil {
		if req.Body != nil {
			req.Body.Close()
		}
		return nil, fmt.Errorf("failed to acquire access token: %w", err)
	}

	r := req.Clone(req.Context())
	r.Header.Set("Authorization", "Bearer "+token)
	return t.base().RoundTrip(r)
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

// NewHTTPClient returns a client that authenticates with source and gives up after timeout.
func NewHTTPClient(source TokenSource, timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: &Transport{Source: source},
		Timeout:   timeout,
	}
}
