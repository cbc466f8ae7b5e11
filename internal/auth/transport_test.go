package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"outlookcal/internal/auth"

	"github.com/stretchr/testify/require"
)

func TestTransportSetsBearer(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
	}))
	defer srv.Close()

	client := auth.NewHTTPClient(auth.Static("abc"), time.Second)
	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, "Bearer abc", got)
}

func TestTransportTokenFailure(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	client := auth.NewHTTPClient(auth.Static(""), time.Second)
	_, err := client.Get(srv.URL)
	require.Error(t, err)
	require.False(t, called)
}
