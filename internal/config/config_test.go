package config_test

import (
	"testing"
	"time"

	"outlookcal/internal/config"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"GRAPH_BASE_URL", "MS_TENANT", "MS_TOKEN_FILE", "TIMEZONE", "REQUEST_TIMEOUT", "LOG_LEVEL", "MIRROR_STATE_FILE"} {
		t.Setenv(k, "")
	}

	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, config.DefaultGraphBaseURL, cfg.GraphBaseURL)
	require.Equal(t, config.DefaultTenant, cfg.Tenant)
	require.Equal(t, config.DefaultTokenFile, cfg.TokenFile)
	require.Equal(t, config.DefaultTimeout, cfg.Timeout)
	require.Equal(t, "UTC", cfg.Location.String())
	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, config.DefaultStateFile, cfg.CalDAV.StateFile)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("GRAPH_BASE_URL", "http://localhost:8080")
	t.Setenv("TIMEZONE", "Asia/Kolkata")
	t.Setenv("REQUEST_TIMEOUT", "5s")
	t.Setenv("GRAPH_ACCESS_TOKEN", "tok")

	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8080", cfg.GraphBaseURL)
	require.Equal(t, "Asia/Kolkata", cfg.Location.String())
	require.Equal(t, 5*time.Second, cfg.Timeout)
	require.Equal(t, "tok", cfg.AccessToken)
}

func TestLoadErrors(t *testing.T) {
	t.Run("bad timezone", func(t *testing.T) {
		t.Setenv("TIMEZONE", "Mars/Olympus")
		_, err := config.Load()
		require.Error(t, err)
	})

	t.Run("bad timeout", func(t *testing.T) {
		t.Setenv("TIMEZONE", "")
		t.Setenv("REQUEST_TIMEOUT", "soon")
		_, err := config.Load()
		require.Error(t, err)
	})

	t.Run("negative timeout", func(t *testing.T) {
		t.Setenv("TIMEZONE", "")
		t.Setenv("REQUEST_TIMEOUT", "-1s")
		_, err := config.Load()
		require.Error(t, err)
	})
}

func TestValidateCalDAV(t *testing.T) {
	cfg := &config.Config{}
	require.Error(t, cfg.ValidateCalDAV())

	cfg.CalDAV.URL = "https://caldav.example.com/"
	require.Error(t, cfg.ValidateCalDAV())

	cfg.CalDAV.Calendar = "Work"
	require.NoError(t, cfg.ValidateCalDAV())
}
