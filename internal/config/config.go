// Package config reads the application settings from the environment.
// A .env file, when present, is loaded into the environment by main before Load runs.
package config

import (
	"fmt"
	"os"
	"time"
	_ "time/tzdata"
)

const (
	DefaultGraphBaseURL = "https://graph.microsoft.com/v1.0"
	DefaultTenant       = "common"
	DefaultRedirectURL  = "https://login.microsoftonline.com/common/oauth2/nativeclient"
	DefaultTokenFile    = "token-outlook.json"
	DefaultStateFile    = "mirror-state.json"
	DefaultTimeout      = 30 * time.Second
)

// Config holds every setting the commands need.
type Config struct {
	GraphBaseURL string
	ClientID     string
	ClientSecret string
	Tenant       string
	RedirectURL  string
	TokenFile    string
	AccessToken  string // Static bearer token, bypasses TokenFile when set
	Location     *time.Location
	Timeout      time.Duration
	LogLevel     string
	LogFormat    string

	CalDAV CalDAV
}

// CalDAV holds the settings of the mirror target.
type CalDAV struct {
	URL       string
	Username  string
	Password  string
	Calendar  string
	StateFile string
}

// Load builds a Config from environment variables, applying defaults.
func Load() (*Config, error) {
	cfg := &Config{
		GraphBaseURL: getenv("GRAPH_BASE_URL", DefaultGraphBaseURL),
		ClientID:     os.Getenv("MS_CLIENT_ID"),
		ClientSecret: os.Getenv("MS_CLIENT_SECRET"),
		Tenant:       getenv("MS_TENANT", DefaultTenant),
		RedirectURL:  getenv("MS_REDIRECT_URL", DefaultRedirectURL),
		TokenFile:    getenv("MS_TOKEN_FILE", DefaultTokenFile),
		AccessToken:  os.Getenv("GRAPH_ACCESS_TOKEN"),
		LogLevel:     getenv("LOG_LEVEL", "info"),
		LogFormat:    getenv("LOG_FORMAT", "text"),
		CalDAV: CalDAV{
			URL:       os.Getenv("CALDAV_URL"),
			Username:  os.Getenv("CALDAV_USERNAME"),
			Password:  os.Getenv("CALDAV_PASSWORD"),
			Calendar:  os.Getenv("CALDAV_CALENDAR"),
			StateFile: getenv("MIRROR_STATE_FILE", DefaultStateFile),
		},
	}

	tzStr := getenv("TIMEZONE", "UTC")
	loc, err := time.LoadLocation(tzStr)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone '%s': %w", tzStr, err)
	}
	cfg.Location = loc

	cfg.Timeout = DefaultTimeout
	if v := os.Getenv("REQUEST_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid REQUEST_TIMEOUT '%s': %w", v, err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("REQUEST_TIMEOUT must be positive, got %s", d)
		}
		cfg.Timeout = d
	}

	return cfg, nil
}

// ValidateCalDAV reports a missing mirror setting.
func (c *Config) ValidateCalDAV() error {
	switch {
	case c.CalDAV.URL == "":
		return fmt.Errorf("CALDAV_URL environment variable not set")
	case c.CalDAV.Calendar == "":
		return fmt.Errorf("CALDAV_CALENDAR environment variable not set")
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
