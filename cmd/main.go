package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"outlookcal/internal/auth"
	"outlookcal/internal/config"
	"outlookcal/internal/graph"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/urfave/cli/v2"
)

func main() {
	// Load .env file first, but don't error if it doesn't exist.
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "outlookcal",
		Usage: "List and create Outlook calendar events through Microsoft Graph.",
		Commands: []*cli.Command{
			authCommand(),
			listCommand(),
			createCommand(),
			exportCommand(),
			mirrorCommand(),
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunContext(ctx, os.Args); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}

// setup loads the configuration and the logger every command starts with.
func setup() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := setupLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	return cfg, logger, nil
}

func setupLogger(level, format string) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	if strings.ToLower(format) == "tint" {
		return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
			Level:      logLevel,
			TimeFormat: time.Kitchen,
		}))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}

// newProvider builds the file backed token provider used by auth and, unless a
// static token is configured, by every Graph request.
func newProvider(cfg *config.Config, logger *slog.Logger) (*auth.Provider, error) {
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("MS_CLIENT_ID environment variable not set")
	}
	oauthConfig := auth.NewOAuthConfig(cfg.ClientID, cfg.ClientSecret, cfg.Tenant, cfg.RedirectURL)
	return auth.NewProvider(logger, oauthConfig, cfg.TokenFile)
}

func newGraphClient(cfg *config.Config, logger *slog.Logger) (*graph.Client, error) {
	var source auth.TokenSource
	if cfg.AccessToken != "" {
		logger.Debug("Using static access token from GRAPH_ACCESS_TOKEN.")
		source = auth.Static(cfg.AccessToken)
	} else {
		p, err := newProvider(cfg, logger)
		if err != nil {
			return nil, err
		}
		source = p
	}
	return graph.NewClient(logger, auth.NewHTTPClient(source, cfg.Timeout), cfg.GraphBaseURL, cfg.Location), nil
}
