package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for minimal images

	backendadapter "github.com/ericfisherdev/codeguardian/internal/adapter/driven/backend"
	geminiadapter "github.com/ericfisherdev/codeguardian/internal/adapter/driven/gemini"
	githubadapter "github.com/ericfisherdev/codeguardian/internal/adapter/driven/github"
	keyringadapter "github.com/ericfisherdev/codeguardian/internal/adapter/driven/keyring"
	"github.com/ericfisherdev/codeguardian/internal/adapter/driving/cli"
	"github.com/ericfisherdev/codeguardian/internal/application"
	"github.com/ericfisherdev/codeguardian/internal/config"
	"github.com/ericfisherdev/codeguardian/internal/domain/port/driven"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx, cli.NewRootCommand(buildServices, version))
	stop()
	os.Exit(code)
}

// buildServices wires the application services for one CLI invocation. The
// session is restored from the OS keyring.
func buildServices(ctx context.Context, configPath string) (*cli.Services, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	// Service logs go to stderr; only warnings unless debug is requested.
	level := slog.LevelWarn
	if cfg.LogLevel < slog.LevelInfo {
		level = cfg.LogLevel
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	backend, err := backendadapter.NewClient(cfg.BackendURL, &http.Client{Timeout: cfg.BackendTimeout})
	if err != nil {
		return nil, err
	}

	session := application.NewSession(cli.SessionID, keyringadapter.NewSessionStore(keyringadapter.DefaultService))
	if err := session.Init(ctx); err != nil {
		return nil, err
	}

	var reviewer driven.CodeReviewer
	if cfg.HasReviewer() {
		gemini, err := geminiadapter.NewReviewer(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.ReviewTimeout, logger)
		if err != nil {
			return nil, err
		}
		reviewer = gemini
	}

	return &cli.Services{
		Session:  session,
		Auth:     application.NewAuthService(backend, cfg.GitHubClientID, cfg.GitHubOAuthScope, cfg.OAuthRedirectURL(), logger),
		Repos:    application.NewRepositoryService(backend, logger),
		PRs:      application.NewPRService(backend, logger),
		Settings: application.NewSettingsFlow(application.NewSettingsService(backend, logger), application.NewWorkspaces(), logger),
		Reviews:  application.NewReviewService(reviewer, githubadapter.NewSourceClient(cfg.GitHubToken), logger),
	}, nil
}
