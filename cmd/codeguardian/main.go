package main

import (
	"context"
	"crypto/rand"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	backendadapter "github.com/ericfisherdev/codeguardian/internal/adapter/driven/backend"
	geminiadapter "github.com/ericfisherdev/codeguardian/internal/adapter/driven/gemini"
	githubadapter "github.com/ericfisherdev/codeguardian/internal/adapter/driven/github"
	sqliteadapter "github.com/ericfisherdev/codeguardian/internal/adapter/driven/sqlite"
	httphandler "github.com/ericfisherdev/codeguardian/internal/adapter/driving/http"
	webhandler "github.com/ericfisherdev/codeguardian/internal/adapter/driving/web"
	"github.com/ericfisherdev/codeguardian/internal/application"
	"github.com/ericfisherdev/codeguardian/internal/config"
	"github.com/ericfisherdev/codeguardian/internal/domain/port/driven"
)

const sessionPruneInterval = time.Hour

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on invalid values).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)
	logger.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"backend_url", cfg.BackendURL,
		"oauth", cfg.GitHubClientID != "",
		"reviewer", cfg.HasReviewer(),
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open session database (dual reader/writer with WAL mode).
	db, err := sqliteadapter.NewDB(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
	}()
	logger.Info("database opened", "path", cfg.DBPath)

	// 4. Run migrations on writer connection.
	version, err := sqliteadapter.RunMigrations(db.Writer)
	if err != nil {
		return err
	}
	logger.Info("migrations complete", "version", version)

	// 5. Wire driven adapters.
	key := cfg.SecretKey
	if !cfg.HasSecretKey() {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return err
		}
		logger.Warn("no secret key configured; sessions will not survive a restart",
			"hint", "set "+config.EnvPrefix+"_SECRET_KEY to 64 hex characters")
	}
	sessionStore := sqliteadapter.NewSessionRepo(db, key)

	backend, err := backendadapter.NewClient(cfg.BackendURL, &http.Client{Timeout: cfg.BackendTimeout})
	if err != nil {
		return err
	}

	var reviewer driven.CodeReviewer
	if cfg.HasReviewer() {
		gemini, err := geminiadapter.NewReviewer(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.ReviewTimeout, logger)
		if err != nil {
			return err
		}
		reviewer = gemini
		logger.Info("code reviewer enabled", "model", cfg.GeminiModel)
	} else {
		logger.Info("no gemini api key configured, code review disabled")
	}
	source := githubadapter.NewSourceClient(cfg.GitHubToken)
	if cfg.GitHubToken == "" {
		logger.Info("no github token configured, source review limited to public repositories")
	}

	// 6. Create application services.
	sessions := application.NewSessionManager(sessionStore, cfg.SessionTTL)
	authSvc := application.NewAuthService(backend, cfg.GitHubClientID, cfg.GitHubOAuthScope, cfg.OAuthRedirectURL(), logger)
	repoSvc := application.NewRepositoryService(backend, logger)
	prSvc := application.NewPRService(backend, logger)
	workspaces := application.NewWorkspaces()
	settingsFlow := application.NewSettingsFlow(application.NewSettingsService(backend, logger), workspaces, logger)
	reviewSvc := application.NewReviewService(reviewer, source, logger)
	healthSvc := application.NewHealthService(db, reviewer != nil, authSvc.Configured())

	// 7. Prune expired sessions in the background.
	go pruneSessions(ctx, sessionStore, sessions, workspaces, cfg.SessionTTL, logger)

	// 8. Create HTTP handler and register API routes.
	apiHandler := httphandler.NewHandler(httphandler.Services{
		Sessions: sessions,
		Repos:    repoSvc,
		PRs:      prSvc,
		Settings: settingsFlow,
		Reviews:  reviewSvc,
		Health:   healthSvc,
	}, logger)
	mux := http.NewServeMux()
	httphandler.RegisterAPIRoutes(mux, apiHandler)

	// 9. Create web handler and register GUI routes.
	webHandler := webhandler.NewHandler(webhandler.Services{
		Sessions: sessions,
		Auth:     authSvc,
		Repos:    repoSvc,
		PRs:      prSvc,
		Settings: settingsFlow,
		Reviews:  reviewSvc,
	}, webhandler.Options{
		SecureCookies: strings.HasPrefix(cfg.PublicURL, "https://"),
		SessionTTL:    cfg.SessionTTL,
	}, logger)
	webhandler.RegisterRoutes(mux, webHandler)

	// Apply middleware.
	handler := httphandler.ApplyMiddleware(mux, httphandler.MiddlewareOptions{AllowedOrigins: cfg.AllowedOrigins}, logger)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		// Reviews can take as long as the model allows.
		WriteTimeout: cfg.ReviewTimeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	logger.Info("codeguardian started", "listen_addr", cfg.ListenAddr)

	// 10. Wait for shutdown signal.
	<-ctx.Done()
	logger.Info("shutting down")

	// 11. Graceful shutdown with 10s timeout to drain in-flight requests.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}

// pruneSessions deletes sessions older than ttl once at startup and then
// every sessionPruneInterval until ctx is done. Each pass also evicts dead
// sessions from the in-memory cache and drops their settings workspaces.
func pruneSessions(ctx context.Context, store *sqliteadapter.SessionRepo, sessions *application.SessionManager, workspaces *application.Workspaces, ttl time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(sessionPruneInterval)
	defer ticker.Stop()

	for {
		n, err := store.DeleteOlderThan(ctx, time.Now().Add(-ttl))
		switch {
		case err != nil && ctx.Err() == nil:
			logger.Error("failed to prune sessions", "error", err)
		case n > 0:
			logger.Info("pruned expired sessions", "count", n)
		}
		evicted := sessions.Prune()
		dropped := workspaces.Retain(sessions.Active)
		if len(evicted) > 0 || dropped > 0 {
			logger.Debug("evicted cached sessions", "sessions", len(evicted), "workspaces", dropped)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
