package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/devilmonastery/inkwell/internal/app"
	inkwellconfig "github.com/devilmonastery/inkwell/internal/config"
	"github.com/devilmonastery/inkwell/internal/pkg/idgen"
	"github.com/devilmonastery/inkwell/internal/pkg/logger"
	"github.com/devilmonastery/inkwell/web/internal/config"
	"github.com/devilmonastery/inkwell/web/internal/handlers"
	"github.com/devilmonastery/inkwell/web/internal/middleware"
	"github.com/devilmonastery/inkwell/web/internal/render"
	"github.com/devilmonastery/inkwell/web/internal/session"
)

// setupWebLogging configures the global logger for the web service
func setupWebLogging(cfg logger.FileConfig) error {
	globalLogger, err := logger.SetupLogger(cfg.Config())
	if err != nil {
		return err
	}

	// Set as default logger so all slog.Info/Warn/Error calls use our configured logger
	slog.SetDefault(globalLogger)

	return nil
}

// sessionSecret resolves the cookie key. Priority: env var > config file > random
func sessionSecret(configured string, log *slog.Logger) ([]byte, error) {
	if envSecret := os.Getenv("SESSION_SECRET"); envSecret != "" {
		secret, err := base64.StdEncoding.DecodeString(envSecret)
		if err == nil {
			log.Info("using session secret (sessions will persist across restarts)", slog.String("source", "environment variable"))
			return secret, nil
		}
		log.Warn("failed to decode SESSION_SECRET env var, trying config", slog.Any("error", err))
	}

	if configured != "" {
		secret, err := base64.StdEncoding.DecodeString(configured)
		if err == nil {
			log.Info("using session secret (sessions will persist across restarts)", slog.String("source", "config file"))
			return secret, nil
		}
		log.Warn("failed to decode session secret from config", slog.Any("error", err))
	}

	log.Warn("no session secret configured, generating random one (sessions won't persist)")
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("failed to generate session secret: %w", err)
	}
	return secret, nil
}

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	// Load web configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Set up structured logging (must be done before any logging calls)
	if err = setupWebLogging(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to setup logging: %v\n", err)
		os.Exit(1)
	}

	log := slog.Default().With("component", "web")
	log.Info("starting inkwell web service")

	// The CLI stamps request IDs from node 1
	if err := idgen.Initialize(2); err != nil {
		log.Error("failed to initialize request IDs", slog.Any("error", err))
		os.Exit(1)
	}

	if err := run(cfg, log); err != nil {
		log.Error("web service failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg *config.WebServerConfig, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	settings, err := inkwellconfig.Load(cfg.Settings)
	if err != nil {
		return fmt.Errorf("failed to load client settings: %w", err)
	}

	a, err := app.New(ctx, settings, app.WithStoreName("web"), app.WithLogger(slog.Default()))
	if err != nil {
		return err
	}
	defer a.Close()
	log.Info("blog API", slog.String("base_url", settings.BaseURL()))

	refresher, err := a.NewRefresher()
	if err != nil {
		return fmt.Errorf("failed to create token refresher: %w", err)
	}
	if err := refresher.Start(); err != nil {
		return fmt.Errorf("failed to start token refresher: %w", err)
	}
	defer refresher.Stop()

	// Load templates from configured path (empty uses the embedded set)
	templates, err := render.LoadTemplates(cfg.Templates.Path)
	if err != nil {
		return fmt.Errorf("failed to load templates: %w", err)
	}
	render.LogTemplateNames(templates, slog.Default())

	secret, err := sessionSecret(cfg.Session.Secret, log)
	if err != nil {
		return err
	}
	sessionMgr := session.NewManager(secret, cfg.Session.Secure)
	authMw := middleware.NewAuthMiddleware(sessionMgr, log)

	h := handlers.New(a, sessionMgr, templates, cfg.Site, slog.Default())
	router := handlers.NewRouter(h, authMw, slog.Default())

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", slog.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
