package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vocabpractice/internal/config"
	"vocabpractice/internal/database"
	"vocabpractice/internal/handlers"
	"vocabpractice/internal/logger"
	"vocabpractice/internal/practice"
	"vocabpractice/internal/repository"
	"vocabpractice/internal/security"
	"vocabpractice/internal/service"
	"vocabpractice/internal/templates"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()
	log.Info("database connection established", "type", cfg.DatabaseType)

	applied, err := db.RunMigrations(ctx, cfg.MigrationsPath)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info("migrations completed", "applied", len(applied))

	tmpl, err := templates.Load()
	if err != nil {
		return fmt.Errorf("failed to load templates: %w", err)
	}

	teacherRepo := repository.NewTeacherRepository(db)
	wordSetRepo := repository.NewWordSetRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)

	email, err := service.NewEmailService(ctx, service.EmailConfig{
		AWSRegion:  cfg.AWSRegion,
		FromEmail:  cfg.SESFromEmail,
		FromName:   cfg.SESFromName,
		AppBaseURL: cfg.AppBaseURL,
		Debug:      cfg.EmailDebug,
	}, log.With("component", "email"))
	if err != nil {
		return fmt.Errorf("failed to initialize email service: %w", err)
	}

	authService := service.NewAuthService(teacherRepo, email, cfg.SessionDuration, log.With("component", "auth_service"))
	wordSetService := service.NewWordSetService(wordSetRepo, submissionRepo, log.With("component", "word_set_service"))
	wizard := practice.NewWizard(service.NewPracticeStore(teacherRepo, wordSetRepo, submissionRepo))

	var (
		states practice.StateStore
		memory *practice.MemoryStore
	)
	if cfg.RedisAddr != "" {
		redisStore, err := practice.NewRedisStore(ctx, cfg.RedisAddr, cfg.WizardTTL)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer redisStore.Close()
		states = redisStore
		log.Info("wizard state store", "backend", "redis", "addr", cfg.RedisAddr)
	} else {
		memory = practice.NewMemoryStore(cfg.WizardTTL)
		states = memory
		log.Info("wizard state store", "backend", "memory")
	}

	if cfg.CSRFSecret == "" {
		log.Warn("CSRF_SECRET not set, using a random secret for this process")
	}
	csrf := security.NewCSRFGenerator(cfg.CSRFSecret)
	limiter := security.NewRateLimiter(10, time.Minute)
	go limiter.Run(ctx, 5*time.Minute)

	render := handlers.NewRenderer(tmpl, csrf, log)
	router := &handlers.Router{
		Middleware: handlers.NewMiddleware(authService, csrf, log),
		Home:       handlers.NewHomeHandler(render, db, log),
		Auth:       handlers.NewAuthHandler(authService, render, handlers.NewOAuthProviders(cfg), cfg.OAuthRedirectBaseURL, log),
		Practice:   handlers.NewPracticeHandler(wizard, states, render, log, cfg.WizardTTL),
		WordSets:   handlers.NewWordSetHandler(wordSetService, render, log),
		Limiter:    limiter,
		Log:        log,
	}

	go cleanupLoop(ctx, log, authService, memory)

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("server starting", "addr", "http://localhost"+server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// cleanupLoop removes expired sessions, reset tokens and in-memory wizard
// state once an hour. memory is nil when redis expires state itself.
func cleanupLoop(ctx context.Context, log *logger.Logger, auth *service.AuthService, memory *practice.MemoryStore) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := auth.CleanupExpired(ctx); err != nil {
				log.Error("failed to clean up expired sessions", "error", err)
			}
			if memory != nil {
				if n := memory.Cleanup(); n > 0 {
					log.Debug("expired wizard state removed", "count", n)
				}
			}
		}
	}
}
