package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"thrivepath/internal/config"
	"thrivepath/internal/database"
	"thrivepath/internal/handlers"
	"thrivepath/internal/logger"
	"thrivepath/internal/metrics"
	"thrivepath/internal/repository"
	"thrivepath/internal/security"
	"thrivepath/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid configuration", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database with config (supports sqlite, postgres, pgx, mysql)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatal("Failed to initialize database", "error", err)
	}
	defer db.Close()
	log.Info("Database connection established", "type", cfg.DatabaseType)

	applied, err := db.RunMigrations(ctx)
	if err != nil {
		log.Fatal("Failed to run migrations", "error", err)
	}
	log.Info("Migrations completed successfully", "applied", applied)

	// Initialize repositories
	accountRepo := repository.NewAccountRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	noteRepo := repository.NewNoteRepository(db)

	// Initialize services
	tokens := security.NewTokenService(cfg.JWTSecret, cfg.AccessTokenTTL)
	authService := service.NewAuthService(accountRepo, tokens, log)
	studentService := service.NewStudentService(studentRepo, accountRepo)

	router := handlers.NewRouter(handlers.RouterConfig{
		Auth:        authService,
		Profiles:    service.NewProfileService(accountRepo),
		Students:    studentService,
		Sessions:    service.NewSessionService(sessionRepo, studentService),
		Notes:       service.NewNoteService(noteRepo),
		DB:          db,
		Logger:      log,
		Metrics:     metrics.New(),
		Limiter:     security.NewRateLimiter(ctx, cfg.LoginRateLimit, cfg.LoginRateWindow),
		RateWindow:  cfg.LoginRateWindow,
		CORSOrigins: cfg.CORSOrigins,
	})

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			log.Error("Server failed", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}
	log.Info("Server exited")
}
