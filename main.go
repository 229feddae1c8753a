package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/msomdec/strikkeguide/internal/config"
	"github.com/msomdec/strikkeguide/internal/handler"
	"github.com/msomdec/strikkeguide/internal/repository/sqlite"
	"github.com/msomdec/strikkeguide/internal/service"
)

func main() {
	logOpts := &slog.HandlerOptions{Level: slog.LevelInfo}
	logger := slog.New(slog.NewMultiHandler(
		slog.NewTextHandler(os.Stdout, logOpts),
		slog.NewJSONHandler(os.Stderr, logOpts),
	))
	slog.SetDefault(logger)

	cfg, err := config.Load(os.Getenv("STRIKKEGUIDE_CONFIG"))
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.RequireJWTSecret(); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}

	db, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(context.Background()); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("database migrations applied")

	extraction, err := cfg.NewExtractionService(logger)
	if err != nil {
		slog.Error("failed to set up extraction", "error", err)
		os.Exit(1)
	}
	slog.Info("extraction configured", "mode", extraction.Mode(), "llm", cfg.HasLLM(), "ocr_lang", cfg.OCR.Language)

	limiter := cfg.ImportLimiter()
	if limiter != nil {
		defer limiter.Close()
	}

	authService := service.NewAuthService(db.Users(), cfg.JWTSecret, cfg.BcryptCost)
	projectService := service.NewProjectService(db.Projects(), db.Counters(), db.Files(), db.Users())
	progressService := service.NewProgressService(db.Projects(), db.Counters())
	importService := service.NewImportService(extraction, projectService, db.Files(), limiter, logger)

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, handler.Services{
		Auth:     authService,
		Projects: projectService,
		Progress: progressService,
		Imports:  importService,
		DB:       db,
	}, cfg.CookieSecure)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler.SecurityHeaders(mux),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
