package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"referral-intake-service/internal/common"
	"referral-intake-service/internal/content"
	"referral-intake-service/internal/export"
	"referral-intake-service/internal/ingest"
	"referral-intake-service/internal/llm/gemini"
	"referral-intake-service/internal/pipeline"
	"referral-intake-service/internal/repository"
	"referral-intake-service/internal/server"
	"referral-intake-service/internal/storage"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file loaded", "error", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repository.Open(ctx, repository.Config{
		Path:        cfg.Database.Path,
		DialTimeout: cfg.Database.DialTimeout,
	}, logger)
	if err != nil {
		logger.Error("failed to open record store", "error", err, "path", cfg.Database.Path)
		os.Exit(1)
	}
	defer repository.Close(db, logger)

	if err := repository.HealthCheck(ctx, db, 5*time.Second, logger); err != nil {
		logger.Error("record store health check failed", "error", err)
		os.Exit(1)
	}

	repo := repository.NewReferralRepository(db, logger)
	if cfg.Database.SeedDemo {
		if err := repository.SeedDemoData(ctx, repo, logger); err != nil {
			logger.Error("failed to seed demo data", "error", err)
			os.Exit(1)
		}
	}

	// Remote document storage is optional; without a container URL every
	// upload is kept inline as a data URL.
	var uploader storage.BlobUploader
	if cfg.Storage.ContainerURL != "" {
		uploader = storage.NewContainerClient(cfg.Storage.ContainerURL, cfg.Storage.Timeout, logger)
	}
	resolver := storage.NewResolver(uploader, logger)

	extractor := gemini.NewClient(gemini.Config{
		APIKey:      cfg.Extraction.APIKey,
		BaseURL:     cfg.Extraction.BaseURL,
		Model:       cfg.Extraction.Model,
		Temperature: cfg.Extraction.Temperature,
		Timeout:     cfg.Extraction.Timeout,
	}, logger)

	ing := pipeline.NewIngestion(logger, content.NewExtractor(logger), resolver, extractor, repo)
	exporter := export.NewService(repo, logger)

	if cfg.Intake.Dir != "" {
		drop := ingest.NewDropFolder(cfg.Intake.Dir, ing, logger)
		go func() {
			if err := drop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("drop folder watcher stopped", "error", err)
			}
		}()
	}

	srv := server.New(ing, repo, exporter,
		func(ctx context.Context) error {
			return repository.HealthCheck(ctx, db, 3*time.Second, logger)
		},
		server.Options{
			MaxUploadMiB: cfg.Server.MaxUploadMiB,
			CORSOrigins:  cfg.Server.CORSOrigins,
		}, logger)

	httpSrv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("http serving", "addr", cfg.Server.Addr, "model", cfg.Extraction.Model)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
	logger.Info("stopped")
}
