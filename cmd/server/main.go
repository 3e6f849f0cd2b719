package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/peaklab/peak-importer/internal/ai"
	"github.com/peaklab/peak-importer/internal/config"
	"github.com/peaklab/peak-importer/internal/extract"
	httpserver "github.com/peaklab/peak-importer/internal/interfaces/http"
	"github.com/peaklab/peak-importer/internal/job"
	"github.com/peaklab/peak-importer/internal/ocr"
	"github.com/peaklab/peak-importer/pkg/utils"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = gotenv.Load()

	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting PEAK importer",
		zap.Int("port", cfg.Server.Port),
		zap.Bool("ai_enabled", cfg.OpenAI.Enabled),
		zap.Bool("ocr_enabled", cfg.OCR.Enabled))

	// Text acquisition. The engine slot takes an external OCR implementation;
	// without one, scanned documents surface as review rows. ocr.enabled
	// gates the engine fallback, never the PDF text layer.
	source := ocr.NewSource(nil, ocr.Config{
		Enabled:      cfg.OCR.Enabled,
		MaxPages:     cfg.OCR.MaxPages,
		MinTextChars: cfg.OCR.MinTextChars,
	}, logger)

	filler := ai.NewFiller(ai.Config{
		Enabled:      cfg.OpenAI.Enabled,
		APIKey:       cfg.OpenAI.APIKey,
		Model:        cfg.OpenAI.Model,
		Temperature:  cfg.OpenAI.Temperature,
		MaxTextChars: cfg.OpenAI.MaxTextChars,
	}, logger)

	engine := extract.NewEngine(logger)
	runner := job.NewRunner(source, filler, engine, cfg.Jobs.AIOnlyFillEmpty, logger)

	jobs := job.NewService(runner, job.Limits{
		MaxFiles:     cfg.Upload.MaxFiles,
		MaxFileBytes: cfg.Upload.MaxFileBytes(),
	}, cfg.Jobs.TTL, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Jobs.SweepInterval > 0 {
		jobs.StartSweeper(ctx, cfg.Jobs.SweepInterval)
	}

	server := httpserver.NewServer(httpserver.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		CORSOrigins:  cfg.Server.CORSOrigins,
	}, cfg, jobs, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(ctx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		logger.Info("Shutting down server...")
		cancel()
		<-errCh
	case err := <-errCh:
		if err != nil {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}

	logger.Info("Server exited successfully")
}
