// Command worker runs the invoice extraction consumer: it polls the shared
// job queue, processes one job at a time through OCR and the extraction
// model, and reports each outcome to the backend over a signed callback.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/akdino27/invoice-poc/internal/callback"
	"github.com/akdino27/invoice-poc/internal/config"
	"github.com/akdino27/invoice-poc/internal/drive"
	"github.com/akdino27/invoice-poc/internal/extract"
	"github.com/akdino27/invoice-poc/internal/llm/groq"
	"github.com/akdino27/invoice-poc/internal/ocr"
	"github.com/akdino27/invoice-poc/internal/repository"
	"github.com/akdino27/invoice-poc/internal/server"
	"github.com/akdino27/invoice-poc/internal/worker"
)

func main() {
	_ = godotenv.Load()

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		log.Error("config load failed", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		log.Error("config invalid", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := repository.Open(ctx, repository.DBConfig{
		DSN:              cfg.Database.DSN,
		MaxConns:         cfg.Database.MaxConns,
		MinConns:         cfg.Database.MinConns,
		MaxConnLifetime:  cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:  cfg.Database.MaxConnIdleTime,
		DialTimeout:      cfg.Database.DialTimeout,
		StatementTimeout: cfg.Database.StatementTimeout,
	}, log)
	if err != nil {
		log.Error("database open failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := repository.HealthCheck(ctx, pool, 3*time.Second); err != nil {
		log.Error("database health check failed", "error", err)
		os.Exit(1)
	}

	jobs := repository.NewJobRepository(pool, log)

	files := drive.NewClient(drive.Config{
		BaseURL:     cfg.Drive.BaseURL,
		AccessToken: cfg.Drive.AccessToken,
		Timeout:     cfg.Drive.DownloadTimeout,
		MaxRetries:  cfg.Drive.MaxRetries,
	}, log)

	texts := ocr.NewExtractor(ocr.Config{}, log)

	model := groq.NewClient(groq.Config{
		APIKey:       cfg.LLM.APIKey,
		BaseURL:      cfg.LLM.BaseURL,
		Model:        cfg.LLM.Model,
		Temperature:  cfg.LLM.Temperature,
		Timeout:      cfg.LLM.Timeout,
		MaxTextChars: cfg.LLM.MaxTextChars,
	}, log)

	sender := callback.NewSender(callback.SenderConfig{
		BackendURL: cfg.Callback.BackendURL,
		Secret:     cfg.Callback.Secret,
		Timeout:    cfg.Callback.Timeout,
	}, log)

	pipeline := worker.NewPipeline(
		worker.PipelineConfig{MinTextChars: cfg.Worker.MinTextChars},
		files,
		extract.NewImageAdapter(texts),
		extract.NewPDFAdapter(texts),
		model,
		log,
	)

	supervisor := worker.NewSupervisor(worker.SupervisorConfig{
		WorkerID:       cfg.Worker.ID,
		PollInterval:   cfg.Worker.PollInterval,
		ProcessTimeout: cfg.Worker.ProcessTimeout,
	}, jobs, pipeline, sender, nil, log)

	srv := server.New(cfg.Server.Addr, pool, jobs, supervisor.Stats(), log)
	go func() {
		if err := srv.Start(); err != nil {
			log.Error("http server failed", "error", err)
		}
	}()

	err = supervisor.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)

	if err != nil {
		log.Error("worker exited with error", "error", err)
		os.Exit(1)
	}
}
