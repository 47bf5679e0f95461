// Command jobexport writes an XLSX snapshot of the job queue for operators.
//
//	jobexport -o jobs.xlsx -status FAILED -limit 500
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/akdino27/invoice-poc/constants"
	"github.com/akdino27/invoice-poc/internal/config"
	"github.com/akdino27/invoice-poc/internal/export"
	"github.com/akdino27/invoice-poc/internal/repository"
)

func main() {
	out := flag.String("o", "jobs.xlsx", "output file path")
	status := flag.String("status", "", "optional status filter (PENDING, PROCESSING, COMPLETED, FAILED, INVALID)")
	limit := flag.Int("limit", 1000, "maximum rows")
	flag.Parse()

	_ = godotenv.Load()

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg, err := config.Load()
	if err != nil {
		log.Error("config load failed", "error", err)
		os.Exit(1)
	}
	if cfg.Database.DSN == "" {
		log.Error("DB_URL is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := repository.Open(ctx, repository.DBConfig{
		DSN:         cfg.Database.DSN,
		MaxConns:    2,
		MinConns:    1,
		DialTimeout: cfg.Database.DialTimeout,
	}, log)
	if err != nil {
		log.Error("database open failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	svc := export.NewService(repository.NewJobRepository(pool, log), log)
	data, err := svc.ExportJobsXLSX(ctx, constants.JobStatus(*status), int32(*limit))
	if err != nil {
		log.Error("export failed", "error", err)
		os.Exit(1)
	}

	if err := os.WriteFile(*out, data, 0o644); err != nil {
		log.Error("write failed", "path", *out, "error", err)
		os.Exit(1)
	}
	log.Info("export written", "path", *out, "bytes", len(data))
}
