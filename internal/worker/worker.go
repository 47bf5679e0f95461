package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/akdino27/invoice-poc/internal/entity"
	"github.com/akdino27/invoice-poc/internal/repository"
)

// JobProcessor turns one claimed job into exactly one outcome.
type JobProcessor interface {
	Process(ctx context.Context, job *entity.Job, workerID string) *entity.Outcome
}

// OutcomeSender delivers a terminal outcome to the backend.
type OutcomeSender interface {
	Deliver(ctx context.Context, outcome *entity.Outcome) error
}

// SupervisorConfig tunes the poll loop.
type SupervisorConfig struct {
	WorkerID       string
	PollInterval   time.Duration
	ProcessTimeout time.Duration
	// ShutdownTimeout bounds lock releases: per-job and the exit sweep.
	ShutdownTimeout time.Duration
}

func (c *SupervisorConfig) applyDefaults() {
	if c.WorkerID == "" {
		c.WorkerID = "worker-1"
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 5 * time.Second
	}
	if c.ProcessTimeout <= 0 {
		c.ProcessTimeout = 10 * time.Minute
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 10 * time.Second
	}
}

// Supervisor is the single consumer of the job queue. It claims one job at a
// time, hands it to the processor, releases the row lock, and only then
// reports the outcome. A job whose callback delivery fails is still done from
// the queue's point of view; the producer's retry policy owns redelivery.
type Supervisor struct {
	cfg    SupervisorConfig
	jobs   repository.JobRepository
	proc   JobProcessor
	sender OutcomeSender
	stats  *Stats
	log    *slog.Logger
}

func NewSupervisor(cfg SupervisorConfig, jobs repository.JobRepository, proc JobProcessor, sender OutcomeSender, stats *Stats, logger *slog.Logger) *Supervisor {
	cfg.applyDefaults()
	if stats == nil {
		stats = NewStats()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Supervisor{cfg: cfg, jobs: jobs, proc: proc, sender: sender, stats: stats, log: logger}
}

// Stats exposes the outcome counters for the operational HTTP surface.
func (s *Supervisor) Stats() *Stats {
	return s.stats
}

// Run polls until ctx is canceled. Each cycle claims at most one job, then
// waits for the next tick, so a deep backlog never starves the cancellation
// check. On exit it reverts any lock still held by this worker so the rows
// become claimable again.
func (s *Supervisor) Run(ctx context.Context) error {
	s.log.Info("worker.started", "worker_id", s.cfg.WorkerID, "poll_interval", s.cfg.PollInterval)
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		s.runCycle(ctx)
		select {
		case <-ctx.Done():
			return s.shutdown()
		case <-ticker.C:
		}
	}
}

func (s *Supervisor) runCycle(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	job, err := s.jobs.ClaimJob(ctx, s.cfg.WorkerID)
	if err != nil {
		if ctx.Err() == nil {
			s.log.Error("worker.claim_failed", "error", err)
		}
		return
	}
	if job == nil {
		return
	}
	s.handleJob(ctx, job)
}

// handleJob finishes the claimed job even when shutdown begins mid-flight:
// the processing context survives cancellation of ctx and is bounded by the
// process timeout instead.
func (s *Supervisor) handleJob(ctx context.Context, job *entity.Job) {
	procCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.ProcessTimeout)
	s.log.Info("job.claimed", "job_id", job.ID, "file", job.Payload.OriginalName, "retry_count", job.RetryCount)
	outcome := s.proc.Process(procCtx, job, s.cfg.WorkerID)
	cancel()

	// Release and callback run on their own deadlines. A job that overran the
	// process timeout returns here with procCtx already expired, and the row
	// must still be unlocked and the outcome still reported.
	releaseCtx, cancelRelease := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.ShutdownTimeout)
	// The row lock goes before the callback so the backend never observes a
	// terminal callback while the row is still held.
	released, err := s.jobs.ReleaseLock(releaseCtx, job.ID)
	cancelRelease()
	if err != nil {
		s.log.Error("job.release_failed", "job_id", job.ID, "error", err)
	} else if !released {
		s.log.Warn("job.release_noop", "job_id", job.ID)
	}

	// The sender's own HTTP timeout bounds delivery.
	if err := s.sender.Deliver(context.WithoutCancel(ctx), outcome); err != nil {
		s.log.Error("job.callback_failed", "job_id", job.ID, "status", outcome.Status, "error", err)
	}

	s.stats.Record(outcome.Status)
	s.log.Info("job.done", "job_id", job.ID, "status", outcome.Status)
}

func (s *Supervisor) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	n, err := s.jobs.ReleaseAll(ctx, s.cfg.WorkerID)
	if err != nil {
		s.log.Error("worker.release_all_failed", "error", err)
		return err
	}
	s.log.Info("worker.stopped", "worker_id", s.cfg.WorkerID, "locks_reverted", n)
	return nil
}
