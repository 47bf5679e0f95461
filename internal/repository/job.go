package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/akdino27/invoice-poc/constants"
	"github.com/akdino27/invoice-poc/internal/entity"
)

// JobRepository owns the claim/lock/release protocol against the shared
// job_queues table. Column identifiers are quoted PascalCase because the
// table is created by the backend's ORM.
type JobRepository interface {
	// ClaimJob atomically selects and locks the oldest eligible PENDING job
	// for workerID. Returns (nil, nil) when no job is eligible. The selecting
	// read skips rows locked by concurrent claims, so two workers racing
	// never receive the same row.
	ClaimJob(ctx context.Context, workerID string) (*entity.Job, error)
	// ReleaseLock clears the lock fields of a PROCESSING row without touching
	// its status. Returns false when the row is absent or not PROCESSING.
	ReleaseLock(ctx context.Context, jobID uuid.UUID) (bool, error)
	// ReleaseAll reverts every PROCESSING row locked by workerID back to
	// PENDING and clears the lock. Shutdown recovery only.
	ReleaseAll(ctx context.Context, workerID string) (int64, error)
	// ListJobs returns up to limit rows, newest first, optionally filtered by
	// status. Used by the operator export, not the poll loop.
	ListJobs(ctx context.Context, status constants.JobStatus, limit int32) ([]JobRow, error)
	// CountByStatus returns the queue depth per status.
	CountByStatus(ctx context.Context) (map[string]int64, error)
}

// JobRow is a list projection of a job_queues row. The payload stays raw so a
// malformed payload does not hide the row from operators.
type JobRow struct {
	ID           string
	JobType      string
	Status       string
	PayloadJSON  []byte
	RetryCount   int
	LockedBy     *string
	LockedAt     *time.Time
	ErrorMessage *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type jobRepo struct {
	db  *pgxpool.Pool
	log *slog.Logger
}

func NewJobRepository(db *pgxpool.Pool, logger *slog.Logger) JobRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &jobRepo{db: db, log: logger}
}

const claimSelectSQL = `
SELECT "Id"::text, "JobType", "Status", "PayloadJson"::text, "RetryCount",
       "NextRetryAt", "ErrorMessage", "CreatedAt", "UpdatedAt"
FROM "job_queues"
WHERE "Status" = 'PENDING'
  AND ("NextRetryAt" IS NULL OR "NextRetryAt" <= NOW() AT TIME ZONE 'UTC')
ORDER BY "CreatedAt" ASC
LIMIT 1
FOR UPDATE SKIP LOCKED`

const claimUpdateSQL = `
UPDATE "job_queues"
SET "Status" = 'PROCESSING',
    "LockedBy" = $1,
    "LockedAt" = NOW() AT TIME ZONE 'UTC',
    "UpdatedAt" = NOW() AT TIME ZONE 'UTC'
WHERE "Id" = $2::uuid`

func (r *jobRepo) ClaimJob(ctx context.Context, workerID string) (*entity.Job, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin claim tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var (
		idStr, jobType, status, payloadJSON string
		retryCount                          int
		nextRetryAt                         *time.Time
		errorMessage                        *string
		createdAt, updatedAt                time.Time
	)
	err = tx.QueryRow(ctx, claimSelectSQL).Scan(
		&idStr, &jobType, &status, &payloadJSON, &retryCount,
		&nextRetryAt, &errorMessage, &createdAt, &updatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select eligible job: %w", err)
	}

	jobID, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("job %s: bad id: %w", idStr, err)
	}

	// Parse before committing so a malformed payload rolls the claim back
	// and leaves the row untouched.
	payload, err := entity.ParseJobPayload([]byte(payloadJSON))
	if err != nil {
		return nil, fmt.Errorf("job %s: %w", idStr, err)
	}

	if _, err := tx.Exec(ctx, claimUpdateSQL, workerID, idStr); err != nil {
		return nil, fmt.Errorf("lock job %s: %w", idStr, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit claim: %w", err)
	}

	now := time.Now().UTC()
	r.log.Info("job.claimed", "job_id", idStr, "worker_id", workerID, "file", payload.OriginalName)
	return &entity.Job{
		ID:           jobID,
		JobType:      jobType,
		Status:       constants.JobStatusProcessing,
		Payload:      payload,
		RetryCount:   retryCount,
		LockedBy:     &workerID,
		LockedAt:     &now,
		NextRetryAt:  nextRetryAt,
		ErrorMessage: errorMessage,
		CreatedAt:    createdAt,
		UpdatedAt:    now,
	}, nil
}

func (r *jobRepo) ReleaseLock(ctx context.Context, jobID uuid.UUID) (bool, error) {
	tag, err := r.db.Exec(ctx, `
UPDATE "job_queues"
SET "LockedBy" = NULL, "LockedAt" = NULL
WHERE "Id" = $1::uuid AND "Status" = 'PROCESSING'`, jobID.String())
	if err != nil {
		return false, fmt.Errorf("release lock %s: %w", jobID, err)
	}
	released := tag.RowsAffected() > 0
	if !released {
		r.log.Warn("job.release_lock.miss", "job_id", jobID.String())
	}
	return released, nil
}

func (r *jobRepo) ReleaseAll(ctx context.Context, workerID string) (int64, error) {
	tag, err := r.db.Exec(ctx, `
UPDATE "job_queues"
SET "Status" = 'PENDING',
    "LockedBy" = NULL,
    "LockedAt" = NULL,
    "UpdatedAt" = NOW() AT TIME ZONE 'UTC'
WHERE "LockedBy" = $1 AND "Status" = 'PROCESSING'`, workerID)
	if err != nil {
		return 0, fmt.Errorf("release all for %s: %w", workerID, err)
	}
	n := tag.RowsAffected()
	if n > 0 {
		r.log.Info("job.release_all", "worker_id", workerID, "released", n)
	}
	return n, nil
}

func (r *jobRepo) ListJobs(ctx context.Context, status constants.JobStatus, limit int32) ([]JobRow, error) {
	if limit <= 0 {
		limit = 1000
	}
	query := `
SELECT "Id"::text, "JobType", "Status", "PayloadJson"::text, "RetryCount",
       "LockedBy", "LockedAt", "ErrorMessage", "CreatedAt", "UpdatedAt"
FROM "job_queues"`
	args := []any{}
	if status != "" {
		query += ` WHERE "Status" = $1`
		args = append(args, string(status))
	}
	query += fmt.Sprintf(` ORDER BY "CreatedAt" DESC LIMIT %d`, limit)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var out []JobRow
	for rows.Next() {
		var row JobRow
		var payload string
		if err := rows.Scan(&row.ID, &row.JobType, &row.Status, &payload, &row.RetryCount,
			&row.LockedBy, &row.LockedAt, &row.ErrorMessage, &row.CreatedAt, &row.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan job row: %w", err)
		}
		row.PayloadJSON = []byte(payload)
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *jobRepo) CountByStatus(ctx context.Context) (map[string]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT "Status", COUNT(*) FROM "job_queues" GROUP BY "Status"`)
	if err != nil {
		return nil, fmt.Errorf("count jobs: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan count row: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}
