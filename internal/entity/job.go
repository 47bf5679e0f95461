package entity

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/akdino27/invoice-poc/constants"
)

// JobPayload is the parsed shape of the PayloadJson column. It is written by
// the upstream producer and immutable from this worker's point of view.
type JobPayload struct {
	FileID         string `json:"fileId"`
	OriginalName   string `json:"originalName"`
	MimeType       string `json:"mimeType"`
	FileSize       int64  `json:"fileSize"`
	Uploader       string `json:"uploader,omitempty"`
	SchemaVersion  string `json:"schemaVersion"`
	IdempotencyKey string `json:"idempotencyKey"`
	DetectedAt     string `json:"detectedAt"`
}

// Validate checks the fields the pipeline cannot run without.
func (p *JobPayload) Validate() error {
	if p.FileID == "" {
		return fmt.Errorf("payload missing fileId")
	}
	if p.OriginalName == "" {
		return fmt.Errorf("payload missing originalName")
	}
	if p.MimeType == "" {
		return fmt.Errorf("payload missing mimeType")
	}
	if p.FileSize <= 0 {
		return fmt.Errorf("payload has invalid fileSize: %d", p.FileSize)
	}
	if p.IdempotencyKey == "" {
		return fmt.Errorf("payload missing idempotencyKey")
	}
	return nil
}

// ParseJobPayload decodes and validates a PayloadJson value.
func ParseJobPayload(raw []byte) (JobPayload, error) {
	var p JobPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return JobPayload{}, fmt.Errorf("decode payload: %w", err)
	}
	if err := p.Validate(); err != nil {
		return JobPayload{}, err
	}
	return p, nil
}

// Job is one row of the shared job_queues table, fully materialized.
type Job struct {
	ID           uuid.UUID
	JobType      string
	Status       constants.JobStatus
	Payload      JobPayload
	RetryCount   int
	LockedBy     *string
	LockedAt     *time.Time
	NextRetryAt  *time.Time
	ErrorMessage *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
