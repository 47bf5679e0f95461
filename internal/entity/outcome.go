package entity

import (
	"time"

	"github.com/akdino27/invoice-poc/constants"
)

// Outcome is the terminal result of one processing attempt, reported to the
// backend exactly once per claimed job. JSON keys are the callback contract.
type Outcome struct {
	JobID       string   `json:"jobId"`
	Status      string   `json:"status"`
	WorkerID    string   `json:"workerId"`
	ProcessedAt string   `json:"processedAt"`
	Result      *Invoice `json:"result,omitempty"`
	Reason      string   `json:"reason,omitempty"`
}

func newOutcome(jobID, status, workerID string) *Outcome {
	return &Outcome{
		JobID:       jobID,
		Status:      status,
		WorkerID:    workerID,
		ProcessedAt: time.Now().UTC().Format(time.RFC3339),
	}
}

// CompletedOutcome carries the extracted invoice.
func CompletedOutcome(jobID, workerID string, inv *Invoice) *Outcome {
	o := newOutcome(jobID, constants.CallbackCompleted, workerID)
	o.Result = inv
	return o
}

// InvalidOutcome marks the document as unprocessable (not retried).
func InvalidOutcome(jobID, workerID, reason string) *Outcome {
	o := newOutcome(jobID, constants.CallbackInvalid, workerID)
	o.Reason = reason
	return o
}

// FailedOutcome marks a processing failure (retryable by the producer).
func FailedOutcome(jobID, workerID, reason string) *Outcome {
	o := newOutcome(jobID, constants.CallbackFailed, workerID)
	o.Reason = reason
	return o
}
