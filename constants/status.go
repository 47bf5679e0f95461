package constants

// JobStatus is the canonical status for rows in job_queues.
type JobStatus string

// Stable values (the backend stores these exact strings).
const (
	JobStatusPending    JobStatus = "PENDING"    // eligible for claiming
	JobStatusProcessing JobStatus = "PROCESSING" // claimed by a worker
	JobStatusCompleted  JobStatus = "COMPLETED"  // terminal success
	JobStatusFailed     JobStatus = "FAILED"     // terminal failure (retryable class)
	JobStatusInvalid    JobStatus = "INVALID"    // terminal, document not processable
)

// JobTypeInvoiceExtraction is the only job type this worker consumes.
const JobTypeInvoiceExtraction = "INVOICE_EXTRACTION"

// Callback status strings carried in the outcome payload.
const (
	CallbackCompleted = "COMPLETED"
	CallbackInvalid   = "INVALID"
	CallbackFailed    = "FAILED"
)
