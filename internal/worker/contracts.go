// Package worker runs the single-consumer job loop: claim a queued invoice
// job, run the extraction pipeline on its file, and report the outcome to the
// backend over a signed callback.
package worker

import "context"

// FileFetcher downloads the source file named by a job payload.
type FileFetcher interface {
	Fetch(ctx context.Context, fileID string) ([]byte, error)
}
