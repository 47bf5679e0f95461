package worker

import (
	"sync"
	"time"

	"github.com/akdino27/invoice-poc/constants"
)

// Stats counts outcomes since startup. Safe for concurrent reads from the
// operational HTTP surface while the loop writes.
type Stats struct {
	mu        sync.Mutex
	started   time.Time
	completed int64
	invalid   int64
	failed    int64
}

// StatsSnapshot is a point-in-time copy for reporting.
type StatsSnapshot struct {
	WorkerUptime string  `json:"workerUptime"`
	Processed    int64   `json:"processed"`
	Completed    int64   `json:"completed"`
	Invalid      int64   `json:"invalid"`
	Failed       int64   `json:"failed"`
	SuccessRate  float64 `json:"successRate"`
}

func NewStats() *Stats {
	return &Stats{started: time.Now()}
}

// Record tallies one outcome by its callback status.
func (s *Stats) Record(status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch status {
	case constants.CallbackCompleted:
		s.completed++
	case constants.CallbackInvalid:
		s.invalid++
	default:
		s.failed++
	}
}

// Snapshot returns current counters. Success rate is completed over all
// processed, 0 when nothing has been processed yet.
func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := s.completed + s.invalid + s.failed
	rate := 0.0
	if total > 0 {
		rate = float64(s.completed) / float64(total)
	}
	return StatsSnapshot{
		WorkerUptime: time.Since(s.started).Round(time.Second).String(),
		Processed:    total,
		Completed:    s.completed,
		Invalid:      s.invalid,
		Failed:       s.failed,
		SuccessRate:  rate,
	}
}
