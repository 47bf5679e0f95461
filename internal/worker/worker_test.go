package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/akdino27/invoice-poc/constants"
	"github.com/akdino27/invoice-poc/internal/entity"
	"github.com/akdino27/invoice-poc/internal/repository"
)

// fakeQueue hands out a fixed set of jobs and records the call sequence so
// tests can assert ordering between lock release and callback delivery.
type fakeQueue struct {
	jobs          []*entity.Job
	claimErr      error
	events        *[]string
	released      []uuid.UUID
	releaseCtxErr error
	held          int64
}

func (q *fakeQueue) ClaimJob(ctx context.Context, workerID string) (*entity.Job, error) {
	if q.claimErr != nil {
		return nil, q.claimErr
	}
	if len(q.jobs) == 0 {
		return nil, nil
	}
	job := q.jobs[0]
	q.jobs = q.jobs[1:]
	q.held++
	*q.events = append(*q.events, "claim")
	return job, nil
}

func (q *fakeQueue) ReleaseLock(ctx context.Context, jobID uuid.UUID) (bool, error) {
	q.held--
	q.released = append(q.released, jobID)
	q.releaseCtxErr = ctx.Err()
	*q.events = append(*q.events, "release")
	return true, nil
}

func (q *fakeQueue) ReleaseAll(ctx context.Context, workerID string) (int64, error) {
	n := q.held
	q.held = 0
	*q.events = append(*q.events, "release_all")
	return n, nil
}

func (q *fakeQueue) ListJobs(ctx context.Context, status constants.JobStatus, limit int32) ([]repository.JobRow, error) {
	return nil, nil
}

func (q *fakeQueue) CountByStatus(ctx context.Context) (map[string]int64, error) {
	return nil, nil
}

type fakeProc struct {
	status string
	events *[]string
}

func (p *fakeProc) Process(ctx context.Context, job *entity.Job, workerID string) *entity.Outcome {
	*p.events = append(*p.events, "process")
	switch p.status {
	case constants.CallbackInvalid:
		return entity.InvalidOutcome(job.ID.String(), workerID, "bad input")
	case constants.CallbackFailed:
		return entity.FailedOutcome(job.ID.String(), workerID, "boom")
	default:
		return entity.CompletedOutcome(job.ID.String(), workerID, goodInvoice())
	}
}

type fakeSender struct {
	events     *[]string
	delivered  []*entity.Outcome
	err        error
	lastCtxErr error
}

func (s *fakeSender) Deliver(ctx context.Context, outcome *entity.Outcome) error {
	*s.events = append(*s.events, "deliver")
	s.delivered = append(s.delivered, outcome)
	s.lastCtxErr = ctx.Err()
	return s.err
}

func queuedJob() *entity.Job {
	j := testJob()
	j.ID = uuid.New()
	return j
}

func TestHandleJob_ReleasesLockBeforeCallback(t *testing.T) {
	var events []string
	q := &fakeQueue{jobs: []*entity.Job{queuedJob()}, events: &events}
	proc := &fakeProc{events: &events}
	sender := &fakeSender{events: &events}
	s := NewSupervisor(SupervisorConfig{WorkerID: "w1"}, q, proc, sender, nil, nil)

	s.runCycle(context.Background())

	want := []string{"claim", "process", "release", "deliver"}
	if len(events) != len(want) {
		t.Fatalf("events = %v, want %v", events, want)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("events = %v, want %v", events, want)
		}
	}
	if len(sender.delivered) != 1 || sender.delivered[0].Status != constants.CallbackCompleted {
		t.Errorf("delivered = %+v", sender.delivered)
	}
}

func TestRunCycle_OneJobPerCycle(t *testing.T) {
	var events []string
	q := &fakeQueue{jobs: []*entity.Job{queuedJob(), queuedJob(), queuedJob()}, events: &events}
	sender := &fakeSender{events: &events}
	s := NewSupervisor(SupervisorConfig{}, q, &fakeProc{events: &events}, sender, nil, nil)

	s.runCycle(context.Background())
	if len(sender.delivered) != 1 {
		t.Fatalf("delivered %d outcomes after one cycle, want 1", len(sender.delivered))
	}
	if len(q.jobs) != 2 {
		t.Fatalf("%d jobs left queued, want 2", len(q.jobs))
	}

	s.runCycle(context.Background())
	s.runCycle(context.Background())
	if len(sender.delivered) != 3 || len(q.released) != 3 {
		t.Fatalf("delivered %d, released %d, want 3 each", len(sender.delivered), len(q.released))
	}
}

// A processor that only returns once its deadline has passed, like a hung
// OCR or model call cut off by the process timeout.
type overrunProc struct{}

func (overrunProc) Process(ctx context.Context, job *entity.Job, workerID string) *entity.Outcome {
	<-ctx.Done()
	return entity.FailedOutcome(job.ID.String(), workerID, "processing timed out")
}

func TestHandleJob_CleanupOutlivesProcessTimeout(t *testing.T) {
	var events []string
	q := &fakeQueue{jobs: []*entity.Job{queuedJob()}, events: &events}
	sender := &fakeSender{events: &events}
	s := NewSupervisor(SupervisorConfig{ProcessTimeout: 20 * time.Millisecond}, q,
		overrunProc{}, sender, nil, nil)

	s.runCycle(context.Background())

	if len(q.released) != 1 {
		t.Fatal("lock not released after process timeout")
	}
	if q.releaseCtxErr != nil {
		t.Errorf("ReleaseLock got expired context: %v", q.releaseCtxErr)
	}
	if len(sender.delivered) != 1 {
		t.Fatal("outcome not delivered after process timeout")
	}
	if sender.lastCtxErr != nil {
		t.Errorf("Deliver got expired context: %v", sender.lastCtxErr)
	}
	if sender.delivered[0].Status != constants.CallbackFailed {
		t.Errorf("status = %q, want FAILED", sender.delivered[0].Status)
	}
}

func TestHandleJob_CallbackFailureStillCounts(t *testing.T) {
	var events []string
	q := &fakeQueue{jobs: []*entity.Job{queuedJob()}, events: &events}
	sender := &fakeSender{events: &events, err: errors.New("backend down")}
	stats := NewStats()
	s := NewSupervisor(SupervisorConfig{}, q, &fakeProc{events: &events}, sender, stats, nil)

	s.runCycle(context.Background())

	if len(q.released) != 1 {
		t.Fatal("lock not released")
	}
	if got := stats.Snapshot().Completed; got != 1 {
		t.Errorf("completed = %d, want 1", got)
	}
}

func TestRunCycle_ClaimErrorReturns(t *testing.T) {
	var events []string
	q := &fakeQueue{claimErr: errors.New("db gone"), events: &events}
	s := NewSupervisor(SupervisorConfig{}, q, &fakeProc{events: &events}, &fakeSender{events: &events}, nil, nil)

	// Must return instead of spinning.
	s.runCycle(context.Background())
	if len(events) != 0 {
		t.Errorf("events = %v, want none", events)
	}
}

func TestRun_ShutdownRevertsHeldLocks(t *testing.T) {
	var events []string
	q := &fakeQueue{events: &events, held: 2}
	s := NewSupervisor(SupervisorConfig{PollInterval: time.Millisecond}, q,
		&fakeProc{events: &events}, &fakeSender{events: &events}, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if q.held != 0 {
		t.Errorf("held = %d after shutdown, want 0", q.held)
	}
	if events[len(events)-1] != "release_all" {
		t.Errorf("events = %v, want release_all last", events)
	}
}

func TestRun_ShutdownWithNoHeldLocks(t *testing.T) {
	var events []string
	q := &fakeQueue{events: &events}
	s := NewSupervisor(SupervisorConfig{PollInterval: time.Millisecond}, q,
		&fakeProc{events: &events}, &fakeSender{events: &events}, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if q.held != 0 {
		t.Errorf("held = %d, want 0", q.held)
	}
}

func TestStats_Counting(t *testing.T) {
	s := NewStats()
	s.Record(constants.CallbackCompleted)
	s.Record(constants.CallbackCompleted)
	s.Record(constants.CallbackInvalid)
	s.Record(constants.CallbackFailed)

	snap := s.Snapshot()
	if snap.Processed != 4 || snap.Completed != 2 || snap.Invalid != 1 || snap.Failed != 1 {
		t.Errorf("snapshot = %+v", snap)
	}
	if snap.SuccessRate != 0.5 {
		t.Errorf("success rate = %v, want 0.5", snap.SuccessRate)
	}
}

func TestStats_EmptySnapshot(t *testing.T) {
	snap := NewStats().Snapshot()
	if snap.Processed != 0 || snap.SuccessRate != 0 {
		t.Errorf("snapshot = %+v", snap)
	}
}
