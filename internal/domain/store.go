package domain

import (
	"context"
	"time"
)

// JobStore persists jobs, bids and assignments. Implementations must make
// AddBid a commutative, idempotent set union and Assign an atomic
// compare-and-set on job state, both safe under concurrent invocation.
type JobStore interface {
	// Register stores a new job in the OPEN state with an empty bid set.
	// Returns ErrDuplicateJob if the id is already registered.
	Register(ctx context.Context, job *JobRequest) error

	// Get returns a snapshot of a job record, or ErrJobNotFound.
	Get(ctx context.Context, jobID string) (*JobRecord, error)

	// AddBid records a bid for the job. Returns added=false when the
	// (job, worker) pair already has a bid. Fails with ErrJobNotFound,
	// ErrJobAlreadyAssigned or ErrJobExpired.
	AddBid(ctx context.Context, jobID, workerID string, at time.Time) (added bool, err error)

	// Assign transitions the job OPEN -> ASSIGNED for the given worker.
	// The transition is linearizable: exactly one distinct worker can
	// ever win. Re-assigning the winning worker returns the existing
	// assignment without error; a different worker after commit fails
	// with ErrJobAlreadyAssigned. The worker must have a recorded bid
	// (ErrWorkerNotBidder).
	Assign(ctx context.Context, jobID, workerID string, at time.Time) (*Assignment, error)

	// ExpireDue moves OPEN jobs whose scheduled time has passed to
	// EXPIRED and returns their ids. Assigned jobs are never expired.
	ExpireDue(ctx context.Context, now time.Time) ([]string, error)

	// ListByRequester returns summaries for the requester's jobs,
	// newest first.
	ListByRequester(ctx context.Context, requesterID string) ([]JobSummary, error)
}
