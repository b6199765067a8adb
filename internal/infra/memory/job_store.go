// Package memory provides the in-process implementations of the dispatch
// core's ports. State does not survive a restart; the invariants (bid-set
// union, single-winner assignment) hold regardless of the backing store.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"gig-dispatch/internal/domain"
)

type jobEntry struct {
	mu         sync.Mutex
	job        domain.JobRequest
	state      domain.JobState
	bids       map[string]domain.Bid
	bidOrder   []string
	assignment *domain.Assignment
}

// JobStore implements domain.JobStore with a per-job mutex, so concurrent
// operations on different jobs never contend.
type JobStore struct {
	mu   sync.RWMutex
	jobs map[string]*jobEntry
}

// NewJobStore creates an empty JobStore.
func NewJobStore() *JobStore {
	return &JobStore{jobs: make(map[string]*jobEntry)}
}

// Register stores a new job in the OPEN state with an empty bid set.
func (s *JobStore) Register(ctx context.Context, job *domain.JobRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[job.ID]; ok {
		return domain.ErrDuplicateJob
	}
	s.jobs[job.ID] = &jobEntry{
		job:   *job,
		state: domain.JobStateOpen,
		bids:  make(map[string]domain.Bid),
	}
	return nil
}

func (s *JobStore) entry(jobID string) (*jobEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.jobs[jobID]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	return e, nil
}

// Get returns a snapshot of the job record.
func (s *JobStore) Get(ctx context.Context, jobID string) (*domain.JobRecord, error) {
	e, err := s.entry(jobID)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshot(), nil
}

// snapshot copies the entry. Caller must hold e.mu.
func (e *jobEntry) snapshot() *domain.JobRecord {
	rec := &domain.JobRecord{
		Job:   e.job,
		State: e.state,
		Bids:  make([]domain.Bid, 0, len(e.bids)),
	}
	for _, workerID := range e.bidOrder {
		rec.Bids = append(rec.Bids, e.bids[workerID])
	}
	if e.assignment != nil {
		a := *e.assignment
		rec.Assignment = &a
	}
	return rec
}

// AddBid records a bid as an idempotent set union.
func (s *JobStore) AddBid(ctx context.Context, jobID, workerID string, at time.Time) (bool, error) {
	e, err := s.entry(jobID)
	if err != nil {
		return false, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.state {
	case domain.JobStateAssigned:
		return false, domain.ErrJobAlreadyAssigned
	case domain.JobStateExpired:
		return false, domain.ErrJobExpired
	}

	if _, ok := e.bids[workerID]; ok {
		return false, nil
	}
	e.bids[workerID] = domain.Bid{JobID: jobID, WorkerID: workerID, SubmittedAt: at}
	e.bidOrder = append(e.bidOrder, workerID)
	return true, nil
}

// Assign performs the atomic OPEN -> ASSIGNED transition.
func (s *JobStore) Assign(ctx context.Context, jobID, workerID string, at time.Time) (*domain.Assignment, error) {
	e, err := s.entry(jobID)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == domain.JobStateAssigned {
		if e.assignment != nil && e.assignment.WorkerID == workerID {
			a := *e.assignment
			return &a, nil
		}
		return nil, domain.ErrJobAlreadyAssigned
	}
	if e.state == domain.JobStateExpired {
		return nil, domain.ErrJobExpired
	}
	if _, ok := e.bids[workerID]; !ok {
		return nil, domain.ErrWorkerNotBidder
	}

	e.state = domain.JobStateAssigned
	e.assignment = &domain.Assignment{JobID: jobID, WorkerID: workerID, DecidedAt: at}
	a := *e.assignment
	return &a, nil
}

// ExpireDue transitions overdue OPEN jobs to EXPIRED.
func (s *JobStore) ExpireDue(ctx context.Context, now time.Time) ([]string, error) {
	s.mu.RLock()
	entries := make([]*jobEntry, 0, len(s.jobs))
	for _, e := range s.jobs {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	var expired []string
	for _, e := range entries {
		e.mu.Lock()
		if e.state == domain.JobStateOpen && !e.job.ScheduledFor.After(now) {
			e.state = domain.JobStateExpired
			expired = append(expired, e.job.ID)
		}
		e.mu.Unlock()
	}
	sort.Strings(expired)
	return expired, nil
}

// ListByRequester returns the requester's job summaries, newest first.
func (s *JobStore) ListByRequester(ctx context.Context, requesterID string) ([]domain.JobSummary, error) {
	s.mu.RLock()
	entries := make([]*jobEntry, 0, len(s.jobs))
	for _, e := range s.jobs {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	summaries := make([]domain.JobSummary, 0)
	for _, e := range entries {
		e.mu.Lock()
		if e.job.RequesterID == requesterID {
			sum := domain.JobSummary{
				ID:           e.job.ID,
				Category:     e.job.Category,
				LocationKey:  e.job.LocationKey,
				PayTerms:     e.job.PayTerms,
				ScheduledFor: e.job.ScheduledFor,
				State:        e.state,
				BidCount:     len(e.bids),
				CreatedAt:    e.job.CreatedAt,
			}
			if e.assignment != nil {
				sum.AssignedTo = e.assignment.WorkerID
			}
			summaries = append(summaries, sum)
		}
		e.mu.Unlock()
	}

	sort.Slice(summaries, func(i, j int) bool {
		if !summaries[i].CreatedAt.Equal(summaries[j].CreatedAt) {
			return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
		}
		return summaries[i].ID > summaries[j].ID
	})
	return summaries, nil
}
