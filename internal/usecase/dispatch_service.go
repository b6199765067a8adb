package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gig-dispatch/internal/domain"
	"gig-dispatch/internal/metrics"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DispatchService owns the job lifecycle: it registers jobs, broadcasts
// them to eligible workers, records bids and commits the exclusive
// assignment. Every method is safe under arbitrary concurrent invocation.
type DispatchService struct {
	store     domain.JobStore
	directory domain.Directory
	matcher   domain.Matcher
	deliverer domain.Deliverer
	locker    domain.Locker
	logger    *slog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewDispatchService creates a new DispatchService instance.
func NewDispatchService(store domain.JobStore, directory domain.Directory, matcher domain.Matcher, deliverer domain.Deliverer, locker domain.Locker, logger *slog.Logger) *DispatchService {
	return &DispatchService{
		store:     store,
		directory: directory,
		matcher:   matcher,
		deliverer: deliverer,
		locker:    locker,
		logger:    logger.With("component", "dispatch-service"),
		tracer:    otel.Tracer("gig-dispatch-usecase"),
		now:       time.Now,
	}
}

// OpenJob registers a job in the OPEN state with an empty bid set. A retry
// carrying an already registered id is a no-op returning the stored job, to
// tolerate at-least-once delivery from the creation side.
func (s *DispatchService) OpenJob(ctx context.Context, job *domain.JobRequest) (*domain.JobRequest, error) {
	ctx, span := s.tracer.Start(ctx, "dispatch.OpenJob")
	defer span.End()

	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = s.now()
	}
	span.SetAttributes(attribute.String("job.id", job.ID))

	if err := job.Validate(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "job validation failed")
		return nil, err
	}

	if err := s.store.Register(ctx, job); err != nil {
		if errors.Is(err, domain.ErrDuplicateJob) {
			existing, getErr := s.store.Get(ctx, job.ID)
			if getErr != nil {
				return nil, getErr
			}
			s.logger.Info("job re-registration ignored", "job_id", job.ID)
			cp := existing.Job
			return &cp, nil
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to register job")
		return nil, err
	}

	s.logger.Info("job opened", "job_id", job.ID, "category", job.Category,
		"location", job.LocationKey, "requester_id", job.RequesterID)
	return job, nil
}

// Broadcast notifies every currently eligible worker about the job and
// returns how many were reached. Per-recipient delivery failures are logged
// and counted but never abort the fan-out; the count is telemetry, not a
// correctness signal. Broadcast does not change job state.
func (s *DispatchService) Broadcast(ctx context.Context, jobID string) (int, error) {
	ctx, span := s.tracer.Start(ctx, "dispatch.Broadcast")
	defer span.End()
	span.SetAttributes(attribute.String("job.id", jobID))

	rec, err := s.store.Get(ctx, jobID)
	if err != nil {
		span.RecordError(err)
		return 0, err
	}
	if err := stateConflict(rec.State); err != nil {
		return 0, err
	}

	eligible, err := s.eligibleWorkers(ctx, &rec.Job)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to snapshot worker directory")
		return 0, err
	}
	span.SetAttributes(attribute.Int("broadcast.eligible", len(eligible)))

	sent := 0
	for _, workerID := range eligible {
		n := domain.Notification{
			RecipientID: workerID,
			Role:        domain.RoleWorker,
			JobID:       jobID,
			Event:       domain.EventNewJob,
			Payload: map[string]string{
				"category":      string(rec.Job.Category),
				"location_key":  rec.Job.LocationKey,
				"pay_terms":     rec.Job.PayTerms,
				"scheduled_for": rec.Job.ScheduledFor.Format(time.RFC3339),
			},
		}
		if err := s.deliverer.Deliver(ctx, n); err != nil {
			// The worker simply never sees the job; not an error for
			// the job as a whole.
			s.logger.Warn("failed to notify worker of new job",
				"job_id", jobID, "worker_id", workerID, "error", err)
			metrics.NotificationsTotal.WithLabelValues(string(domain.EventNewJob), "failed").Inc()
			continue
		}
		metrics.NotificationsTotal.WithLabelValues(string(domain.EventNewJob), "delivered").Inc()
		sent++
	}

	s.logger.Info("job broadcast", "job_id", jobID, "eligible", len(eligible), "notified", sent)
	span.SetAttributes(attribute.Int("broadcast.notified", sent))
	return sent, nil
}

// SubmitBid records a worker's interest in a job. Duplicate submissions
// from the same worker are no-ops. Eligibility is re-validated against a
// fresh directory snapshot, not cached from broadcast time.
func (s *DispatchService) SubmitBid(ctx context.Context, jobID, workerID string) error {
	ctx, span := s.tracer.Start(ctx, "dispatch.SubmitBid")
	defer span.End()
	span.SetAttributes(attribute.String("job.id", jobID), attribute.String("worker.id", workerID))

	rec, err := s.store.Get(ctx, jobID)
	if err != nil {
		metrics.BidsTotal.WithLabelValues("rejected").Inc()
		return err
	}
	if err := stateConflict(rec.State); err != nil {
		metrics.BidsTotal.WithLabelValues("rejected").Inc()
		return err
	}

	eligible, err := s.eligibleWorkers(ctx, &rec.Job)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if !contains(eligible, workerID) {
		metrics.BidsTotal.WithLabelValues("rejected").Inc()
		return domain.ErrWorkerNotEligible
	}

	added, err := s.store.AddBid(ctx, jobID, workerID, s.now())
	if err != nil {
		metrics.BidsTotal.WithLabelValues("rejected").Inc()
		return err
	}
	if !added {
		metrics.BidsTotal.WithLabelValues("duplicate").Inc()
		return nil
	}
	metrics.BidsTotal.WithLabelValues("recorded").Inc()
	s.logger.Info("bid recorded", "job_id", jobID, "worker_id", workerID)

	// Best effort; a lost notification never unwinds the recorded bid.
	s.notify(ctx, domain.Notification{
		RecipientID: rec.Job.RequesterID,
		Role:        domain.RoleRequester,
		JobID:       jobID,
		Event:       domain.EventNewBid,
		Payload:     map[string]string{"worker_id": workerID},
	})
	return nil
}

// ChooseWorker commits the exclusive assignment. Only the job's requester
// may choose, only among workers with a recorded bid. Exactly one distinct
// worker can ever win; retrying with the winner is an idempotent success.
func (s *DispatchService) ChooseWorker(ctx context.Context, jobID, requesterID, workerID string) (*domain.Assignment, error) {
	ctx, span := s.tracer.Start(ctx, "dispatch.ChooseWorker")
	defer span.End()
	span.SetAttributes(
		attribute.String("job.id", jobID),
		attribute.String("worker.id", workerID),
	)

	rec, err := s.store.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if rec.Job.RequesterID != requesterID {
		metrics.AssignmentsTotal.WithLabelValues("conflict").Inc()
		return nil, domain.ErrNotRequester
	}

	// Per-job exclusion across nodes; within a node the store's CAS
	// already guarantees a single winner.
	lock, err := s.locker.Lock(ctx, "assign/"+jobID)
	if err != nil {
		if errors.Is(err, domain.ErrLockNotAcquired) {
			return nil, fmt.Errorf("assignment for job %s contended: %w", jobID, err)
		}
		span.RecordError(err)
		return nil, err
	}
	defer func() {
		if err := lock.Unlock(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("failed to release assignment lock", "job_id", jobID, "error", err)
		}
	}()

	already := rec.State == domain.JobStateAssigned
	assignment, err := s.store.Assign(ctx, jobID, workerID, s.now())
	if err != nil {
		metrics.AssignmentsTotal.WithLabelValues("conflict").Inc()
		span.RecordError(err)
		return nil, err
	}

	if already {
		metrics.AssignmentsTotal.WithLabelValues("idempotent").Inc()
	} else {
		metrics.AssignmentsTotal.WithLabelValues("committed").Inc()
		s.logger.Info("worker assigned", "job_id", jobID, "worker_id", workerID)
	}

	// Both notifications are idempotency-keyed, so resending them on a
	// retried call is safe and covers earlier losses.
	s.notify(ctx, domain.Notification{
		RecipientID: workerID,
		Role:        domain.RoleWorker,
		JobID:       jobID,
		Event:       domain.EventChosen,
		Payload:     map[string]string{"requester_id": requesterID},
	})
	s.notify(ctx, domain.Notification{
		RecipientID: requesterID,
		Role:        domain.RoleRequester,
		JobID:       jobID,
		Event:       domain.EventAssigned,
		Payload:     map[string]string{"worker_id": workerID},
	})

	return assignment, nil
}

// GetJob returns a snapshot of a single job record.
func (s *DispatchService) GetJob(ctx context.Context, jobID string) (*domain.JobRecord, error) {
	ctx, span := s.tracer.Start(ctx, "dispatch.GetJob")
	defer span.End()
	span.SetAttributes(attribute.String("job.id", jobID))

	return s.store.Get(ctx, jobID)
}

// ListJobs returns the requester's job summaries, newest first.
func (s *DispatchService) ListJobs(ctx context.Context, requesterID string) ([]domain.JobSummary, error) {
	ctx, span := s.tracer.Start(ctx, "dispatch.ListJobs")
	defer span.End()

	return s.store.ListByRequester(ctx, requesterID)
}

// eligibleWorkers matches the job against a fresh directory snapshot.
func (s *DispatchService) eligibleWorkers(ctx context.Context, job *domain.JobRequest) ([]string, error) {
	profiles, err := s.directory.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return s.matcher.Match(job, profiles), nil
}

// notify sends a best-effort notification; failures are logged and counted
// but never propagated, since the triggering state change is committed.
func (s *DispatchService) notify(ctx context.Context, n domain.Notification) {
	if err := s.deliverer.Deliver(ctx, n); err != nil {
		s.logger.Warn("notification delivery failed",
			"job_id", n.JobID, "event", n.Event, "recipient_id", n.RecipientID, "error", err)
		metrics.NotificationsTotal.WithLabelValues(string(n.Event), "failed").Inc()
		return
	}
	metrics.NotificationsTotal.WithLabelValues(string(n.Event), "delivered").Inc()
}

func stateConflict(state domain.JobState) error {
	switch state {
	case domain.JobStateAssigned:
		return domain.ErrJobAlreadyAssigned
	case domain.JobStateExpired:
		return domain.ErrJobExpired
	}
	return nil
}

func contains(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
