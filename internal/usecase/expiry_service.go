package usecase

import (
	"context"
	"log/slog"
	"time"

	"gig-dispatch/internal/domain"
	"gig-dispatch/internal/metrics"

	"github.com/robfig/cron/v3"
)

// ExpiryService is the optional policy that moves OPEN jobs past their
// scheduled time to EXPIRED. In multi-node deployments the sweep runs only
// on the elected leader; with a nil leader manager this node always sweeps.
type ExpiryService struct {
	store         domain.JobStore
	leaderManager domain.LeaderElectionManager
	schedule      string
	logger        *slog.Logger
	now           func() time.Time
}

// NewExpiryService creates an ExpiryService. schedule is a cron spec such
// as "@every 1m".
func NewExpiryService(store domain.JobStore, leaderManager domain.LeaderElectionManager, schedule string, logger *slog.Logger) *ExpiryService {
	return &ExpiryService{
		store:         store,
		leaderManager: leaderManager,
		schedule:      schedule,
		logger:        logger.With("component", "expiry-service"),
		now:           time.Now,
	}
}

// Start blocks until ctx is canceled. Without a leader manager it just runs
// the sweep schedule; otherwise it campaigns, sweeps while leader, and
// re-campaigns when leadership is lost.
func (s *ExpiryService) Start(ctx context.Context) error {
	if s.leaderManager == nil {
		return s.runSweeper(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		lostLeadershipCh, err := s.leaderManager.Campaign(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Error("leadership campaign failed, retrying", "error", err)
			select {
			case <-time.After(5 * time.Second):
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}

		sweepCtx, cancel := context.WithCancel(ctx)
		go func() {
			_ = s.runSweeper(sweepCtx)
		}()

		select {
		case <-lostLeadershipCh:
			s.logger.Warn("lost expiry-sweep leadership")
			cancel()
		case <-ctx.Done():
			cancel()
			_ = s.leaderManager.Resign(context.WithoutCancel(ctx))
			return ctx.Err()
		}
	}
}

// runSweeper runs Sweep on the configured schedule until ctx is canceled.
func (s *ExpiryService) runSweeper(ctx context.Context) error {
	c := cron.New()
	if _, err := c.AddFunc(s.schedule, func() {
		if err := s.Sweep(ctx); err != nil {
			s.logger.Error("expiry sweep failed", "error", err)
		}
	}); err != nil {
		return err
	}

	s.logger.Info("expiry sweeper started", "schedule", s.schedule)
	c.Start()
	<-ctx.Done()
	stopCtx := c.Stop()
	<-stopCtx.Done()
	s.logger.Info("expiry sweeper stopped")
	return ctx.Err()
}

// Sweep runs one expiry pass.
func (s *ExpiryService) Sweep(ctx context.Context) error {
	expired, err := s.store.ExpireDue(ctx, s.now())
	if err != nil {
		return err
	}
	if len(expired) > 0 {
		metrics.JobsExpiredTotal.Add(float64(len(expired)))
		s.logger.Info("jobs expired without assignment", "count", len(expired), "job_ids", expired)
	}
	return nil
}
