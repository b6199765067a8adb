package usecase

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"gig-dispatch/internal/domain"
	"gig-dispatch/internal/infra/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweepExpiresOnlyOverdueOpenJobs(t *testing.T) {
	ctx := context.Background()
	store := memory.NewJobStore()
	base := time.Now()

	register := func(id string, scheduledFor time.Time) {
		require.NoError(t, store.Register(ctx, &domain.JobRequest{
			ID:           id,
			Category:     domain.CategoryCleaning,
			LocationKey:  "tver",
			PayTerms:     "2000 fixed",
			ScheduledFor: scheduledFor,
			RequesterID:  "req-1",
			CreatedAt:    base.Add(-24 * time.Hour),
		}))
	}
	register("job-overdue", base.Add(-time.Hour))
	register("job-future", base.Add(time.Hour))
	register("job-taken", base.Add(-time.Hour))

	_, err := store.AddBid(ctx, "job-taken", "w1", base.Add(-2*time.Hour))
	require.NoError(t, err)
	_, err = store.Assign(ctx, "job-taken", "w1", base.Add(-90*time.Minute))
	require.NoError(t, err)

	svc := NewExpiryService(store, nil, "@every 1m", slog.Default())
	svc.now = func() time.Time { return base }

	require.NoError(t, svc.Sweep(ctx))

	wantStates := map[string]domain.JobState{
		"job-overdue": domain.JobStateExpired,
		"job-future":  domain.JobStateOpen,
		"job-taken":   domain.JobStateAssigned,
	}
	for id, want := range wantStates {
		rec, err := store.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, rec.State, id)
	}

	// A second pass finds nothing new.
	require.NoError(t, svc.Sweep(ctx))
	rec, err := store.Get(ctx, "job-overdue")
	require.NoError(t, err)
	assert.Equal(t, domain.JobStateExpired, rec.State)
}
