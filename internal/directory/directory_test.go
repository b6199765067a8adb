package directory

import (
	"context"
	"log/slog"
	"testing"

	"gig-dispatch/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDirectory() *Directory {
	return New(slog.Default())
}

func TestUpsertAndGet(t *testing.T) {
	d := newTestDirectory()
	ctx := context.Background()

	err := d.UpsertProfile(ctx, domain.WorkerProfile{
		WorkerID:     "w1",
		Categories:   []domain.Category{domain.CategoryCleaning},
		LocationKeys: []string{"Tver"},
		Available:    true,
	})
	require.NoError(t, err)

	got, err := d.Get(ctx, "w1")
	require.NoError(t, err)
	assert.Equal(t, "w1", got.WorkerID)
	assert.Equal(t, []string{"tver"}, got.LocationKeys, "locations are normalized on write")
	assert.True(t, got.Available)
}

func TestUpsertRejectsInvalidProfile(t *testing.T) {
	d := newTestDirectory()
	ctx := context.Background()

	err := d.UpsertProfile(ctx, domain.WorkerProfile{WorkerID: "w1"})
	assert.ErrorIs(t, err, domain.ErrInvalidProfile)

	err = d.UpsertProfile(ctx, domain.WorkerProfile{
		WorkerID:   "w1",
		Categories: []domain.Category{domain.CategoryCleaning},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidProfile)
}

func TestUpsertReplacesProfile(t *testing.T) {
	d := newTestDirectory()
	ctx := context.Background()

	require.NoError(t, d.UpsertProfile(ctx, domain.WorkerProfile{
		WorkerID:     "w1",
		Categories:   []domain.Category{domain.CategoryCleaning},
		LocationKeys: []string{"tver"},
		Available:    true,
	}))
	require.NoError(t, d.UpsertProfile(ctx, domain.WorkerProfile{
		WorkerID:     "w1",
		Categories:   []domain.Category{domain.CategoryPlumbing},
		LocationKeys: []string{"moscow"},
		Available:    false,
	}))

	got, err := d.Get(ctx, "w1")
	require.NoError(t, err)
	assert.Equal(t, []domain.Category{domain.CategoryPlumbing}, got.Categories)
	assert.Equal(t, []string{"moscow"}, got.LocationKeys)
	assert.False(t, got.Available)
}

func TestSetAvailability(t *testing.T) {
	d := newTestDirectory()
	ctx := context.Background()

	err := d.SetAvailability(ctx, "ghost", true)
	assert.ErrorIs(t, err, domain.ErrUnknownWorker)

	require.NoError(t, d.UpsertProfile(ctx, domain.WorkerProfile{
		WorkerID:     "w1",
		Categories:   []domain.Category{domain.CategoryCleaning},
		LocationKeys: []string{"tver"},
		Available:    true,
	}))
	require.NoError(t, d.SetAvailability(ctx, "w1", false))

	got, err := d.Get(ctx, "w1")
	require.NoError(t, err)
	assert.False(t, got.Available)
}

func TestSnapshotIsOrderedCopy(t *testing.T) {
	d := newTestDirectory()
	ctx := context.Background()

	for _, id := range []string{"w2", "w1", "w3"} {
		require.NoError(t, d.UpsertProfile(ctx, domain.WorkerProfile{
			WorkerID:     id,
			Categories:   []domain.Category{domain.CategoryCourier},
			LocationKeys: []string{"tver"},
			Available:    true,
		}))
	}

	snap, err := d.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snap, 3)
	assert.Equal(t, "w1", snap[0].WorkerID)
	assert.Equal(t, "w2", snap[1].WorkerID)
	assert.Equal(t, "w3", snap[2].WorkerID)

	// Mutating the snapshot must not leak into the directory.
	snap[0].LocationKeys[0] = "mutated"
	got, err := d.Get(ctx, "w1")
	require.NoError(t, err)
	assert.Equal(t, []string{"tver"}, got.LocationKeys)
}
