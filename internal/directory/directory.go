// Package directory holds worker profiles: availability, service categories
// and coverage locations. It is the only component that mutates profiles;
// the coordinator only ever reads snapshots.
package directory

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"gig-dispatch/internal/domain"
)

// Directory is an in-memory implementation of domain.Directory with
// concurrent readers and serialized writers.
type Directory struct {
	logger   *slog.Logger
	profiles map[string]domain.WorkerProfile
	mu       sync.RWMutex
}

// New creates an empty Directory.
func New(logger *slog.Logger) *Directory {
	return &Directory{
		logger:   logger.With("component", "worker-directory"),
		profiles: make(map[string]domain.WorkerProfile),
	}
}

// UpsertProfile creates or fully replaces a worker profile.
func (d *Directory) UpsertProfile(ctx context.Context, profile domain.WorkerProfile) error {
	if err := profile.Validate(); err != nil {
		return err
	}

	stored := domain.WorkerProfile{
		WorkerID:     profile.WorkerID,
		Categories:   append([]domain.Category(nil), profile.Categories...),
		LocationKeys: make([]string, 0, len(profile.LocationKeys)),
		Available:    profile.Available,
	}
	for _, loc := range profile.LocationKeys {
		stored.LocationKeys = append(stored.LocationKeys, domain.NormalizeLocation(loc))
	}

	d.mu.Lock()
	_, existed := d.profiles[profile.WorkerID]
	d.profiles[profile.WorkerID] = stored
	d.mu.Unlock()

	if !existed {
		d.logger.Info("worker onboarded", "worker_id", profile.WorkerID,
			"categories", len(stored.Categories), "locations", len(stored.LocationKeys))
	}
	return nil
}

// SetAvailability toggles a worker's availability.
func (d *Directory) SetAvailability(ctx context.Context, workerID string, available bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	p, ok := d.profiles[workerID]
	if !ok {
		return domain.ErrUnknownWorker
	}
	p.Available = available
	d.profiles[workerID] = p
	return nil
}

// Get returns a copy of a single profile.
func (d *Directory) Get(ctx context.Context, workerID string) (*domain.WorkerProfile, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	p, ok := d.profiles[workerID]
	if !ok {
		return nil, domain.ErrUnknownWorker
	}
	cp := copyProfile(p)
	return &cp, nil
}

// Snapshot returns a copy of every profile, ordered by worker id.
func (d *Directory) Snapshot(ctx context.Context) ([]domain.WorkerProfile, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]domain.WorkerProfile, 0, len(d.profiles))
	for _, p := range d.profiles {
		out = append(out, copyProfile(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WorkerID < out[j].WorkerID })
	return out, nil
}

func copyProfile(p domain.WorkerProfile) domain.WorkerProfile {
	p.Categories = append([]domain.Category(nil), p.Categories...)
	p.LocationKeys = append([]string(nil), p.LocationKeys...)
	return p
}
