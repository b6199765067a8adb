package domain

import "context"

// WorkerProfile is a worker's declared service categories, coverage
// locations and availability. Profiles are never deleted; an unavailable
// worker is simply excluded from matching.
type WorkerProfile struct {
	WorkerID     string     `json:"worker_id"`
	Categories   []Category `json:"categories"`
	LocationKeys []string   `json:"location_keys"`
	Available    bool       `json:"available"`
}

// HasCategory reports whether the worker serves the given category.
func (w *WorkerProfile) HasCategory(c Category) bool {
	for _, have := range w.Categories {
		if have == c {
			return true
		}
	}
	return false
}

// Validate checks if the profile is complete enough to be onboarded.
func (w *WorkerProfile) Validate() error {
	if w.WorkerID == "" {
		return ErrInvalidProfile
	}
	if len(w.Categories) == 0 || len(w.LocationKeys) == 0 {
		return ErrInvalidProfile
	}
	for _, c := range w.Categories {
		if _, err := ParseCategory(string(c)); err != nil {
			return ErrInvalidProfile
		}
	}
	return nil
}

// Directory holds worker profiles and answers eligibility queries. It must
// support concurrent readers and serialized writers.
type Directory interface {
	// UpsertProfile creates or fully replaces a worker profile.
	// It is idempotent and returns ErrInvalidProfile for incomplete ones.
	UpsertProfile(ctx context.Context, profile WorkerProfile) error

	// SetAvailability toggles a worker's availability. Returns
	// ErrUnknownWorker if the worker was never onboarded.
	SetAvailability(ctx context.Context, workerID string, available bool) error

	// Get returns a copy of a single profile, or ErrUnknownWorker.
	Get(ctx context.Context, workerID string) (*WorkerProfile, error)

	// Snapshot returns a copy of every profile in deterministic order.
	Snapshot(ctx context.Context) ([]WorkerProfile, error)
}
