package http

import (
	"time"

	"gig-dispatch/internal/domain"
)

// OpenJobRequest is the DTO for creating a job. A caller-supplied job_id
// makes the call idempotent under retry; without one the coordinator
// assigns a UUID.
type OpenJobRequest struct {
	JobID        string    `json:"job_id" validate:"omitempty,max=64"`
	Category     string    `json:"category" validate:"required,category"`
	LocationKey  string    `json:"location_key" validate:"required,min=2,max=64"`
	PayTerms     string    `json:"pay_terms" validate:"required,min=2,max=256"`
	ScheduledFor time.Time `json:"scheduled_for" validate:"required"`
	RequesterID  string    `json:"requester_id" validate:"required,max=64"`
}

// ToDomainJob converts the DTO to a domain.JobRequest.
func (r *OpenJobRequest) ToDomainJob() *domain.JobRequest {
	return &domain.JobRequest{
		ID:           r.JobID,
		Category:     domain.Category(r.Category),
		LocationKey:  domain.NormalizeLocation(r.LocationKey),
		PayTerms:     r.PayTerms,
		ScheduledFor: r.ScheduledFor,
		RequesterID:  r.RequesterID,
	}
}

// OpenJobResponse acknowledges a created job and how many workers were
// reached by the initial broadcast.
type OpenJobResponse struct {
	JobID    string          `json:"job_id"`
	State    domain.JobState `json:"state"`
	Notified int             `json:"notified"`
}

// SubmitBidRequest is the DTO for a worker's bid on a job.
type SubmitBidRequest struct {
	WorkerID string `json:"worker_id" validate:"required,max=64"`
}

// ChooseWorkerRequest is the DTO for the requester's selection.
type ChooseWorkerRequest struct {
	RequesterID string `json:"requester_id" validate:"required,max=64"`
	WorkerID    string `json:"worker_id" validate:"required,max=64"`
}

// UpsertWorkerRequest is the DTO for onboarding or replacing a worker
// profile.
type UpsertWorkerRequest struct {
	Categories   []string `json:"categories" validate:"required,min=1,dive,category"`
	LocationKeys []string `json:"location_keys" validate:"required,min=1,dive,min=2,max=64"`
	Available    *bool    `json:"available"`
}

// ToDomainProfile converts the DTO to a domain.WorkerProfile. Availability
// defaults to true on onboarding.
func (r *UpsertWorkerRequest) ToDomainProfile(workerID string) domain.WorkerProfile {
	available := true
	if r.Available != nil {
		available = *r.Available
	}
	categories := make([]domain.Category, 0, len(r.Categories))
	for _, c := range r.Categories {
		categories = append(categories, domain.Category(c))
	}
	return domain.WorkerProfile{
		WorkerID:     workerID,
		Categories:   categories,
		LocationKeys: r.LocationKeys,
		Available:    available,
	}
}

// SetAvailabilityRequest is the DTO for the availability toggle.
type SetAvailabilityRequest struct {
	Available *bool `json:"available" validate:"required"`
}
