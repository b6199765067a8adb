package domain

import (
	"fmt"
	"time"
)

// Category is a service category from the fixed catalog. Inbound requests
// carry the slug form; display names are the gateway's concern.
type Category string

const (
	CategoryHandyman   Category = "handyman"
	CategoryLoader     Category = "loader"
	CategoryCourier    Category = "courier"
	CategoryCleaning   Category = "cleaning"
	CategoryDemolition Category = "demolition"
	CategoryElectrical Category = "electrical"
	CategoryPlumbing   Category = "plumbing"
	CategoryFurniture  Category = "furniture"
	CategoryGarbage    Category = "garbage"
	CategoryPainting   Category = "painting"
)

// Categories lists the full catalog in a stable order.
var Categories = []Category{
	CategoryHandyman, CategoryLoader, CategoryCourier, CategoryCleaning,
	CategoryDemolition, CategoryElectrical, CategoryPlumbing,
	CategoryFurniture, CategoryGarbage, CategoryPainting,
}

// ParseCategory converts a raw slug to a Category, returning an error for
// values outside the catalog.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	for _, known := range Categories {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// JobState is the derived lifecycle state of a job.
type JobState string

const (
	JobStateOpen     JobState = "OPEN"
	JobStateAssigned JobState = "ASSIGNED"
	JobStateExpired  JobState = "EXPIRED"
)

// JobRequest is an immutable description of work to be done. It is created
// once by the requester side and referenced by ID thereafter.
type JobRequest struct {
	ID           string    `json:"id"`
	Category     Category  `json:"category"`
	LocationKey  string    `json:"location_key"`
	PayTerms     string    `json:"pay_terms"`
	ScheduledFor time.Time `json:"scheduled_for"`
	RequesterID  string    `json:"requester_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// Validate checks if the job request is well formed.
func (j *JobRequest) Validate() error {
	if _, err := ParseCategory(string(j.Category)); err != nil {
		return err
	}
	if j.LocationKey == "" {
		return fmt.Errorf("job location key cannot be empty")
	}
	if j.PayTerms == "" {
		return fmt.Errorf("job pay terms cannot be empty")
	}
	if j.RequesterID == "" {
		return fmt.Errorf("job requester id cannot be empty")
	}
	if j.ScheduledFor.IsZero() {
		return fmt.Errorf("job scheduled time cannot be zero")
	}
	if !j.CreatedAt.IsZero() && !j.ScheduledFor.After(j.CreatedAt) {
		return fmt.Errorf("job scheduled time must be after creation time")
	}
	return nil
}

// Bid records one worker's interest in one job. At most one bid exists per
// (job, worker) pair; duplicate submissions are no-ops.
type Bid struct {
	JobID       string    `json:"job_id"`
	WorkerID    string    `json:"worker_id"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Assignment is the terminal, exclusive binding of one job to one worker.
type Assignment struct {
	JobID     string    `json:"job_id"`
	WorkerID  string    `json:"worker_id"`
	DecidedAt time.Time `json:"decided_at"`
}

// JobRecord is a point-in-time snapshot of a job and its dispatch state.
// Stores return copies; mutating a record has no effect on stored state.
type JobRecord struct {
	Job        JobRequest  `json:"job"`
	State      JobState    `json:"state"`
	Bids       []Bid       `json:"bids"`
	Assignment *Assignment `json:"assignment,omitempty"`
}

// HasBid reports whether the given worker has a recorded bid on this job.
func (r *JobRecord) HasBid(workerID string) bool {
	for _, b := range r.Bids {
		if b.WorkerID == workerID {
			return true
		}
	}
	return false
}

// JobSummary is the read-only projection returned by listings.
type JobSummary struct {
	ID           string    `json:"id"`
	Category     Category  `json:"category"`
	LocationKey  string    `json:"location_key"`
	PayTerms     string    `json:"pay_terms"`
	ScheduledFor time.Time `json:"scheduled_for"`
	State        JobState  `json:"state"`
	BidCount     int       `json:"bid_count"`
	AssignedTo   string    `json:"assigned_to,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
