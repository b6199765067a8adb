package domain

import "errors"

// Sentinel errors for the dispatch core. The HTTP layer maps these to status
// codes with errors.Is; services wrap them with fmt.Errorf("%w") for context.
var (
	// ErrJobNotFound is returned when a job id is not registered.
	ErrJobNotFound = errors.New("job not found")

	// ErrDuplicateJob is returned by stores when a job id is already
	// registered. The coordinator converts it into an idempotent no-op.
	ErrDuplicateJob = errors.New("job already registered")

	// ErrJobAlreadyAssigned is returned when a job has a committed
	// assignment and the operation would contradict it.
	ErrJobAlreadyAssigned = errors.New("job already assigned")

	// ErrJobExpired is returned for operations on a job that passed its
	// scheduled time without an assignment.
	ErrJobExpired = errors.New("job expired")

	// ErrUnknownWorker is returned when a worker was never onboarded.
	ErrUnknownWorker = errors.New("unknown worker")

	// ErrInvalidProfile is returned for a worker profile with no
	// categories or no coverage locations.
	ErrInvalidProfile = errors.New("invalid worker profile")

	// ErrWorkerNotEligible is returned when a bidding worker does not
	// match the job at submission time.
	ErrWorkerNotEligible = errors.New("worker not eligible for job")

	// ErrWorkerNotBidder is returned when a chosen worker never bid on
	// the job.
	ErrWorkerNotBidder = errors.New("worker has no bid for job")

	// ErrNotRequester is returned when a caller other than the job's
	// requester tries to choose a worker.
	ErrNotRequester = errors.New("caller is not the job requester")
)
