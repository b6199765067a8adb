package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"gig-dispatch/internal/domain"
	"gig-dispatch/internal/usecase"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DispatchHandler serves the job-side inbound API: creation, bids,
// assignment and listings.
type DispatchHandler struct {
	service  *usecase.DispatchService
	logger   *slog.Logger
	validate *validator.Validate
	tracer   trace.Tracer
}

// NewDispatchHandler creates a DispatchHandler and registers the custom
// category validation.
func NewDispatchHandler(service *usecase.DispatchService, logger *slog.Logger) *DispatchHandler {
	return &DispatchHandler{
		service:  service,
		logger:   logger.With("component", "dispatch-handler"),
		validate: newValidator(),
		tracer:   otel.Tracer("gig-dispatch-api"),
	}
}

// newValidator builds the request validator shared by the handlers.
func newValidator() *validator.Validate {
	validate := validator.New()
	_ = validate.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		_, err := domain.ParseCategory(fl.Field().String())
		return err == nil
	})
	return validate
}

// RegisterRoutes registers job routes on the mux.
func (h *DispatchHandler) RegisterRoutes(mux *http.ServeMux) {
	handler := instrument(jobRoutePattern(""), h.tracer, http.HandlerFunc(h.handleJobs))
	mux.Handle("/jobs", handler)
	mux.Handle("/jobs/", handler)
}

func jobRoutePattern(action string) string {
	if action == "" {
		return "/jobs"
	}
	return "/jobs/{id}/" + action
}

// handleJobs dispatches on the /jobs path shape:
//
//	POST /jobs                    open + broadcast
//	GET  /jobs?requester_id=...   list summaries
//	GET  /jobs/{id}               record snapshot
//	POST /jobs/{id}/broadcast     re-fan-out
//	POST /jobs/{id}/bids          submit a bid
//	POST /jobs/{id}/assignment    choose a worker
func (h *DispatchHandler) handleJobs(w http.ResponseWriter, r *http.Request) {
	pathParts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(pathParts) < 1 || pathParts[0] != "jobs" {
		http.NotFound(w, r)
		return
	}

	var jobID, action string
	if len(pathParts) > 1 {
		jobID = pathParts[1]
	}
	if len(pathParts) > 2 {
		action = pathParts[2]
	}

	switch r.Method {
	case http.MethodPost:
		switch {
		case jobID == "":
			h.handleOpenJob(w, r)
		case action == "broadcast":
			h.handleBroadcast(w, r, jobID)
		case action == "bids":
			h.handleSubmitBid(w, r, jobID)
		case action == "assignment":
			h.handleChooseWorker(w, r, jobID)
		default:
			http.NotFound(w, r)
		}
	case http.MethodGet:
		switch {
		case jobID == "":
			h.handleListJobs(w, r)
		case action == "":
			h.handleGetJob(w, r, jobID)
		default:
			http.NotFound(w, r)
		}
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleOpenJob registers the job and immediately broadcasts it.
func (h *DispatchHandler) handleOpenJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "handler.OpenJob")
	defer span.End()

	var req OpenJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		span.SetStatus(codes.Error, "Failed to decode request body")
		span.RecordError(err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !h.validateRequest(w, &req) {
		return
	}

	job, err := h.service.OpenJob(ctx, req.ToDomainJob())
	if err != nil {
		span.RecordError(err)
		h.writeDomainError(w, err, "error opening job")
		return
	}
	span.SetAttributes(attribute.String("job.id", job.ID))

	notified, err := h.service.Broadcast(ctx, job.ID)
	if err != nil && !errors.Is(err, domain.ErrJobAlreadyAssigned) {
		// The job is committed; a failed fan-out is reported, not
		// rolled back. A re-broadcast can reach workers later.
		h.logger.Warn("initial broadcast failed", "job_id", job.ID, "error", err)
	}

	writeJSON(w, http.StatusCreated, OpenJobResponse{
		JobID:    job.ID,
		State:    domain.JobStateOpen,
		Notified: notified,
	})
}

func (h *DispatchHandler) handleBroadcast(w http.ResponseWriter, r *http.Request, jobID string) {
	ctx, span := h.tracer.Start(r.Context(), "handler.Broadcast")
	defer span.End()
	span.SetAttributes(attribute.String("job.id", jobID))

	notified, err := h.service.Broadcast(ctx, jobID)
	if err != nil {
		span.RecordError(err)
		h.writeDomainError(w, err, "error broadcasting job")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"notified": notified})
}

func (h *DispatchHandler) handleSubmitBid(w http.ResponseWriter, r *http.Request, jobID string) {
	ctx, span := h.tracer.Start(r.Context(), "handler.SubmitBid")
	defer span.End()
	span.SetAttributes(attribute.String("job.id", jobID))

	var req SubmitBidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !h.validateRequest(w, &req) {
		return
	}

	if err := h.service.SubmitBid(ctx, jobID, req.WorkerID); err != nil {
		span.RecordError(err)
		h.writeDomainError(w, err, "error submitting bid")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"job_id": jobID, "worker_id": req.WorkerID})
}

func (h *DispatchHandler) handleChooseWorker(w http.ResponseWriter, r *http.Request, jobID string) {
	ctx, span := h.tracer.Start(r.Context(), "handler.ChooseWorker")
	defer span.End()
	span.SetAttributes(attribute.String("job.id", jobID))

	var req ChooseWorkerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !h.validateRequest(w, &req) {
		return
	}

	assignment, err := h.service.ChooseWorker(ctx, jobID, req.RequesterID, req.WorkerID)
	if err != nil {
		span.RecordError(err)
		h.writeDomainError(w, err, "error choosing worker")
		return
	}
	writeJSON(w, http.StatusOK, assignment)
}

func (h *DispatchHandler) handleGetJob(w http.ResponseWriter, r *http.Request, jobID string) {
	ctx, span := h.tracer.Start(r.Context(), "handler.GetJob")
	defer span.End()
	span.SetAttributes(attribute.String("job.id", jobID))

	rec, err := h.service.GetJob(ctx, jobID)
	if err != nil {
		span.RecordError(err)
		h.writeDomainError(w, err, "error getting job")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *DispatchHandler) handleListJobs(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "handler.ListJobs")
	defer span.End()

	requesterID := r.URL.Query().Get("requester_id")
	if requesterID == "" {
		http.Error(w, "requester_id is required", http.StatusBadRequest)
		return
	}

	summaries, err := h.service.ListJobs(ctx, requesterID)
	if err != nil {
		h.writeDomainError(w, err, "error listing jobs")
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

// validateRequest runs struct validation and writes the 400 response on
// failure.
func (h *DispatchHandler) validateRequest(w http.ResponseWriter, req any) bool {
	if err := h.validate.Struct(req); err != nil {
		writeValidationError(w, err)
		return false
	}
	return true
}

// writeDomainError maps the error taxonomy to status codes.
func (h *DispatchHandler) writeDomainError(w http.ResponseWriter, err error, logMsg string) {
	writeDomainError(w, h.logger, err, logMsg)
}

func writeDomainError(w http.ResponseWriter, logger *slog.Logger, err error, logMsg string) {
	switch {
	case errors.Is(err, domain.ErrJobNotFound), errors.Is(err, domain.ErrUnknownWorker):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrNotRequester):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, domain.ErrJobAlreadyAssigned),
		errors.Is(err, domain.ErrJobExpired),
		errors.Is(err, domain.ErrWorkerNotBidder),
		errors.Is(err, domain.ErrWorkerNotEligible):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, domain.ErrInvalidProfile):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrLockNotAcquired):
		// Another caller holds the assignment lock; safe to retry.
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	default:
		logger.Error(logMsg, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func writeValidationError(w http.ResponseWriter, err error) {
	var details []string
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, fe := range validationErrors {
			details = append(details, "Field '"+fe.Field()+"' failed on the '"+fe.Tag()+"' tag.")
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error":   "Validation failed",
		"details": details,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
