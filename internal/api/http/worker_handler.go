package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"gig-dispatch/internal/domain"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// WorkerHandler serves the worker-side inbound API: onboarding, profile
// replacement and the availability toggle.
type WorkerHandler struct {
	directory domain.Directory
	logger    *slog.Logger
	validate  *validator.Validate
	tracer    trace.Tracer
}

// NewWorkerHandler creates a WorkerHandler.
func NewWorkerHandler(directory domain.Directory, logger *slog.Logger) *WorkerHandler {
	return &WorkerHandler{
		directory: directory,
		logger:    logger.With("component", "worker-handler"),
		validate:  newValidator(),
		tracer:    otel.Tracer("gig-dispatch-api"),
	}
}

// RegisterRoutes registers worker routes on the mux.
func (h *WorkerHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("/workers/", instrument("/workers/{id}", h.tracer, http.HandlerFunc(h.handleWorkers)))
}

// handleWorkers dispatches on the /workers path shape:
//
//	PUT  /workers/{id}               upsert profile
//	GET  /workers/{id}               fetch profile
//	POST /workers/{id}/availability  toggle availability
func (h *WorkerHandler) handleWorkers(w http.ResponseWriter, r *http.Request) {
	pathParts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(pathParts) < 2 || pathParts[0] != "workers" || pathParts[1] == "" {
		http.NotFound(w, r)
		return
	}
	workerID := pathParts[1]
	var action string
	if len(pathParts) > 2 {
		action = pathParts[2]
	}

	switch {
	case r.Method == http.MethodPut && action == "":
		h.handleUpsert(w, r, workerID)
	case r.Method == http.MethodGet && action == "":
		h.handleGet(w, r, workerID)
	case r.Method == http.MethodPost && action == "availability":
		h.handleSetAvailability(w, r, workerID)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *WorkerHandler) handleUpsert(w http.ResponseWriter, r *http.Request, workerID string) {
	ctx, span := h.tracer.Start(r.Context(), "handler.UpsertWorker")
	defer span.End()
	span.SetAttributes(attribute.String("worker.id", workerID))

	var req UpsertWorkerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeValidationError(w, err)
		return
	}

	if err := h.directory.UpsertProfile(ctx, req.ToDomainProfile(workerID)); err != nil {
		span.RecordError(err)
		writeDomainError(w, h.logger, err, "error upserting worker profile")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"worker_id": workerID})
}

func (h *WorkerHandler) handleGet(w http.ResponseWriter, r *http.Request, workerID string) {
	ctx, span := h.tracer.Start(r.Context(), "handler.GetWorker")
	defer span.End()
	span.SetAttributes(attribute.String("worker.id", workerID))

	profile, err := h.directory.Get(ctx, workerID)
	if err != nil {
		writeDomainError(w, h.logger, err, "error getting worker profile")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *WorkerHandler) handleSetAvailability(w http.ResponseWriter, r *http.Request, workerID string) {
	ctx, span := h.tracer.Start(r.Context(), "handler.SetAvailability")
	defer span.End()
	span.SetAttributes(attribute.String("worker.id", workerID))

	var req SetAvailabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeValidationError(w, err)
		return
	}

	if err := h.directory.SetAvailability(ctx, workerID, *req.Available); err != nil {
		span.RecordError(err)
		writeDomainError(w, h.logger, err, "error setting worker availability")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"worker_id": workerID, "available": *req.Available})
}
