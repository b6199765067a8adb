package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gig-dispatch/internal/directory"
	"gig-dispatch/internal/domain"
	"gig-dispatch/internal/infra/memory"
	"gig-dispatch/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// nopDeliverer accepts every notification; handler tests exercise the API
// surface, not the gateway.
type nopDeliverer struct{}

func (nopDeliverer) Deliver(ctx context.Context, n domain.Notification) error { return nil }

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := slog.Default()
	dir := directory.New(logger)
	service := usecase.NewDispatchService(
		memory.NewJobStore(), dir, domain.NewMatcher(), nopDeliverer{}, memory.NewLocker(), logger)

	mux := http.NewServeMux()
	NewDispatchHandler(service, logger).RegisterRoutes(mux)
	NewWorkerHandler(dir, logger).RegisterRoutes(mux)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func upsertWorker(t *testing.T, srv *httptest.Server, id string, categories []string, locations []string) {
	t.Helper()
	resp := doJSON(t, http.MethodPut, srv.URL+"/workers/"+id, map[string]any{
		"categories":    categories,
		"location_keys": locations,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func openJob(t *testing.T, srv *httptest.Server, jobID string) OpenJobResponse {
	t.Helper()
	resp := doJSON(t, http.MethodPost, srv.URL+"/jobs", map[string]any{
		"job_id":        jobID,
		"category":      "cleaning",
		"location_key":  "tver",
		"pay_terms":     "2000 fixed",
		"scheduled_for": time.Now().Add(3 * time.Hour).Format(time.RFC3339),
		"requester_id":  "req-1",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[OpenJobResponse](t, resp)
}

func TestOpenJobBroadcastsToEligibleWorkers(t *testing.T) {
	srv := newTestServer(t)
	upsertWorker(t, srv, "w1", []string{"cleaning"}, []string{"tver"})
	upsertWorker(t, srv, "w2", []string{"cleaning"}, []string{"moscow"})

	created := openJob(t, srv, "")
	assert.NotEmpty(t, created.JobID)
	assert.Equal(t, domain.JobStateOpen, created.State)
	assert.Equal(t, 1, created.Notified)
}

func TestOpenJobValidation(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/jobs", map[string]any{
		"category":      "gardening",
		"location_key":  "tver",
		"pay_terms":     "2000 fixed",
		"scheduled_for": time.Now().Add(time.Hour).Format(time.RFC3339),
		"requester_id":  "req-1",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := decode[map[string]any](t, resp)
	assert.Equal(t, "Validation failed", body["error"])
}

func TestGetAndListJobs(t *testing.T) {
	srv := newTestServer(t)
	created := openJob(t, srv, "job-1")

	resp := doJSON(t, http.MethodGet, srv.URL+"/jobs/"+created.JobID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rec := decode[domain.JobRecord](t, resp)
	assert.Equal(t, "job-1", rec.Job.ID)
	assert.Equal(t, domain.JobStateOpen, rec.State)

	resp = doJSON(t, http.MethodGet, srv.URL+"/jobs/unknown", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, srv.URL+"/jobs?requester_id=req-1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	summaries := decode[[]domain.JobSummary](t, resp)
	assert.Len(t, summaries, 1)

	resp = doJSON(t, http.MethodGet, srv.URL+"/jobs", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "requester_id is mandatory")
}

func TestBidAndAssignmentFlow(t *testing.T) {
	srv := newTestServer(t)
	upsertWorker(t, srv, "w1", []string{"cleaning"}, []string{"tver"})
	upsertWorker(t, srv, "w2", []string{"plumbing"}, []string{"tver"})
	openJob(t, srv, "job-1")

	// Ineligible worker is rejected with a conflict.
	resp := doJSON(t, http.MethodPost, srv.URL+"/jobs/job-1/bids", map[string]string{"worker_id": "w2"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, srv.URL+"/jobs/job-1/bids", map[string]string{"worker_id": "w1"})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	// Choosing a non-bidder conflicts; choosing by a stranger is forbidden.
	resp = doJSON(t, http.MethodPost, srv.URL+"/jobs/job-1/assignment",
		map[string]string{"requester_id": "req-1", "worker_id": "w2"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp = doJSON(t, http.MethodPost, srv.URL+"/jobs/job-1/assignment",
		map[string]string{"requester_id": "impostor", "worker_id": "w1"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, srv.URL+"/jobs/job-1/assignment",
		map[string]string{"requester_id": "req-1", "worker_id": "w1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assignment := decode[domain.Assignment](t, resp)
	assert.Equal(t, "w1", assignment.WorkerID)

	// Bids are closed once assigned.
	resp = doJSON(t, http.MethodPost, srv.URL+"/jobs/job-1/bids", map[string]string{"worker_id": "w1"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Re-choosing the winner is an idempotent success.
	resp = doJSON(t, http.MethodPost, srv.URL+"/jobs/job-1/assignment",
		map[string]string{"requester_id": "req-1", "worker_id": "w1"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRebroadcastEndpoint(t *testing.T) {
	srv := newTestServer(t)
	openJob(t, srv, "job-1")
	upsertWorker(t, srv, "w1", []string{"cleaning"}, []string{"tver"})

	resp := doJSON(t, http.MethodPost, srv.URL+"/jobs/job-1/broadcast", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[map[string]int](t, resp)
	assert.Equal(t, 1, body["notified"], "a worker onboarded after creation is reached by re-broadcast")
}

func TestWorkerEndpoints(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodPut, srv.URL+"/workers/w1", map[string]any{
		"categories":    []string{"gardening"},
		"location_keys": []string{"tver"},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "unknown category fails validation")

	upsertWorker(t, srv, "w1", []string{"cleaning", "loader"}, []string{"Tver"})

	resp = doJSON(t, http.MethodGet, srv.URL+"/workers/w1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	profile := decode[domain.WorkerProfile](t, resp)
	assert.Equal(t, []string{"tver"}, profile.LocationKeys)
	assert.True(t, profile.Available, "availability defaults to true on onboarding")

	resp = doJSON(t, http.MethodPost, srv.URL+"/workers/w1/availability", map[string]bool{"available": false})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, srv.URL+"/workers/w1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	profile = decode[domain.WorkerProfile](t, resp)
	assert.False(t, profile.Available)

	resp = doJSON(t, http.MethodGet, srv.URL+"/workers/ghost", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, srv.URL+"/workers/ghost/availability", map[string]bool{"available": true})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestBearerAuth(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	srv := httptest.NewServer(BearerAuth("secret", inner))
	defer srv.Close()

	cases := []struct {
		header string
		want   int
	}{
		{"", http.StatusUnauthorized},
		{"Bearer wrong", http.StatusUnauthorized},
		{"secret", http.StatusUnauthorized},
		{"Bearer secret", http.StatusNoContent},
	}
	for _, tc := range cases {
		req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
		require.NoError(t, err)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, tc.want, resp.StatusCode, fmt.Sprintf("header %q", tc.header))
	}

	open := httptest.NewServer(BearerAuth("", inner))
	defer open.Close()
	resp, err := http.Get(open.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode, "empty token disables auth")
}
