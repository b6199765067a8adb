package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HttpRequestsTotal counts inbound API requests.
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of http requests handled by the service.",
		},
		[]string{"path", "method", "code"},
	)

	// NotificationsTotal counts outbound deliveries by event and outcome.
	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_total",
			Help: "Total number of outbound notifications by event kind and status.",
		},
		[]string{"event", "status"}, // status: delivered/failed
	)

	// BidsTotal counts bid submissions by outcome.
	BidsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bids_total",
			Help: "Total number of bid submissions.",
		},
		[]string{"status"}, // status: recorded/duplicate/rejected
	)

	// AssignmentsTotal counts assignment attempts by outcome.
	AssignmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assignments_total",
			Help: "Total number of worker assignment attempts.",
		},
		[]string{"status"}, // status: committed/idempotent/conflict
	)

	// JobsExpiredTotal counts jobs moved to EXPIRED by the sweeper.
	JobsExpiredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "jobs_expired_total",
			Help: "Total number of jobs expired without an assignment.",
		},
	)
)
