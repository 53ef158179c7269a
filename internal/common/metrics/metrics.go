package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	PayloadExtractions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "commerce_payload_extractions_total",
			Help: "Assistant messages split into narrative and payload, by outcome",
		},
		[]string{"outcome"}, // items, text_only, malformed
	)

	ActionItemsClassified = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "commerce_action_items_classified_total",
			Help: "Action items classified, by variant",
		},
		[]string{"variant"},
	)

	TrackingLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "commerce_tracking_lookups_total",
			Help: "Order tracking lookups, by path and result",
		},
		[]string{"path", "result"}, // path: resolve, lookup
	)

	Payments = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "commerce_payments_total",
			Help: "Payment simulation attempts, by outcome",
		},
		[]string{"outcome"}, // completed, cancelled, rejected, failed
	)

	OrderIDCollisions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "commerce_order_id_collisions_total",
			Help: "Generated order ids that were already taken",
		},
	)

	ChatTurns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "commerce_chat_turns_total",
			Help: "Chat turns, by outcome",
		},
		[]string{"outcome"}, // ok, ping, failed, timeout
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "commerce_http_request_duration_seconds",
			Help: "HTTP request latency by route and status",
		},
		[]string{"method", "route", "status"},
	)
)

// ObserveJob records the outcome of one job handled by a worker.
func ObserveJob(taskType string, seconds float64, errorCode string) {
	WorkerJobDuration.WithLabelValues(taskType).Observe(seconds)
	if errorCode == "" {
		WorkerJobsCompleted.WithLabelValues(taskType).Inc()
		return
	}
	WorkerJobsFailed.WithLabelValues(taskType, errorCode).Inc()
}
