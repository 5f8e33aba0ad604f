package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// JobsSubmitted counts accepted submissions by vendor.
	JobsSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fetch_jobs_submitted_total",
			Help: "Total number of jobs accepted by the submission handler",
		},
		[]string{"vendor"},
	)

	// SubmissionRollbacks counts compensating deletes after a failed enqueue.
	SubmissionRollbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fetch_submission_rollbacks_total",
			Help: "Total number of compensating deletes after a failed enqueue",
		},
	)

	// DispatchesTotal counts dispatch outcomes by vendor and outcome.
	DispatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fetch_dispatches_total",
			Help: "Total number of dispatch attempts by outcome",
		},
		[]string{"vendor", "outcome"},
	)

	// VendorCallDuration tracks the duration of vendor calls in seconds.
	VendorCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fetch_vendor_call_duration_seconds",
			Help:    "Duration of outbound vendor calls in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
		},
		[]string{"vendor"},
	)

	// WorkersActive tracks the number of currently active workers.
	WorkersActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fetch_workers_active",
			Help: "Number of currently active worker goroutines",
		},
	)

	// WebhooksApplied counts webhook applications by outcome.
	WebhooksApplied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fetch_webhooks_total",
			Help: "Total number of vendor webhook callbacks by outcome",
		},
		[]string{"outcome"},
	)
)
