package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(syncJobsStartedTotal, syncTasksEnqueuedTotal, uploadsTotal) }

var syncJobsStartedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "sync_jobs_started_total",
		Help: "Sync jobs started, labeled by trigger type.",
	},
	[]string{"type"}, // 'full_sync', 'incremental', 'webhook'
)

var syncTasksEnqueuedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "sync_tasks_enqueued_total",
		Help: "Image tasks enqueued by the dispatcher, labeled by disposition.",
	},
	[]string{"disposition"}, // 'created', 'retried', 'skipped'
)

var uploadsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "image_uploads_total",
		Help: "Object-store uploads by outcome.",
	},
	[]string{"outcome"}, // 'ok', 'transient_error', 'fatal_error'
)

func IncSyncJob(jobType string) {
	syncJobsStartedTotal.WithLabelValues(norm(jobType)).Inc()
}

func IncTaskEnqueued(disposition string) {
	syncTasksEnqueuedTotal.WithLabelValues(norm(disposition)).Inc()
}

func IncUpload(outcome string) {
	uploadsTotal.WithLabelValues(norm(outcome)).Inc()
}
