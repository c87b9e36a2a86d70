package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(tasksProcessedTotal, taskRejectsTotal, stageLatencyMs, stageRetriesTotal)
}

var tasksProcessedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "image_tasks_processed_total",
		Help: "Total image tasks reaching a terminal status, labeled by status.",
	},
	[]string{"status"}, // 'stored', 'rejected'
)

var taskRejectsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "image_task_rejects_total",
		Help: "Terminal rejections by reason code.",
	},
	[]string{"reason"},
)

var stageLatencyMs = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "pipeline_stage_latency_ms",
		Help:    "Per-stage latency distribution in milliseconds.",
		Buckets: []float64{10, 25, 50, 100, 200, 400, 800, 1600, 3000, 5000, 10000, 30000},
	},
	[]string{"stage", "success"},
)

var stageRetriesTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "pipeline_stage_retries_total",
		Help: "Transient-failure retries per stage.",
	},
	[]string{"stage"},
)

func IncTaskProcessed(status string) {
	tasksProcessedTotal.WithLabelValues(norm(status)).Inc()
}

func IncTaskRejected(reason string) {
	taskRejectsTotal.WithLabelValues(norm(reason)).Inc()
}

func ObserveStage(stage string, latencyMs int, success bool) {
	stageLatencyMs.WithLabelValues(norm(stage), strconv.FormatBool(success)).Observe(float64(latencyMs))
}

func IncStageRetry(stage string) {
	stageRetriesTotal.WithLabelValues(norm(stage)).Inc()
}
