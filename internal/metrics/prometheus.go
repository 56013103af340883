package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	MessageOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "message_operations_total",
			Help: "Total number of message operations by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	EventsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lifecycle_events_processed_total",
			Help: "Total number of lifecycle events recorded by workers",
		},
		[]string{"organization"},
	)

	WorkerActive = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_active_goroutines",
			Help: "Number of active worker goroutines per organization",
		},
		[]string{"organization"},
	)

	QueueDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "queue_depth",
			Help: "Current RabbitMQ event queue depth per organization",
		},
		[]string{"organization"},
	)
)

// Init registers metrics with Prometheus
func Init() {
	prometheus.MustRegister(MessageOps)
	prometheus.MustRegister(EventsProcessed)
	prometheus.MustRegister(WorkerActive)
	prometheus.MustRegister(QueueDepth)
}

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
