package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry = prometheus.NewRegistry()
	once     sync.Once

	storeOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_store_operations_total",
			Help: "Total number of product store operations by outcome.",
		},
		[]string{"operation", "result"},
	)
	storeLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dashboard_store_operation_duration_seconds",
			Help:    "Duration of product store operations, simulated latency included.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
	workingListSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "dashboard_products",
		Help: "Number of products in the dashboard working list.",
	})
	auditDrift = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dashboard_audit_drift_total",
		Help: "Number of audit runs that found the working list out of sync with the store.",
	})
)

// Init registers metrics with the registry once.
func Init() {
	once.Do(func() {
		registry.MustRegister(
			prometheus.NewGoCollector(),
			prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
			storeOperations,
			storeLatency,
			workingListSize,
			auditDrift,
		)
	})
}

// Handler exposes the Prometheus metrics endpoint handler.
func Handler() http.Handler {
	Init()
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

// ObserveStoreOperation records the outcome and duration of one store call.
func ObserveStoreOperation(operation string, d time.Duration, err error) {
	Init()
	result := "success"
	if err != nil {
		result = "error"
	}
	storeOperations.WithLabelValues(operation, result).Inc()
	storeLatency.WithLabelValues(operation).Observe(d.Seconds())
}

// SetWorkingListSize publishes the current number of rows the dashboard shows.
func SetWorkingListSize(n int) {
	Init()
	workingListSize.Set(float64(n))
}

func IncAuditDrift() {
	Init()
	auditDrift.Inc()
}
