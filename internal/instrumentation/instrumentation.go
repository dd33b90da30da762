// Package instrumentation defines the prometheus metrics of the service.
package instrumentation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Instrumentation bundles the prometheus collectors used across the
// HTTP adapter and handlers.
type Instrumentation struct {
	// counters
	CounterRequests           *prometheus.CounterVec
	CounterHandleRequestPanic prometheus.Counter
	CounterRecordsCreated     prometheus.Counter
	CounterRecordsUpdated     prometheus.Counter
	CounterRecordsDeleted     prometheus.Counter

	// histograms
	HistRequestDuration prometheus.Histogram
}

// New registers the collectors with the default registerer.
func New(namespace, subsystem string) *Instrumentation {
	return NewWithRegisterer(namespace, subsystem, prometheus.DefaultRegisterer)
}

// NewTestInstrumentation registers against a fresh registry so tests do
// not collide on duplicate registration.
func NewTestInstrumentation() *Instrumentation {
	return NewWithRegisterer("weightlog", "test_server", prometheus.NewRegistry())
}

// NewWithRegisterer registers all collectors with reg.
func NewWithRegisterer(namespace, subsystem string, reg prometheus.Registerer) *Instrumentation {
	factory := promauto.With(reg)

	return &Instrumentation{
		CounterRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "request",
			Help:      "The total number of incoming requests",
		}, []string{"method", "status"}),
		CounterHandleRequestPanic: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "handle_request_panic",
			Help:      "The total number of serve request panics",
		}),
		CounterRecordsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "weight_records_created",
			Help:      "The total number of weight records created",
		}),
		CounterRecordsUpdated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "weight_records_updated",
			Help:      "The total number of weight records updated",
		}),
		CounterRecordsDeleted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "weight_records_deleted",
			Help:      "The total number of weight records deleted",
		}),
		HistRequestDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "request_duration_seconds",
			Help:      "Total duration of all requests",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}
