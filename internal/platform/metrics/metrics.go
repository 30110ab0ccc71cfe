// Package metrics exposes prometheus collectors for ledger operations.
package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/SscSPs/herd_ledger/internal/apperrors"
)

const namespace = "herd_ledger"

// Metrics holds the collectors registered for one process.
type Metrics struct {
	registry prometheus.Gatherer

	PeriodsCreated     prometheus.Counter
	EntriesPosted      *prometheus.CounterVec
	ReconcileDuration  prometheus.Histogram
	Dispositions       *prometheus.CounterVec
	BatchAssets        *prometheus.CounterVec
	OperationErrors    *prometheus.CounterVec
	EventPublishErrors prometheus.Counter
}

// New registers the collectors on reg. Pass prometheus.NewRegistry() in tests.
func New(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		PeriodsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "depreciation_periods_created_total",
			Help:      "Monthly depreciation records created by catch-up and disposition.",
		}),
		EntriesPosted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "journal_entries_posted_total",
			Help:      "Journal entries committed, by entry type.",
		}, []string{"entry_type"}),
		ReconcileDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reconcile_duration_seconds",
			Help:      "Time spent reconciling a single asset.",
			Buckets:   prometheus.DefBuckets,
		}),
		Dispositions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispositions_total",
			Help:      "Dispositions posted, by disposition type.",
		}, []string{"type"}),
		BatchAssets: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_assets_total",
			Help:      "Assets visited by batch reconciliation, by outcome.",
		}, []string{"outcome"}),
		OperationErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operation_errors_total",
			Help:      "Failed operations, by operation and error kind.",
		}, []string{"operation", "kind"}),
		EventPublishErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_publish_errors_total",
			Help:      "Integration events that could not be published.",
		}),
	}
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveError counts err under operation, labelled by its taxonomy kind.
func (m *Metrics) ObserveError(operation string, err error) {
	m.OperationErrors.WithLabelValues(operation, ErrorKind(err)).Inc()
}

// ErrorKind names the taxonomy class of err.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		return "validation"
	case errors.Is(err, apperrors.ErrNotFound):
		return "not_found"
	case errors.Is(err, apperrors.ErrConflict):
		return "conflict"
	case errors.Is(err, apperrors.ErrCalculation):
		return "calculation"
	default:
		return "store"
	}
}
