// Package metrics provides Prometheus instrumentation for the dashboard server.
//
// Metrics exposed:
//   - millboard_dataset_load_seconds: Histogram of dataset load duration
//   - millboard_dataset_observations: Gauge of observations in the current dataset
//   - millboard_dataset_age_seconds: Gauge of the current dataset's age
//   - millboard_dashboard_build_seconds: Histogram of dashboard aggregation time
//   - millboard_requests_total: Counter of API requests by endpoint and status
//   - millboard_errors_total: Counter of errors by component and reason
//
// All metrics carry the dataset label.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the dashboard server.
type Metrics struct {
	LoadSeconds           prometheus.Histogram
	DatasetObservations   prometheus.Gauge
	DatasetAgeSeconds     prometheus.Gauge
	DashboardBuildSeconds prometheus.Histogram
	RequestsTotal         *prometheus.CounterVec
	ErrorsTotal           *prometheus.CounterVec
}

// New creates metrics registered on the default registry.
func New(dataset string) *Metrics {
	return NewWith(prometheus.DefaultRegisterer, dataset)
}

// NewWith creates metrics registered on reg. Tests pass a fresh
// prometheus.NewRegistry() to avoid duplicate registration panics.
func NewWith(reg prometheus.Registerer, dataset string) *Metrics {
	factory := promauto.With(reg)
	labels := prometheus.Labels{"dataset": dataset}

	return &Metrics{
		LoadSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:        "millboard_dataset_load_seconds",
			Help:        "Time spent loading the dataset from its source",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}),

		DatasetObservations: factory.NewGauge(prometheus.GaugeOpts{
			Name:        "millboard_dataset_observations",
			Help:        "Number of observations in the current dataset",
			ConstLabels: labels,
		}),

		DatasetAgeSeconds: factory.NewGauge(prometheus.GaugeOpts{
			Name:        "millboard_dataset_age_seconds",
			Help:        "Age of the current dataset in seconds",
			ConstLabels: labels,
		}),

		DashboardBuildSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:        "millboard_dashboard_build_seconds",
			Help:        "Time spent aggregating dashboard views for one selection",
			ConstLabels: labels,
			Buckets:     []float64{.0001, .0005, .001, .005, .01, .05, .1},
		}),

		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "millboard_requests_total",
			Help:        "Total API requests by endpoint and status code",
			ConstLabels: labels,
		}, []string{"endpoint", "status"}),

		ErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "millboard_errors_total",
			Help:        "Total number of errors by component and reason",
			ConstLabels: labels,
		}, []string{"component", "reason"}),
	}
}

// RecordLoad records the time spent loading a dataset.
func (m *Metrics) RecordLoad(seconds float64) {
	m.LoadSeconds.Observe(seconds)
}

// SetObservations sets the current dataset size.
func (m *Metrics) SetObservations(n int) {
	m.DatasetObservations.Set(float64(n))
}

// SetDatasetAge sets the current dataset age.
func (m *Metrics) SetDatasetAge(seconds float64) {
	m.DatasetAgeSeconds.Set(seconds)
}

// RecordBuild records the time spent building one dashboard.
func (m *Metrics) RecordBuild(seconds float64) {
	m.DashboardBuildSeconds.Observe(seconds)
}

// RecordRequest increments the request counter.
func (m *Metrics) RecordRequest(endpoint, status string) {
	m.RequestsTotal.WithLabelValues(endpoint, status).Inc()
}

// RecordError increments the error counter.
func (m *Metrics) RecordError(component, reason string) {
	m.ErrorsTotal.WithLabelValues(component, reason).Inc()
}
