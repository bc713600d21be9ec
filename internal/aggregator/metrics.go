package aggregator

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// adapterCalls counts adapter invocations by platform and outcome.
	adapterCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aggregator_adapter_calls_total",
		Help: "Total number of adapter calls by platform and outcome",
	}, []string{"platform", "outcome"})

	// adapterDuration tracks how long each adapter took to settle.
	adapterDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "aggregator_adapter_duration_seconds",
		Help:    "Time taken for an adapter call to settle by platform",
		Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 45, 60},
	}, []string{"platform"})

	// adapterRecords tracks the number of records returned per adapter call.
	adapterRecords = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "aggregator_adapter_records_count",
		Help:    "Number of records returned by an adapter call",
		Buckets: []float64{0, 1, 2, 3, 4, 5},
	}, []string{"platform"})

	// aggregationDuration tracks end-to-end aggregation latency.
	aggregationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "aggregator_aggregation_duration_seconds",
		Help:    "Time taken to aggregate prices by category and data source",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
	}, []string{"category", "source"})

	// fallbackStages counts how often each degraded strategy was used.
	fallbackStages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aggregator_fallback_total",
		Help: "Total number of fallback strategies applied by stage",
	}, []string{"stage"}) // stage: major_city, nearby_city, synthetic

	// invalidLocations counts requests short-circuited by location validation.
	invalidLocations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "aggregator_invalid_locations_total",
		Help: "Total number of aggregations rejected for an invalid location",
	})

	// breakerState exposes each platform breaker as 0 closed, 1 open, 2 half-open.
	breakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "aggregator_breaker_state",
		Help: "Circuit breaker state by platform (0 closed, 1 open, 2 half-open)",
	}, []string{"platform"})
)

// MetricsRecorder provides methods to record aggregator metrics.
// A nil recorder is valid and records to the same global collectors.
type MetricsRecorder struct{}

// NewMetricsRecorder creates a new metrics recorder.
func NewMetricsRecorder() *MetricsRecorder {
	return &MetricsRecorder{}
}

// RecordAdapterCall records one settled adapter call.
func (m *MetricsRecorder) RecordAdapterCall(platform string, outcome Outcome, duration time.Duration, records int) {
	adapterCalls.WithLabelValues(platform, string(outcome)).Inc()
	if outcome == OutcomeCircuitOpen {
		return
	}
	adapterDuration.WithLabelValues(platform).Observe(duration.Seconds())
	adapterRecords.WithLabelValues(platform).Observe(float64(records))
}

// RecordAggregation records a finished aggregation.
func (m *MetricsRecorder) RecordAggregation(category, source string, duration time.Duration) {
	aggregationDuration.WithLabelValues(category, source).Observe(duration.Seconds())
}

// RecordFallback records use of a fallback stage.
func (m *MetricsRecorder) RecordFallback(stage string) {
	fallbackStages.WithLabelValues(stage).Inc()
}

// RecordInvalidLocation records a request rejected by location validation.
func (m *MetricsRecorder) RecordInvalidLocation() {
	invalidLocations.Inc()
}

// RecordBreakerState records a breaker state change.
func (m *MetricsRecorder) RecordBreakerState(platform string, state BreakerState) {
	breakerState.WithLabelValues(platform).Set(float64(state))
}
