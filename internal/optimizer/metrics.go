package optimizer

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// optimizationDuration tracks the time taken for optimization calculations.
	optimizationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "optimizer_calculation_duration_seconds",
		Help:    "Time taken for optimization calculation by baseline",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
	}, []string{"baseline"})

	// optimizationErrors tracks rejected optimization requests.
	optimizationErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "optimizer_calculation_errors_total",
		Help: "Total number of optimization errors by baseline",
	}, []string{"baseline"})

	// cartSize tracks the distribution of cart sizes.
	cartSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "optimizer_cart_items_count",
		Help:    "Number of items in optimization requests",
		Buckets: []float64{1, 2, 5, 10, 20, 50, 100},
	})

	// platformCount tracks how many platforms a cart was split across.
	platformCount = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "optimizer_platforms_used_count",
		Help:    "Number of platforms in the optimized breakdown",
		Buckets: []float64{1, 2, 3, 4, 5, 10},
	}, []string{"baseline"})

	// savingsAmount tracks reported savings.
	savingsAmount = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "optimizer_savings_amount",
		Help:    "Savings reported against the baseline, in rupees",
		Buckets: []float64{0, 10, 25, 50, 100, 250, 500, 1000},
	}, []string{"baseline"})

	// droppedItems counts cart items with no usable price.
	droppedItems = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "optimizer_dropped_items_total",
		Help: "Total number of cart items dropped for lack of a price by baseline",
	}, []string{"baseline"})
)

// MetricsRecorder provides methods to record optimizer metrics.
type MetricsRecorder struct{}

// NewMetricsRecorder creates a new metrics recorder.
func NewMetricsRecorder() *MetricsRecorder {
	return &MetricsRecorder{}
}

// RecordOptimizationDuration records the duration of an optimization operation.
func (m *MetricsRecorder) RecordOptimizationDuration(baseline Baseline, duration time.Duration) {
	optimizationDuration.WithLabelValues(string(baseline)).Observe(duration.Seconds())
}

// RecordError records a rejected request.
func (m *MetricsRecorder) RecordError(baseline Baseline) {
	optimizationErrors.WithLabelValues(string(baseline)).Inc()
}

// RecordCartSize records the size of a cart.
func (m *MetricsRecorder) RecordCartSize(size int) {
	cartSize.Observe(float64(size))
}

// RecordOutcome records the shape of a finished optimization.
func (m *MetricsRecorder) RecordOutcome(baseline Baseline, platforms int, savings float64, dropped int) {
	platformCount.WithLabelValues(string(baseline)).Observe(float64(platforms))
	savingsAmount.WithLabelValues(string(baseline)).Observe(savings)
	if dropped > 0 {
		droppedItems.WithLabelValues(string(baseline)).Add(float64(dropped))
	}
}
