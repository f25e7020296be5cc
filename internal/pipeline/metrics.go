package pipeline

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/price-standard/price-service/internal/types"
)

var (
	// runsTotal tracks pipeline runs by outcome.
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "price_standard_runs_total",
		Help: "Total number of pipeline runs by outcome",
	}, []string{"outcome"}) // outcome: success, failed

	// stageFailures tracks failed runs by the stage that failed.
	stageFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "price_standard_stage_failures_total",
		Help: "Total number of pipeline failures by stage",
	}, []string{"stage"})

	// stageDuration tracks the time spent in each stage.
	stageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "price_standard_stage_duration_seconds",
		Help:    "Time spent in a pipeline stage",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}, []string{"stage"})

	// rowsProcessed tracks the distribution of data rows per run.
	rowsProcessed = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "price_standard_rows_processed_count",
		Help:    "Number of data rows written per run",
		Buckets: []float64{10, 50, 100, 500, 1000, 5000, 20000},
	})

	// rulesApplied tracks how often each pricing rule fired.
	rulesApplied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "price_standard_pricing_rules_total",
		Help: "Total number of rows priced by rule",
	}, []string{"rule"})

	// saleRows tracks rows that ended up with the sale status.
	saleRows = promauto.NewCounter(prometheus.CounterOpts{
		Name: "price_standard_sale_rows_total",
		Help: "Total number of rows marked for sale",
	})
)

// RecordStage records the duration of one stage.
func RecordStage(stage string, duration time.Duration) {
	stageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// RecordFailure records a failed run.
func RecordFailure(stage string) {
	runsTotal.WithLabelValues("failed").Inc()
	stageFailures.WithLabelValues(stage).Inc()
}

// RecordSuccess records a successful run and its statistics.
func RecordSuccess(stats types.ProcessingStats) {
	runsTotal.WithLabelValues("success").Inc()
	rowsProcessed.Observe(float64(stats.RowsProcessed))
	saleRows.Add(float64(stats.RowsWithSale))
	for rule, n := range stats.PerRule {
		rulesApplied.WithLabelValues(string(rule)).Add(float64(n))
	}
}
