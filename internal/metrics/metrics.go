// Package metrics exposes Prometheus collectors for solver runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SolvesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lotcut_solves_total",
			Help: "Total number of solver runs",
		},
		[]string{"strategy", "status"},
	)

	SolveDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lotcut_solve_duration_seconds",
			Help:    "Time taken by a solver run",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
		},
		[]string{"strategy"},
	)

	PlansProduced = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lotcut_plans_total",
			Help: "Total number of cutting plans produced",
		},
		[]string{"strategy"},
	)

	PiecesPlanned = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lotcut_pieces_planned_total",
			Help: "Total number of pieces planned",
		},
		[]string{"strategy"},
	)

	FabricUsed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lotcut_fabric_used_meters_total",
			Help: "Fabric length consumed by plans",
		},
		[]string{"strategy"},
	)

	UnmetColors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lotcut_unmet_colors_total",
			Help: "Colors that could not be fully planned",
		},
		[]string{"strategy"},
	)

	InvalidInput = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lotcut_invalid_input_total",
			Help: "Input values replaced or rejected during import and validation",
		},
		[]string{"source"},
	)

	AuditDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lotcut_audit_dropped_total",
			Help: "Audit records dropped because the queue was full",
		},
	)
)

// RecordSolve records the outcome of one run.
func RecordSolve(strategy string, duration time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	SolvesTotal.WithLabelValues(strategy, status).Inc()
	SolveDuration.WithLabelValues(strategy).Observe(duration.Seconds())
}

// RecordPlans records what a successful run produced.
func RecordPlans(strategy string, plans, pieces, unmet int, used float64) {
	PlansProduced.WithLabelValues(strategy).Add(float64(plans))
	PiecesPlanned.WithLabelValues(strategy).Add(float64(pieces))
	FabricUsed.WithLabelValues(strategy).Add(used)
	UnmetColors.WithLabelValues(strategy).Add(float64(unmet))
}

// RecordInvalidInput counts values dropped while reading input.
func RecordInvalidInput(source string, n int) {
	if n > 0 {
		InvalidInput.WithLabelValues(source).Add(float64(n))
	}
}

// Timer measures elapsed time.
type Timer struct {
	start time.Time
}

func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Stop returns the elapsed time since the timer was created.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}
