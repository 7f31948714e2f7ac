package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "planforge"

// Metrics holds all planforge metric instruments.
type Metrics struct {
	RunsStarted    metric.Int64Counter
	RunsCompleted  metric.Int64Counter
	SolverOutcomes metric.Int64Counter
	CacheHits      metric.Int64Counter
	RunDuration    metric.Float64Histogram
	SolverDuration metric.Float64Histogram
	CandidatePlans metric.Int64Histogram
}

// NewMetrics creates all metric instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.RunsStarted, err = meter.Int64Counter("planforge.runs.started",
		metric.WithDescription("Number of runs started"))
	if err != nil {
		return nil, err
	}

	m.RunsCompleted, err = meter.Int64Counter("planforge.runs.completed",
		metric.WithDescription("Number of runs that produced a report"))
	if err != nil {
		return nil, err
	}

	m.SolverOutcomes, err = meter.Int64Counter("planforge.solver.outcomes",
		metric.WithDescription("Solver outcomes by solver, status and error kind"))
	if err != nil {
		return nil, err
	}

	m.CacheHits, err = meter.Int64Counter("planforge.cache.hits",
		metric.WithDescription("Solver outcomes served from the result cache"))
	if err != nil {
		return nil, err
	}

	m.RunDuration, err = meter.Float64Histogram("planforge.run.duration_seconds",
		metric.WithDescription("Run wall time in seconds"))
	if err != nil {
		return nil, err
	}

	m.SolverDuration, err = meter.Float64Histogram("planforge.solver.duration_seconds",
		metric.WithDescription("Solver invocation wall time in seconds"))
	if err != nil {
		return nil, err
	}

	m.CandidatePlans, err = meter.Int64Histogram("planforge.solver.candidates",
		metric.WithDescription("Number of candidate plans per successful invocation"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
