package otel

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "planforge"

// StartRunSpan starts a span covering a whole orchestrator run.
func StartRunSpan(ctx context.Context, runID, mode string, solvers []string, timeout time.Duration) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "run",
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.String("run.mode", mode),
			attribute.StringSlice("run.solvers", solvers),
			attribute.Float64("run.timeout_seconds", timeout.Seconds()),
		),
	)
}

// StartSolverSpan starts a span for one solver invocation within a run.
func StartSolverSpan(ctx context.Context, runID, solver string, index int) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "solver",
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.String("solver.name", solver),
			attribute.Int("solver.index", index),
		),
	)
}
