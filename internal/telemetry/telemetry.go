// Package telemetry defines the Logger/Metrics/Tracer capability set the
// workflow engine accepts via functional options (spec.md §9/SPEC_FULL.md
// §4.9) and actually calls at every stage/action/run boundary. The policy
// engine never imports this package — it stays a pure function (spec.md §8
// invariant 3). Grounded on runtime/agents/telemetry/telemetry.go in the
// teacher for the interface set, and on runtime/agent/telemetry/{clue.go,
// noop.go} for the concrete implementations, adapted to instrument the
// engine's run/stage/tool lifecycle instead of the teacher's multi-turn
// agent runtime (RecordGauge in particular is reworked onto a real OTEL
// Float64ObservableGauge rather than the teacher's histogram fallback).
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Logger emits structured log messages with key-value pairs.
type Logger interface {
	Debug(ctx context.Context, msg string, keyvals ...any)
	Info(ctx context.Context, msg string, keyvals ...any)
	Warn(ctx context.Context, msg string, keyvals ...any)
	Error(ctx context.Context, msg string, keyvals ...any)
}

// Metrics records counters, timers, and gauges.
type Metrics interface {
	IncCounter(name string, value float64, tags ...string)
	RecordTimer(name string, d time.Duration, tags ...string)
	RecordGauge(name string, value float64, tags ...string)
}

// Tracer starts and retrieves spans.
type Tracer interface {
	Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, Span)
	Span(ctx context.Context) Span
}

// Span is a single unit of tracing work.
type Span interface {
	End(opts ...trace.SpanEndOption)
	AddEvent(name string, keyvals ...any)
	SetStatus(code codes.Code, description string)
	RecordError(err error, opts ...trace.EventOption)
}

// Set bundles the three telemetry capabilities so callers can pass (and the
// engine can accept) one value instead of three.
type Set struct {
	Logger  Logger
	Metrics Metrics
	Tracer  Tracer
}

// NoopSet returns a Set backed entirely by no-op implementations.
func NoopSet() Set {
	return Set{Logger: NewNoopLogger(), Metrics: NewNoopMetrics(), Tracer: NewNoopTracer()}
}
