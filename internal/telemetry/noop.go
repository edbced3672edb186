package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type (
	// NoopLogger is the Logger New leaves in place when a caller never
	// passes WithTelemetry to engine.New.
	NoopLogger struct{}

	// NoopMetrics discards every counter, timer, and gauge the engine
	// records.
	NoopMetrics struct{}

	// NoopTracer hands back spans that discard every event/status/error
	// recorded on them.
	NoopTracer struct{}

	noopSpan struct{}
)

// NewNoopLogger constructs the Logger telemetry.NoopSet uses as the
// engine's default.
func NewNoopLogger() Logger { return NoopLogger{} }

// NewNoopMetrics constructs the Metrics telemetry.NoopSet uses as the
// engine's default.
func NewNoopMetrics() Metrics { return NoopMetrics{} }

// NewNoopTracer constructs the Tracer telemetry.NoopSet uses as the
// engine's default.
func NewNoopTracer() Tracer { return NoopTracer{} }

func (NoopLogger) Debug(context.Context, string, ...any) {}
func (NoopLogger) Info(context.Context, string, ...any)  {}
func (NoopLogger) Warn(context.Context, string, ...any)  {}
func (NoopLogger) Error(context.Context, string, ...any) {}

func (NoopMetrics) IncCounter(string, float64, ...string)          {}
func (NoopMetrics) RecordTimer(string, time.Duration, ...string)   {}
func (NoopMetrics) RecordGauge(string, float64, ...string)         {}

func (NoopTracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, Span) {
	return ctx, noopSpan{}
}

func (NoopTracer) Span(context.Context) Span { return noopSpan{} }

func (noopSpan) End(...trace.SpanEndOption)             {}
func (noopSpan) AddEvent(string, ...any)                {}
func (noopSpan) SetStatus(codes.Code, string)           {}
func (noopSpan) RecordError(error, ...trace.EventOption) {}
