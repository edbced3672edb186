package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"goa.design/clue/log"
)

const instrumentationName = "w3rt.dev/core/engine"

type (
	// ClueLogger emits the engine's stage/action/run lifecycle lines
	// (spec.md §4.5) through goa.design/clue/log.
	ClueLogger struct{}

	// ClueMetrics records the engine's tool-call counters, stage/tool
	// duration histograms, and run-progress gauges through OTEL metrics.
	// Unlike a histogram-backed gauge fallback, RecordGauge registers a real
	// OTEL Float64ObservableGauge on first use; the engine's synchronous
	// call just updates the last-known value, and an async callback reports
	// it on each collection pass.
	ClueMetrics struct {
		meter metric.Meter

		mu     sync.Mutex
		gauges map[string]gaugeState
	}

	gaugeState struct {
		value float64
		attrs []attribute.KeyValue
	}

	// ClueTracer starts engine.run / engine.stage spans through OTEL
	// tracing.
	ClueTracer struct {
		tracer trace.Tracer
	}

	clueSpan struct {
		span trace.Span
	}
)

// NewClueLogger constructs a Logger that delegates to goa.design/clue/log.
// The logger reads formatting and debug settings from the context (set via
// log.Context and log.WithFormat/log.WithDebug).
func NewClueLogger() Logger {
	return ClueLogger{}
}

// NewClueMetrics constructs a Metrics recorder backed by the global OTEL
// MeterProvider; configure it via clue.ConfigureOpenTelemetry before use.
func NewClueMetrics() Metrics {
	return &ClueMetrics{
		meter:  otel.Meter(instrumentationName),
		gauges: make(map[string]gaugeState),
	}
}

// NewClueTracer constructs a Tracer backed by the global OTEL
// TracerProvider; configure it via clue.ConfigureOpenTelemetry before use.
func NewClueTracer() Tracer {
	return &ClueTracer{tracer: otel.Tracer(instrumentationName)}
}

// Debug emits a debug-level log message with structured key-value pairs.
func (ClueLogger) Debug(ctx context.Context, msg string, keyvals ...any) {
	log.Debug(ctx, fielders(msg, keyvals)...)
}

// Info emits an info-level log message with structured key-value pairs.
func (ClueLogger) Info(ctx context.Context, msg string, keyvals ...any) {
	log.Info(ctx, fielders(msg, keyvals)...)
}

// Warn emits a warning-level log message with structured key-value pairs.
func (ClueLogger) Warn(ctx context.Context, msg string, keyvals ...any) {
	fs := append([]log.Fielder{log.KV{K: "msg", V: msg}, log.KV{K: "severity", V: "warning"}}, kvToFielders(keyvals)...)
	log.Warn(ctx, fs...)
}

// Error emits an error-level log message with structured key-value pairs.
func (ClueLogger) Error(ctx context.Context, msg string, keyvals ...any) {
	log.Error(ctx, nil, fielders(msg, keyvals)...)
}

func fielders(msg string, keyvals []any) []log.Fielder {
	return append([]log.Fielder{log.KV{K: "msg", V: msg}}, kvToFielders(keyvals)...)
}

// IncCounter increments a counter metric by the given value.
func (m *ClueMetrics) IncCounter(name string, value float64, tags ...string) {
	counter, err := m.meter.Float64Counter(name)
	if err != nil {
		return
	}
	counter.Add(context.Background(), value, metric.WithAttributes(tagPairs(tags)...))
}

// RecordTimer records a duration as a histogram.
func (m *ClueMetrics) RecordTimer(name string, d time.Duration, tags ...string) {
	h, err := m.meter.Float64Histogram(name)
	if err != nil {
		return
	}
	h.Record(context.Background(), d.Seconds(), metric.WithAttributes(tagPairs(tags)...))
}

// RecordGauge records a gauge value. The first call for a given name
// registers an OTEL Float64ObservableGauge whose callback reports whatever
// value was most recently recorded; later calls just update that value.
func (m *ClueMetrics) RecordGauge(name string, value float64, tags ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, registered := m.gauges[name]
	m.gauges[name] = gaugeState{value: value, attrs: tagPairs(tags)}
	if registered {
		return
	}

	_, err := m.meter.Float64ObservableGauge(name, metric.WithFloat64Callback(
		func(_ context.Context, o metric.Float64Observer) error {
			m.mu.Lock()
			g := m.gauges[name]
			m.mu.Unlock()
			o.Observe(g.value, metric.WithAttributes(g.attrs...))
			return nil
		},
	))
	if err != nil {
		delete(m.gauges, name)
	}
}

// Start creates a new span, returning the derived context and span handle.
func (t *ClueTracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, Span) {
	newCtx, span := t.tracer.Start(ctx, name, opts...)
	return newCtx, &clueSpan{span: span}
}

// Span retrieves the current span from the context.
func (t *ClueTracer) Span(ctx context.Context) Span {
	return &clueSpan{span: trace.SpanFromContext(ctx)}
}

func (s *clueSpan) End(opts ...trace.SpanEndOption) { s.span.End(opts...) }

func (s *clueSpan) AddEvent(name string, keyvals ...any) {
	s.span.AddEvent(name, trace.WithAttributes(kvPairs(keyvals)...))
}

func (s *clueSpan) SetStatus(code codes.Code, description string) {
	s.span.SetStatus(code, description)
}

func (s *clueSpan) RecordError(err error, opts ...trace.EventOption) {
	s.span.RecordError(err, opts...)
}

// kvToFielders folds a (k1, v1, k2, v2, ...) slice into clue log fields,
// skipping any key that isn't a string.
func kvToFielders(keyvals []any) []log.Fielder {
	return foldPairs(keyvals, func(k string, v any) log.Fielder {
		return log.KV{K: k, V: v}
	})
}

// kvPairs folds a (k1, v1, k2, v2, ...) slice into typed OTEL attributes for
// span events, picking the attribute constructor from v's concrete type.
func kvPairs(keyvals []any) []attribute.KeyValue {
	return foldPairs(keyvals, func(k string, v any) attribute.KeyValue {
		switch val := v.(type) {
		case string:
			return attribute.String(k, val)
		case int:
			return attribute.Int(k, val)
		case int64:
			return attribute.Int64(k, val)
		case float64:
			return attribute.Float64(k, val)
		case bool:
			return attribute.Bool(k, val)
		default:
			return attribute.String(k, "")
		}
	})
}

// tagPairs folds a (k1, v1, k2, v2, ...) string slice into OTEL attributes
// for metric dimensions.
func tagPairs(tags []string) []attribute.KeyValue {
	pairs := make([]any, len(tags))
	for i, t := range tags {
		pairs[i] = t
	}
	return foldPairs(pairs, func(k string, v any) attribute.KeyValue {
		s, _ := v.(string)
		return attribute.String(k, s)
	})
}

// foldPairs walks kv two elements at a time (key, value), converting each
// pair with conv. A non-string key is dropped; a trailing unpaired key gets
// a nil value.
func foldPairs[T any](kv []any, conv func(k string, v any) T) []T {
	var out []T
	for i := 0; i < len(kv); i += 2 {
		k, ok := kv[i].(string)
		if !ok {
			continue
		}
		var v any
		if i+1 < len(kv) {
			v = kv[i+1]
		}
		out = append(out, conv(k, v))
	}
	return out
}
