package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

// tracerName is the instrumentation scope for turn spans.
const tracerName = "github.com/cory-johannsen/rogue/turn"

// InitTracer builds a TracerProvider that samples ratio of root spans and
// writes every finished span to logger at debug level.
//
// Precondition: ratio is within [0, 1]; logger is non-nil.
// Postcondition: Call Shutdown on the provider to flush pending spans.
func InitTracer(serviceName, version string, ratio float64, logger *zap.Logger) (*sdktrace.TracerProvider, error) {
	res, err := serviceResource(serviceName, version)
	if err != nil {
		return nil, err
	}
	return sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
		sdktrace.WithSyncer(NewLogExporter(logger)),
	), nil
}

// Tracer returns the turn tracer from tp, or a no-op tracer when tp is nil.
func Tracer(tp trace.TracerProvider) trace.Tracer {
	if tp == nil {
		tp = noop.NewTracerProvider()
	}
	return tp.Tracer(tracerName)
}

// LogExporter is a span exporter that logs spans instead of shipping them.
type LogExporter struct {
	logger *zap.Logger
}

// NewLogExporter returns an exporter writing to logger.
//
// Precondition: logger must be non-nil.
func NewLogExporter(logger *zap.Logger) *LogExporter {
	if logger == nil {
		panic("observability.NewLogExporter: logger must not be nil")
	}
	return &LogExporter{logger: logger}
}

// ExportSpans logs one entry per span with its attributes and events.
func (e *LogExporter) ExportSpans(_ context.Context, spans []sdktrace.ReadOnlySpan) error {
	for _, s := range spans {
		fields := []zap.Field{
			zap.String("span", s.Name()),
			zap.Stringer("trace_id", s.SpanContext().TraceID()),
			zap.Duration("elapsed", s.EndTime().Sub(s.StartTime())),
			zap.Int("events", len(s.Events())),
		}
		if st := s.Status(); st.Description != "" {
			fields = append(fields, zap.String("status", st.Description))
		}
		for _, kv := range s.Attributes() {
			fields = append(fields, attrField(kv))
		}
		e.logger.Debug("span finished", fields...)
	}
	return nil
}

// Shutdown has nothing to release.
func (e *LogExporter) Shutdown(context.Context) error { return nil }

func attrField(kv attribute.KeyValue) zap.Field {
	key := string(kv.Key)
	switch kv.Value.Type() {
	case attribute.BOOL:
		return zap.Bool(key, kv.Value.AsBool())
	case attribute.INT64:
		return zap.Int64(key, kv.Value.AsInt64())
	default:
		return zap.String(key, kv.Value.Emit())
	}
}
