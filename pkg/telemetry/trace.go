package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation name of every span started here.
const TracerName = "plain"

// Tracer returns the tracer from the global provider. Without a configured
// provider spans are no-ops.
func Tracer() trace.Tracer {
	return otel.Tracer(TracerName)
}

// StartRender starts a span around one widget render.
func StartRender(ctx context.Context, widget string, full bool) (context.Context, trace.Span) {
	return Tracer().Start(ctx, "plain.render "+widget,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("plain.widget", widget),
			attribute.Bool("plain.full", full),
		),
	)
}

// StartEvent starts a span around delivery of one user event.
func StartEvent(ctx context.Context, widget, event string) (context.Context, trace.Span) {
	return Tracer().Start(ctx, "plain.event "+event,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("plain.widget", widget),
			attribute.String("plain.event", event),
		),
	)
}

// End records err on span, sets its status and ends it.
func End(span trace.Span, err error, attrs ...attribute.KeyValue) {
	if len(attrs) > 0 {
		span.SetAttributes(attrs...)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
