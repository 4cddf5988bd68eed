package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// StoreSpan is a span around one job store operation
type StoreSpan struct {
	trace.Span
	ctx context.Context
}

// End records err on the span, if any, and ends it
func (s *StoreSpan) End(err error) {
	if err != nil {
		SetError(s.ctx, err)
	}
	s.Span.End()
}

// StartStoreSpan creates a client span for a store operation against table
func StartStoreSpan(ctx context.Context, system, operation, table string) (context.Context, *StoreSpan) {
	ctx, span := GetTracer().Start(ctx, "db."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system.name", system),
			attribute.String("db.operation.name", operation),
			attribute.String("db.collection.name", table),
		))
	return ctx, &StoreSpan{Span: span, ctx: ctx}
}
