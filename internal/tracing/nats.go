package tracing

import (
	"context"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// InjectNATSHeaders injects trace context into NATS message headers
func InjectNATSHeaders(ctx context.Context, msg *nats.Msg) {
	if msg.Header == nil {
		msg.Header = make(nats.Header)
	}
	GetPropagator().Inject(ctx, natsHeaderCarrier(msg.Header))
}

// ExtractNATSHeaders extracts trace context from NATS message headers
func ExtractNATSHeaders(ctx context.Context, msg *nats.Msg) context.Context {
	if msg.Header == nil {
		return ctx
	}
	return GetPropagator().Extract(ctx, natsHeaderCarrier(msg.Header))
}

// StartPublishSpan starts a producer span for subject
func StartPublishSpan(ctx context.Context, subject string) (context.Context, trace.Span) {
	return messagingSpan(ctx, "publish", subject, trace.SpanKindProducer)
}

// StartConsumeSpan starts a consumer span for subject
func StartConsumeSpan(ctx context.Context, subject string) (context.Context, trace.Span) {
	return messagingSpan(ctx, "process", subject, trace.SpanKindConsumer)
}

func messagingSpan(ctx context.Context, op, subject string, kind trace.SpanKind) (context.Context, trace.Span) {
	return GetTracer().Start(ctx, op+" "+subject,
		trace.WithSpanKind(kind),
		trace.WithAttributes(
			attribute.String("messaging.system", "nats"),
			attribute.String("messaging.operation.type", op),
			attribute.String("messaging.destination.name", subject),
		))
}

type natsHeaderCarrier nats.Header

func (c natsHeaderCarrier) Get(key string) string { return nats.Header(c).Get(key) }

func (c natsHeaderCarrier) Set(key, value string) { nats.Header(c).Set(key, value) }

func (c natsHeaderCarrier) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	return keys
}
