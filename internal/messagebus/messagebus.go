package messagebus

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"seoaudit/internal/models"
	"seoaudit/internal/tracing"
)

//go:generate mockgen -destination=../mocks/mock_messagebus.go -package=mocks . MessageBusInterface

type MessageBusInterface interface {
	PublishJobUpdate(ctx context.Context, m JobUpdateMessage) error
	SubscribeToJobUpdate(handler func(ctx context.Context, m *nats.Msg)) (*nats.Subscription, error)
}

type MessageType string

const (
	JobUpdateMessageType MessageType = "audit.job_update"
)

// JobUpdateMessage announces a job status change
type JobUpdateMessage struct {
	Type      MessageType      `json:"type"`
	AuditID   string           `json:"audit_id"`
	URL       string           `json:"url"`
	Status    models.JobStatus `json:"status"`
	Scores    *models.Scores   `json:"scores,omitempty"`
	Error     string           `json:"error,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

// MetricsCollector records message bus traffic
type MetricsCollector interface {
	RecordNATSPublish(messageType string, success bool)
	RecordNATSReceive(messageType string, duration time.Duration, success bool)
}

// NoOpMetricsCollector is a no-op implementation of MetricsCollector
type NoOpMetricsCollector struct{}

func (NoOpMetricsCollector) RecordNATSPublish(string, bool)                {}
func (NoOpMetricsCollector) RecordNATSReceive(string, time.Duration, bool) {}

// MessageBus provides a NATS message bus for publishing and subscribing to messages
type MessageBus struct {
	nc      *nats.Conn
	metrics MetricsCollector
	log     *slog.Logger
}

// New creates a new message bus
func New(nc *nats.Conn, metrics MetricsCollector, log *slog.Logger) *MessageBus {
	if metrics == nil {
		metrics = NoOpMetricsCollector{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &MessageBus{
		nc:      nc,
		metrics: metrics,
		log:     log,
	}
}

// PublishJobUpdate publishes a job update message to NATS
func (b *MessageBus) PublishJobUpdate(ctx context.Context, m JobUpdateMessage) (err error) {
	defer func() {
		b.metrics.RecordNATSPublish(string(JobUpdateMessageType), err == nil)
	}()

	m.Type = JobUpdateMessageType
	data, err := json.Marshal(m)
	if err != nil {
		b.log.Error("Failed to marshal job update", slog.Any("error", err))
		return err
	}

	err = b.publishMsg(ctx, data, JobUpdateMessageType)
	if err != nil {
		b.log.Error("Failed to publish job update", slog.String("auditId", m.AuditID), slog.Any("error", err))
	}
	return err
}

// publishMsg publishes a message to NATS with trace context in headers
func (b *MessageBus) publishMsg(ctx context.Context, data []byte, messageType MessageType) error {
	ctx, span := tracing.StartPublishSpan(ctx, string(messageType))
	defer span.End()

	msg := &nats.Msg{
		Subject: string(messageType),
		Data:    data,
		Header:  make(nats.Header),
	}

	tracing.InjectNATSHeaders(ctx, msg)

	err := b.nc.PublishMsg(msg)
	if err != nil {
		tracing.SetError(ctx, err)
	}
	return err
}

// SubscribeToJobUpdate subscribes to the job update message
func (b *MessageBus) SubscribeToJobUpdate(handler func(ctx context.Context, m *nats.Msg)) (*nats.Subscription, error) {
	h := b.wrapHandler(JobUpdateMessageType, handler)
	return b.nc.Subscribe(string(JobUpdateMessageType), h)
}

// wrapHandler wraps the original handler to automatically inject trace context and record receive metrics
func (b *MessageBus) wrapHandler(messageType MessageType, handler func(ctx context.Context, m *nats.Msg)) nats.MsgHandler {
	return func(m *nats.Msg) {
		ctx := tracing.ExtractNATSHeaders(context.Background(), m)
		ctx, span := tracing.StartConsumeSpan(ctx, m.Subject)
		defer span.End()

		start := time.Now()
		defer func() {
			if r := recover(); r != nil {
				b.metrics.RecordNATSReceive(string(messageType), time.Since(start), false)
				b.log.Error("Message handler panicked",
					slog.String("subject", m.Subject),
					slog.Any("panic", r))
				return
			}
			b.metrics.RecordNATSReceive(string(messageType), time.Since(start), true)
		}()

		handler(ctx, m)
	}
}

// DecodeJobUpdate decodes the payload of a job update message
func DecodeJobUpdate(m *nats.Msg) (JobUpdateMessage, error) {
	var msg JobUpdateMessage
	err := json.Unmarshal(m.Data, &msg)
	return msg, err
}
