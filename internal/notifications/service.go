package notifications

import (
	"context"
	"log/slog"

	"github.com/nats-io/nats.go"

	"seoaudit/internal/messagebus"
)

// NotificationService relays job update messages to websocket clients
type NotificationService struct {
	hub  *Hub
	mb   messagebus.MessageBusInterface
	log  *slog.Logger
	subs []*nats.Subscription
}

// Option configures the NotificationService
type Option func(*NotificationService)

// NewNotificationService creates a new notification service with WebSocket hub and message bus
func NewNotificationService(hub *Hub, mb messagebus.MessageBusInterface, opts ...Option) *NotificationService {
	s := &NotificationService{
		hub:  hub,
		mb:   mb,
		log:  slog.Default(),
		subs: make([]*nats.Subscription, 0),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// WithLogger sets the logger
func WithLogger(log *slog.Logger) Option {
	return func(s *NotificationService) { s.log = log }
}

// Start subscribes to job updates
func (s *NotificationService) Start(ctx context.Context) error {
	s.log.Info("Starting notification service subscriptions")

	sub, err := s.mb.SubscribeToJobUpdate(s.handleJobUpdate)
	if err != nil {
		s.log.Error("Failed to subscribe to job updates", slog.Any("error", err))
		return err
	}
	s.subs = append(s.subs, sub)

	s.log.Info("All NATS subscriptions established", slog.Int("count", len(s.subs)))
	return nil
}

// Stop unsubscribes from all NATS subscriptions
func (s *NotificationService) Stop() {
	s.log.Info("Stopping notification service", slog.Int("subscriptions", len(s.subs)))

	for _, sub := range s.subs {
		if err := sub.Unsubscribe(); err != nil {
			s.log.Error("Failed to unsubscribe", slog.Any("error", err))
		}
	}

	s.subs = s.subs[:0]
}

// WebSocketHandler returns the WebSocket handler for HTTP routing
func (s *NotificationService) WebSocketHandler() *Handler {
	return NewHandler(s.hub, s.log)
}

// handleJobUpdate sends an update to the audit's own group and to the firehose
func (s *NotificationService) handleJobUpdate(_ context.Context, msg *nats.Msg) {
	m, err := messagebus.DecodeJobUpdate(msg)
	if err != nil {
		s.log.Error("Failed to unmarshal job update", slog.Any("error", err))
		return
	}

	s.log.Debug("Broadcasting job update",
		slog.String("auditId", m.AuditID),
		slog.String("status", string(m.Status)))
	s.hub.BroadcastToGroups(m, string(m.Type), m.AuditID, FirehoseGroup)
}
