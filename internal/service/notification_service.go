package service

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/IanOtollo/skanem-helpdesk-system/internal/config"
	"github.com/IanOtollo/skanem-helpdesk-system/internal/events"
	"github.com/IanOtollo/skanem-helpdesk-system/internal/persistence"
)

// NotificationService relays domain events onto the Redis notification
// channel for downstream consumers (email workers, dashboards). Delivery is
// fire and forget: a notification failure never affects the pipeline.
type NotificationService struct {
	dispatcher events.Dispatcher
	redis      *persistence.Redis
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, redis *persistence.Redis, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		redis:      redis,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to every event the pipeline emits.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	for _, eventType := range []events.EventType{
		events.EventTicketSubmitted,
		events.EventTicketClassified,
		events.EventTicketFlaggedForReview,
		events.EventTicketAssigned,
		events.EventTicketStatusChanged,
		events.EventTicketResolved,
		events.EventModelActivated,
	} {
		n.dispatcher.Subscribe(eventType, n.relay)
	}
}

func (n *NotificationService) relay(ctx context.Context, event events.Event) error {
	n.logger.Info("event",
		zap.String("type", string(event.Type)),
		zap.String("ticket_id", event.TicketID),
		zap.Any("payload", event.Payload))

	if n.redis == nil {
		return nil
	}
	payload, err := json.Marshal(event)
	if err != nil {
		n.logger.Warn("event encode failed", zap.String("event_id", event.ID), zap.Error(err))
		return nil
	}
	if err := n.redis.Publish(ctx, n.cfg.EventChannel, payload); err != nil {
		n.logger.Warn("event publish failed",
			zap.String("event_id", event.ID),
			zap.String("channel", n.cfg.EventChannel),
			zap.Error(err))
	}
	return nil
}
