package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/notify"
	"github.com/spec-kit/helpdesk/internal/observability"
)

// NotificationService turns domain events into outbound notices. Delivery is
// best effort: failures are logged and counted, never returned to the request.
type NotificationService struct {
	dispatcher events.Dispatcher
	notifier   notify.Notifier
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, notifier notify.Notifier, metrics *observability.Metrics, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		notifier:   notifier,
		metrics:    metrics,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	n.dispatcher.Subscribe(events.EventTicketStatusChanged, n.handleTicketStatusChanged)
}

// handleTicketCreated announces new cloud tickets only.
func (n *NotificationService) handleTicketCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketCreatedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	if payload.Division != domain.DivisionCloud {
		return nil
	}
	if n.notifier == nil {
		n.metrics.NotificationSent("skipped")
		return nil
	}

	err := n.notifier.NotifyTicketCreated(ctx, notify.TicketNotice{
		TicketID:    event.TicketID,
		ClientName:  payload.ClientName,
		Title:       payload.Title,
		Description: payload.Description,
		CreatedBy:   payload.CreatedBy,
		AssignedTo:  payload.AssignedTo,
		CreatedAt:   payload.CreatedAt,
	})
	if err != nil {
		n.metrics.NotificationSent("failed")
		n.logger.Warn("ticket notification failed",
			zap.Int64("ticket_id", event.TicketID),
			zap.Error(err))
		return nil
	}
	n.metrics.NotificationSent("ok")
	n.logger.Debug("ticket notification sent", zap.Int64("ticket_id", event.TicketID))
	return nil
}

func (n *NotificationService) handleTicketStatusChanged(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketStatusChangedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	n.logger.Info("ticket status changed",
		zap.Int64("ticket_id", event.TicketID),
		zap.String("actor", event.Actor),
		zap.String("division", string(payload.Division)),
		zap.String("from", string(payload.OldStatus)),
		zap.String("to", string(payload.NewStatus)))
	return nil
}
