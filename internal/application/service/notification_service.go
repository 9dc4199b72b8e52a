package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/garyjia/engagement-tracker/internal/application/dispatcher"
	"github.com/garyjia/engagement-tracker/internal/application/port"
	"github.com/garyjia/engagement-tracker/internal/domain/event"
)

// NotificationService turns workflow events into team chat messages
type NotificationService interface {
	Register(d dispatcher.Dispatcher)
	HandleStatusChanged(ctx context.Context, evt *event.Event) error
	HandleOverdue(ctx context.Context, evt *event.Event) error
}

type notificationServiceImpl struct {
	notifier port.Notifier
	metrics  MetricsRecorder
	logger   Logger
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(notifier port.Notifier, metrics MetricsRecorder, logger Logger) NotificationService {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &notificationServiceImpl{
		notifier: notifier,
		metrics:  metrics,
		logger:   logger,
	}
}

// Register subscribes the service's handlers on d
func (s *notificationServiceImpl) Register(d dispatcher.Dispatcher) {
	d.Subscribe(event.TypeStatusChanged, "notify-status-changed", s.HandleStatusChanged)
	d.Subscribe(event.TypeEngagementOverdue, "notify-overdue", s.HandleOverdue)
}

// HandleStatusChanged announces a workflow transition
func (s *notificationServiceImpl) HandleStatusChanged(ctx context.Context, evt *event.Event) error {
	return s.send(ctx, evt, StatusChangedMessage(evt))
}

// HandleOverdue announces an engagement that passed its target date
func (s *notificationServiceImpl) HandleOverdue(ctx context.Context, evt *event.Event) error {
	s.metrics.RecordOverdue()
	return s.send(ctx, evt, OverdueMessage(evt))
}

func (s *notificationServiceImpl) send(ctx context.Context, evt *event.Event, message string) error {
	if err := s.notifier.Notify(ctx, message); err != nil {
		s.metrics.RecordNotification(false)
		s.logger.Error("Failed to send notification",
			"error", err,
			"event_type", evt.Type,
			"reference", evt.Reference)
		return fmt.Errorf("send notification: %w", err)
	}

	s.metrics.RecordNotification(true)
	s.logger.Info("Notification sent", "event_type", evt.Type, "reference", evt.Reference)
	return nil
}

// StatusChangedMessage formats the chat text for a status change
func StatusChangedMessage(evt *event.Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", evt.Reference, evt.GetPayloadString(event.PayloadClientName))
	fmt.Fprintf(&b, "\n%s: %s -> %s",
		evt.GetPayloadString(event.PayloadAction),
		StatusLabel(evt.GetPayloadString(event.PayloadPreviousStatus)),
		StatusLabel(evt.GetPayloadString(event.PayloadNewStatus)))

	if actor := evt.GetPayloadString(event.PayloadActorID); actor != "" {
		fmt.Fprintf(&b, "\nBy: %s (%s)", actor, evt.GetPayloadString(event.PayloadActorRole))
	}
	if remarks := evt.GetPayloadString(event.PayloadRemarks); remarks != "" {
		fmt.Fprintf(&b, "\nRemarks: %s", remarks)
	}
	return b.String()
}

// OverdueMessage formats the chat text for an overdue engagement
func OverdueMessage(evt *event.Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s is overdue", evt.Reference, evt.GetPayloadString(event.PayloadClientName))
	if target, ok := evt.GetPayloadTime(event.PayloadTargetDate); ok {
		fmt.Fprintf(&b, "\nTarget date: %s", target.Format(DocumentDateLayout))
	}
	if status := evt.GetPayloadString(event.PayloadNewStatus); status != "" {
		fmt.Fprintf(&b, "\nStatus: %s", StatusLabel(status))
	}
	return b.String()
}
