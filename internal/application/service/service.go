package service

import (
	"context"
	"errors"

	"github.com/garyjia/engagement-tracker/internal/domain/event"
	"github.com/garyjia/engagement-tracker/internal/domain/workflow"
)

// ErrInvalidEngagement is returned when engagement input fails validation
var ErrInvalidEngagement = errors.New("invalid engagement")

// ErrInvalidTemplate is returned when a document template fails validation
var ErrInvalidTemplate = errors.New("invalid document template")

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Publisher delivers domain events after a change is committed
type Publisher interface {
	Dispatch(ctx context.Context, evt *event.Event) error
}

// Transition outcomes reported to MetricsRecorder
const (
	OutcomeSuccess          = "success"
	OutcomePermissionDenied = "permission_denied"
	OutcomeRemarksMissing   = "remarks_missing"
	OutcomeConflict         = "conflict"
	OutcomeError            = "error"
)

// MetricsRecorder receives counters from the services
type MetricsRecorder interface {
	RecordTransition(action, outcome string)
	RecordRender(template string, unresolved int)
	RecordOverdue()
	RecordNotification(sent bool)
}

type noopMetrics struct{}

func (noopMetrics) RecordTransition(string, string) {}
func (noopMetrics) RecordRender(string, int)        {}
func (noopMetrics) RecordOverdue()                  {}
func (noopMetrics) RecordNotification(bool)         {}

// Actor identifies who performs a change. The role is asserted by the caller and not verified here.
type Actor struct {
	ID   string
	Role workflow.Role
}

// publish dispatches evt and logs a failure without returning it; the change is already committed
func publish(ctx context.Context, publisher Publisher, logger Logger, evt *event.Event) {
	if publisher == nil {
		return
	}
	if err := publisher.Dispatch(ctx, evt); err != nil {
		logger.Error("Failed to publish event",
			"event_type", evt.Type,
			"reference", evt.Reference,
			"error", err)
	}
}
