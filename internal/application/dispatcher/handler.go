package dispatcher

import (
	"context"

	"github.com/garyjia/engagement-tracker/internal/domain/event"
)

// Handler processes domain events
type Handler func(ctx context.Context, evt *event.Event) error

// HandlerInfo describes a registered handler
type HandlerInfo struct {
	Name      string
	EventType event.Type
	Handler   Handler
}

// anyType is the subscription key used by SubscribeAll
const anyType event.Type = "*"
