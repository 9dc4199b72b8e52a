package port

import "context"

// Notifier delivers a plain-text message to the team channel
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(ctx context.Context, message string) error

// Notify calls f
func (f NotifierFunc) Notify(ctx context.Context, message string) error {
	return f(ctx, message)
}
