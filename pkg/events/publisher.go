package events

import "context"

// EventPublisher is the interface for publishing request events.
type EventPublisher interface {
	PublishDispatched(ctx context.Context, event *DispatchedEvent) error
	PublishUploaded(ctx context.Context, event *UploadedEvent) error
}

// NoOpPublisher is an EventPublisher that does nothing (for in-process usage without events).
type NoOpPublisher struct{}

// PublishDispatched is a no-op.
func (p *NoOpPublisher) PublishDispatched(_ context.Context, _ *DispatchedEvent) error {
	return nil
}

// PublishUploaded is a no-op.
func (p *NoOpPublisher) PublishUploaded(_ context.Context, _ *UploadedEvent) error {
	return nil
}

// CallbackPublisher is an EventPublisher that calls callback functions (for testing).
// A nil callback drops the matching events.
type CallbackPublisher struct {
	OnDispatched func(ctx context.Context, event *DispatchedEvent) error
	OnUploaded   func(ctx context.Context, event *UploadedEvent) error
}

// PublishDispatched calls OnDispatched.
func (p *CallbackPublisher) PublishDispatched(ctx context.Context, event *DispatchedEvent) error {
	if p.OnDispatched == nil {
		return nil
	}
	return p.OnDispatched(ctx, event)
}

// PublishUploaded calls OnUploaded.
func (p *CallbackPublisher) PublishUploaded(ctx context.Context, event *UploadedEvent) error {
	if p.OnUploaded == nil {
		return nil
	}
	return p.OnUploaded(ctx, event)
}
