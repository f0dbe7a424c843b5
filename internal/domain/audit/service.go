package audit

import "context"

// Sink receives domain events. Publish must not block the caller.
type Sink interface {
	Publish(ctx context.Context, event Event)
}

// Discard drops every event.
type Discard struct{}

func (Discard) Publish(context.Context, Event) {}
