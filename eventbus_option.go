package assistant

import "github.com/shophub-ai/assistant/internal/eventbus"

// WithEventBus sets the event bus component.
func WithEventBus(bus eventbus.EventBus) Option {
	return func(a *Assistant) {
		a.eventBus = bus
	}
}
