// Package event dispatches domain events to in-process handlers and
// forwards them to Kafka.
package event

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/erp/procurement/internal/domain/shared"
	"go.uber.org/zap"
)

// ErrBusClosed is returned when publishing to a closed bus
var ErrBusClosed = errors.New("event bus is closed")

// InMemoryEventBus delivers events synchronously to subscribed handlers.
// Every handler sees every event even when an earlier one fails; the
// failures are returned joined.
type InMemoryEventBus struct {
	registry *HandlerRegistry
	logger   *zap.Logger
	closed   atomic.Bool
}

// NewInMemoryEventBus creates a new in-memory event bus
func NewInMemoryEventBus(logger *zap.Logger) *InMemoryEventBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InMemoryEventBus{
		registry: NewHandlerRegistry(),
		logger:   logger,
	}
}

// Publish dispatches events in order to their handlers
func (b *InMemoryEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	if b.closed.Load() {
		return ErrBusClosed
	}

	var errs []error
	for _, event := range events {
		for _, handler := range b.registry.GetHandlers(event.EventType()) {
			if err := b.dispatch(ctx, handler, event); err != nil {
				b.logger.Error("Event handler failed",
					zap.String("event_type", event.EventType()),
					zap.String("event_id", event.EventID().String()),
					zap.Error(err),
				)
				errs = append(errs, fmt.Errorf("%s: %w", event.EventType(), err))
			}
		}
	}
	return errors.Join(errs...)
}

// Subscribe registers a handler. Without explicit event types the
// handler's own EventTypes are used; an empty list means all events.
func (b *InMemoryEventBus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}
	b.registry.Register(handler, eventTypes...)
	b.logger.Debug("Event handler subscribed", zap.Strings("event_types", eventTypes))
}

// Unsubscribe removes a handler
func (b *InMemoryEventBus) Unsubscribe(handler shared.EventHandler) {
	b.registry.Unregister(handler)
}

// Close stops accepting events. Handlers owning resources are closed by their owners.
func (b *InMemoryEventBus) Close() error {
	b.closed.Store(true)
	return nil
}

func (b *InMemoryEventBus) dispatch(ctx context.Context, handler shared.EventHandler, event shared.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return handler.Handle(ctx, event)
}

var _ shared.EventBus = (*InMemoryEventBus)(nil)
