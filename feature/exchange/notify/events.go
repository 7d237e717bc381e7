package notify

import (
	"context"
	"sync"

	"edi-exchange/feature/exchange/models"

	"go.uber.org/zap"
)

// Event is emitted when a record reaches a state or receives an acknowledgement.
type Event struct {
	// Name follows on_edi_{type_code}_{state}[_{suffix}].
	Name string
	// Record is a snapshot taken when the event fired.
	Record *models.Record
}

// Handler reacts to an event.
type Handler func(ctx context.Context, ev Event) error

// Emitter fires named events for a record.
type Emitter interface {
	Fire(ctx context.Context, name string, rec *models.Record)
}

// Bus dispatches events synchronously to the handlers subscribed to their name.
// Handler errors are logged and never reach the caller.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	any      []Handler
	logger   *zap.Logger
}

// NewBus creates an empty bus.
func NewBus(logger *zap.Logger) *Bus {
	return &Bus{handlers: make(map[string][]Handler), logger: logger}
}

// Subscribe registers h for events named name.
func (b *Bus) Subscribe(name string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[name] = append(b.handlers[name], h)
}

// SubscribeAll registers h for every event.
func (b *Bus) SubscribeAll(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.any = append(b.any, h)
}

// Fire calls the subscribed handlers in registration order, catch-all handlers last.
func (b *Bus) Fire(ctx context.Context, name string, rec *models.Record) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.handlers[name])+len(b.any))
	handlers = append(handlers, b.handlers[name]...)
	handlers = append(handlers, b.any...)
	b.mu.RUnlock()

	b.logger.Debug("Event fired", zap.String("event", name), zap.Uint("record_id", rec.ID))
	if len(handlers) == 0 {
		return
	}

	ev := Event{Name: name, Record: rec.Clone()}
	for _, h := range handlers {
		if err := h(ctx, ev); err != nil {
			b.logger.Error("Event handler failed",
				zap.String("event", name),
				zap.Uint("record_id", rec.ID),
				zap.Error(err))
		}
	}
}
