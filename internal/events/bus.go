package events

import (
	"fmt"
	"sync"
)

// Handler receives published events
type Handler func(Event)

// Bus is a thread-safe in-process event bus. Handlers are invoked
// synchronously by Publish and on a separate goroutine by PublishAsync.
type Bus struct {
	mu          sync.RWMutex
	handlers    map[Type]map[string]Handler
	allHandlers map[string]Handler
	nextID      int
}

// NewBus creates an empty bus
func NewBus() *Bus {
	return &Bus{
		handlers:    make(map[Type]map[string]Handler),
		allHandlers: make(map[string]Handler),
	}
}

// Subscribe registers a handler for one event type and returns a
// subscription ID usable with Unsubscribe.
func (b *Bus) Subscribe(t Type, h Handler) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.newID()
	if b.handlers[t] == nil {
		b.handlers[t] = make(map[string]Handler)
	}
	b.handlers[t][id] = h
	return id
}

// SubscribeAll registers a handler for every event type.
func (b *Bus) SubscribeAll(h Handler) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.newID()
	b.allHandlers[id] = h
	return id
}

// Unsubscribe removes a subscription. Unknown IDs are ignored.
func (b *Bus) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.allHandlers, id)
	for _, m := range b.handlers {
		delete(m, id)
	}
}

// HasSubscribers reports whether any handler would receive events of type t.
func (b *Bus) HasSubscribers(t Type) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if len(b.allHandlers) > 0 {
		return true
	}
	return len(b.handlers[t]) > 0
}

// Publish delivers a typed event synchronously to all matching handlers.
func (b *Bus) Publish(e Eventer) {
	b.PublishRaw(e.ToEvent())
}

// PublishRaw delivers a raw event synchronously to all matching handlers.
func (b *Bus) PublishRaw(event Event) {
	for _, h := range b.snapshot(event.Type) {
		h(event)
	}
}

// PublishAsync delivers an event on a separate goroutine. Safe to call
// while holding locks that handlers might also want.
func (b *Bus) PublishAsync(e Eventer) {
	event := e.ToEvent()
	handlers := b.snapshot(event.Type)
	if len(handlers) == 0 {
		return
	}
	go func() {
		for _, h := range handlers {
			h(event)
		}
	}()
}

// Clear removes all subscriptions.
func (b *Bus) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers = make(map[Type]map[string]Handler)
	b.allHandlers = make(map[string]Handler)
}

// snapshot copies the handlers for a type so delivery happens outside the lock.
func (b *Bus) snapshot(t Type) []Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()

	handlers := make([]Handler, 0, len(b.handlers[t])+len(b.allHandlers))
	for _, h := range b.handlers[t] {
		handlers = append(handlers, h)
	}
	for _, h := range b.allHandlers {
		handlers = append(handlers, h)
	}
	return handlers
}

// newID must be called with the lock held.
func (b *Bus) newID() string {
	b.nextID++
	return fmt.Sprintf("sub-%d", b.nextID)
}
