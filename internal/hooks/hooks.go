// Package hooks provides an injected event bus for analysis lifecycle
// callbacks. A Bus is passed by reference into the engine and CLI call sites,
// so multiple engines in one process never cross-trigger each other's hooks.
package hooks

import "sync"

// Event identifies an analysis lifecycle event.
type Event string

const (
	BeforeAnalysis   Event = "before_analysis"
	AfterAnalysis    Event = "after_analysis"
	OnDuplicateFound Event = "on_duplicate_found"
	OnSubsetFound    Event = "on_subset_found"
	OnSimilarFound   Event = "on_similar_found"
	OnError          Event = "on_error"
	OnGateFail       Event = "on_gate_fail"
	OnWorkerFallback Event = "on_worker_fallback"
)

// Context carries the event payload to handlers.
type Context struct {
	Event Event
	Data  any
}

// Handler receives an event. Handlers run synchronously on the triggering
// goroutine, in registration order.
type Handler func(Context)

// Bus is a per-instance hook registry.
type Bus struct {
	mu       sync.RWMutex
	handlers map[Event][]Handler
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{handlers: make(map[Event][]Handler)}
}

// Register adds a handler for an event.
func (b *Bus) Register(ev Event, h Handler) {
	b.mu.Lock()
	b.handlers[ev] = append(b.handlers[ev], h)
	b.mu.Unlock()
}

// Trigger invokes all handlers registered for an event. A nil bus is a no-op,
// so callers can trigger unconditionally.
func (b *Bus) Trigger(ev Event, data any) {
	if b == nil {
		return
	}
	b.mu.RLock()
	hs := b.handlers[ev]
	b.mu.RUnlock()
	for _, h := range hs {
		h(Context{Event: ev, Data: data})
	}
}

// Clear removes every registered handler.
func (b *Bus) Clear() {
	b.mu.Lock()
	b.handlers = make(map[Event][]Handler)
	b.mu.Unlock()
}

// Count returns the number of handlers registered for an event.
func (b *Bus) Count(ev Event) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[ev])
}
