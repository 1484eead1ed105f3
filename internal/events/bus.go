// Package events is a small named-event bus used by the page lifecycle to
// announce milestones such as "eds/lcp" to rendering components.
package events

import (
	"log/slog"
	"sync"
)

// LCP is emitted once the largest-content block of the page is ready.
const LCP = "eds/lcp"

// Handler receives an event payload.
type Handler func(payload any)

type subscription struct {
	id      int
	handler Handler
}

// Bus dispatches named events to subscribers. Handlers run synchronously on
// the emitting goroutine.
type Bus struct {
	mu     sync.Mutex
	nextID int
	subs   map[string][]subscription
	last   map[string]any
	counts map[string]int
	logger *slog.Logger
}

// NewBus creates an empty Bus. A nil logger uses slog.Default().
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		subs:   make(map[string][]subscription),
		last:   make(map[string]any),
		counts: make(map[string]int),
		logger: logger,
	}
}

// On subscribes h to name and returns a function that unsubscribes it.
// With eager set, h is called immediately with the last payload emitted for
// name, if there was one.
func (b *Bus) On(name string, h Handler, eager bool) (off func()) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs[name] = append(b.subs[name], subscription{id: id, handler: h})
	last, seen := b.last[name]
	b.mu.Unlock()

	if eager && seen {
		b.call(name, h, last)
	}

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.subs[name]
		for i, s := range subs {
			if s.id == id {
				b.subs[name] = append(subs[:i:i], subs[i+1:]...)
				return
			}
		}
	}
}

// Emit records payload as the latest value of name and calls every handler.
func (b *Bus) Emit(name string, payload any) {
	b.mu.Lock()
	b.last[name] = payload
	b.counts[name]++
	subs := append([]subscription(nil), b.subs[name]...)
	b.mu.Unlock()

	b.logger.Debug("event emitted", "event", name, "subscribers", len(subs))
	for _, s := range subs {
		b.call(name, s.handler, payload)
	}
}

// call runs h and keeps a panicking subscriber from taking down the emitter.
func (b *Bus) call(name string, h Handler, payload any) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked", "event", name, "panic", r)
		}
	}()
	h(payload)
}

// Last returns the latest payload emitted for name.
func (b *Bus) Last(name string) (any, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.last[name]
	return v, ok
}

// Count returns how many times name was emitted.
func (b *Bus) Count(name string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.counts[name]
}
