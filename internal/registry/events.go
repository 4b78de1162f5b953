package registry

import "sync"

// EventConnectionError is published when a health sweep fails an entry.
const EventConnectionError = "connectionError"

// Event is one registry notification: either a re-emitted editor event or a
// registry-originated one.
type Event struct {
	Type   string `json:"type"`
	Target string `json:"target"`
	Data   any    `json:"data,omitempty"`
}

// Handler receives one event. Handlers must not block.
type Handler func(Event)

// Broadcaster is the per-registry publish/subscribe hub. One exists per
// registry instance; there is no ambient global emitter.
type Broadcaster struct {
	mu   sync.RWMutex
	subs map[string]map[uint64]Handler
	next uint64
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[string]map[uint64]Handler)}
}

// Subscribe registers a handler for one event type and returns its cancel
// function.
func (b *Broadcaster) Subscribe(eventType string, fn Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.next++
	id := b.next
	if b.subs[eventType] == nil {
		b.subs[eventType] = make(map[uint64]Handler)
	}
	b.subs[eventType][id] = fn
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs[eventType], id)
	}
}

func (b *Broadcaster) publish(evt Event) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs[evt.Type]))
	for _, fn := range b.subs[evt.Type] {
		handlers = append(handlers, fn)
	}
	b.mu.RUnlock()
	for _, fn := range handlers {
		fn(evt)
	}
}
