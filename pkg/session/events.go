package session

import "sync"

// Event names match the session event stream the client observes.
type Event string

const (
	InitialSession Event = "INITIAL_SESSION"
	SignedIn       Event = "SIGNED_IN"
	SignedOut      Event = "SIGNED_OUT"
	TokenRefreshed Event = "TOKEN_REFRESHED"
)

// Change is one session state transition.
type Change struct {
	Event  Event
	UserID string
}

// Handler receives session changes.
type Handler func(Change)

// Broadcaster fans session changes out to registered handlers. Handlers run
// synchronously on the emitting goroutine.
type Broadcaster struct {
	mu       sync.Mutex
	handlers map[int]Handler
	next     int
}

// NewBroadcaster initializes an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{handlers: make(map[int]Handler)}
}

// OnChange registers a handler and returns its unsubscribe function.
// Callers must unsubscribe on teardown; once unsubscribe returns, no new
// emit will invoke the handler.
func (b *Broadcaster) OnChange(handler Handler) (unsubscribe func()) {
	b.mu.Lock()
	id := b.next
	b.next++
	b.handlers[id] = handler
	b.mu.Unlock()
	return func() {
		b.mu.Lock()
		delete(b.handlers, id)
		b.mu.Unlock()
	}
}

// Emit delivers a change to every registered handler.
func (b *Broadcaster) Emit(change Change) {
	b.mu.Lock()
	handlers := make([]Handler, 0, len(b.handlers))
	for _, h := range b.handlers {
		handlers = append(handlers, h)
	}
	b.mu.Unlock()
	for _, h := range handlers {
		h(change)
	}
}
