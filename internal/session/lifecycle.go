// ABOUTME: Typed fan-out of connection lifecycle events to subscribers.
// ABOUTME: Open, closed and reconnecting notifications with deterministic teardown.

package session

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// EventKind tags a lifecycle transition.
type EventKind string

const (
	EventOpen         EventKind = "open"
	EventClosed       EventKind = "closed"
	EventReconnecting EventKind = "reconnecting"
)

// Event is a lifecycle notification.
type Event struct {
	Kind EventKind
}

// lifecycleHub fans lifecycle events out to subscribers. Delivery is
// non-blocking; a full subscriber channel drops the event.
type lifecycleHub struct {
	mu          sync.RWMutex
	subscribers map[string]chan Event
	logger      *slog.Logger
}

func newLifecycleHub(logger *slog.Logger) *lifecycleHub {
	return &lifecycleHub{
		subscribers: make(map[string]chan Event),
		logger:      logger,
	}
}

func (h *lifecycleHub) subscribe() (<-chan Event, string) {
	id := uuid.New().String()
	ch := make(chan Event, 16)

	h.mu.Lock()
	h.subscribers[id] = ch
	h.mu.Unlock()

	return ch, id
}

func (h *lifecycleHub) unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch, ok := h.subscribers[id]
	if !ok {
		return
	}
	delete(h.subscribers, id)
	close(ch)
}

func (h *lifecycleHub) publish(e Event) {
	// Sends are non-blocking, so holding the read lock for the whole loop is
	// safe and prevents racing a concurrent close of a subscriber channel.
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, ch := range h.subscribers {
		select {
		case ch <- e:
		default:
			h.logger.Debug("dropped lifecycle event for slow subscriber", "kind", string(e.Kind))
		}
	}
}

func (h *lifecycleHub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, ch := range h.subscribers {
		close(ch)
		delete(h.subscribers, id)
	}
}
