// ABOUTME: In-memory fan-out of state updates to view subscribers.
// ABOUTME: Non-blocking delivery; slow subscribers drop updates and resync via snapshots.

package state

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

const (
	// subscriberBufferSize is the channel buffer for each subscriber.
	subscriberBufferSize = 64
)

// UpdateKind tags which container changed.
type UpdateKind string

const (
	UpdateTranscript UpdateKind = "transcript"
	UpdateTerminal   UpdateKind = "terminal"
	UpdateJupyter    UpdateKind = "jupyter"
	UpdateCode       UpdateKind = "code"
	UpdateBrowser    UpdateKind = "browser"
	UpdateAgentState UpdateKind = "agent_state"
	UpdateStatus     UpdateKind = "status"
)

// Update is a change notification. It carries enough to render incrementally;
// subscribers that fall behind re-read the store's snapshot accessors.
type Update struct {
	Kind UpdateKind
	Text string
	Cell *Cell
}

// watcher fans out updates to all subscribers. Delivery is non-blocking:
// updates are dropped for subscribers whose channels are full.
type watcher struct {
	mu          sync.RWMutex
	subscribers map[string]chan Update
	logger      *slog.Logger
}

func newWatcher(logger *slog.Logger) *watcher {
	return &watcher{
		subscribers: make(map[string]chan Update),
		logger:      logger.With("component", "state-watch"),
	}
}

func (w *watcher) subscribe() (<-chan Update, string) {
	id := uuid.New().String()
	ch := make(chan Update, subscriberBufferSize)

	w.mu.Lock()
	w.subscribers[id] = ch
	w.mu.Unlock()

	w.logger.Debug("subscriber added", "sub_id", id)
	return ch, id
}

func (w *watcher) unsubscribe(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	ch, ok := w.subscribers[id]
	if !ok {
		return
	}
	delete(w.subscribers, id)
	close(ch)
	w.logger.Debug("subscriber removed", "sub_id", id)
}

func (w *watcher) publish(u Update) {
	// Sends are non-blocking, so holding the read lock for the whole loop is
	// safe and prevents racing a concurrent close of a subscriber channel.
	w.mu.RLock()
	defer w.mu.RUnlock()

	for _, ch := range w.subscribers {
		select {
		case ch <- u:
		default:
			w.logger.Debug("dropped update for slow subscriber", "kind", string(u.Kind))
		}
	}
}

func (w *watcher) close() {
	w.mu.Lock()
	defer w.mu.Unlock()

	for id, ch := range w.subscribers {
		close(ch)
		delete(w.subscribers, id)
	}
}
