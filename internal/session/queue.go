// ABOUTME: Outbound FIFO queue for commands issued before the socket is open.
// ABOUTME: Guarantees neither drops nor reordering across the open transition.

package session

import "sync"

// Queue buffers encoded outbound frames while the connection is not yet
// open. Enqueue appends; Flush drains and transmits in insertion order.
type Queue struct {
	mu    sync.Mutex
	items [][]byte
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Enqueue appends a frame to the tail.
func (q *Queue) Enqueue(data []byte) {
	q.mu.Lock()
	q.items = append(q.items, data)
	q.mu.Unlock()
}

// Len returns the current backlog size.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Flush drains the queue, transmitting each frame in insertion order.
// A no-op when empty. If send fails, the failed frame and everything behind
// it are kept at the front so a later flush preserves order.
func (q *Queue) Flush(send func(data []byte) error) error {
	q.mu.Lock()
	pending := q.items
	q.items = nil
	q.mu.Unlock()

	for i, data := range pending {
		if err := send(data); err != nil {
			q.mu.Lock()
			q.items = append(pending[i:], q.items...)
			q.mu.Unlock()
			return err
		}
	}
	return nil
}
