// ABOUTME: Keyed sticky error surface with de-duplication and a central reporter hook.
// ABOUTME: One visible entry per distinct problem, auto-resolved on recovery.

package errtrack

import (
	"log/slog"
	"sync"
	"time"
)

// Entry is a single visible error indicator.
type Entry struct {
	Key       string
	Message   string
	FirstSeen time.Time
}

// Reporter receives error-typed status frames and other escalations for
// centralized tracking (logs, crash reporting, etc).
type Reporter interface {
	Report(message, source string, meta map[string]string)
}

// LogReporter is the default Reporter: it writes to structured logs.
type LogReporter struct {
	Logger *slog.Logger
}

// Report logs the message with its source tag and metadata.
func (r *LogReporter) Report(message, source string, meta map[string]string) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	attrs := []any{"source", source}
	for k, v := range meta {
		attrs = append(attrs, k, v)
	}
	logger.Error(message, attrs...)
}

// Surface tracks sticky, de-duplicated user-facing errors. A second Track
// with the same key while one is already showing never creates a second
// entry; Resolve removes the entry once the underlying problem recovers.
type Surface struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	order   []string
	logger  *slog.Logger
}

// NewSurface creates an empty error surface. Pass nil logger for default.
func NewSurface(logger *slog.Logger) *Surface {
	if logger == nil {
		logger = slog.Default()
	}
	return &Surface{
		entries: make(map[string]*Entry),
		logger:  logger.With("component", "errtrack"),
	}
}

// Track records an error under a stable key. Returns true if a new entry was
// created, false if the key was already showing (duplicate suppressed).
func (s *Surface) Track(key, message string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[key]; ok {
		s.logger.Debug("duplicate error suppressed", "key", key)
		return false
	}

	s.entries[key] = &Entry{Key: key, Message: message, FirstSeen: time.Now()}
	s.order = append(s.order, key)
	s.logger.Warn("error surfaced", "key", key, "message", message)
	return true
}

// Resolve clears the entry for a key. No-op if the key is not showing.
// Returns true if an entry was removed.
func (s *Surface) Resolve(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[key]; !ok {
		return false
	}

	delete(s.entries, key)
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.logger.Debug("error resolved", "key", key)
	return true
}

// Active returns the currently visible entries in the order they first
// appeared.
func (s *Surface) Active() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entry, 0, len(s.order))
	for _, k := range s.order {
		out = append(out, *s.entries[k])
	}
	return out
}

// Showing reports whether an entry for the key is currently visible.
func (s *Surface) Showing(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.entries[key]
	return ok
}
