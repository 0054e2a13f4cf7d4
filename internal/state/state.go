// ABOUTME: UI-visible state containers fed by the dispatcher's projection.
// ABOUTME: Transcript, terminal, jupyter, browser pane, agent state, status slot, history buffer.

package state

import (
	"log/slog"
	"sync"

	"github.com/2389/agentwire/internal/protocol"
)

// CellKind categorizes transcript entries for rendering.
type CellKind string

const (
	CellMessage      CellKind = "message"
	CellThought      CellKind = "thought"
	CellConfirmation CellKind = "confirmation"
	CellError        CellKind = "error"
	CellFinish       CellKind = "finish"
)

// Cell is one chat transcript entry.
type Cell struct {
	Kind    CellKind
	Source  string // "user", "agent"
	Text    string
	Command string // set for confirmation previews
	Risk    protocol.SecurityRisk
	EventID int64
}

// JupyterCell is one entry in the notebook pane, either submitted code or
// its output.
type JupyterCell struct {
	Kind    string // "input" or "output"
	Content string
}

// Browser is the last-known interactive browsing state.
type Browser struct {
	URL        string
	Screenshot string
}

// CodeView is the most recently read or written file.
type CodeView struct {
	Path    string
	Content string
}

// Store holds all state the view layer renders from. Only the dispatcher
// mutates it; views take read snapshots and subscribe for change
// notifications. The history buffer is append-only and unbounded for the
// lifetime of the process.
type Store struct {
	mu sync.RWMutex

	transcript    []Cell
	terminal      []string
	jupyter       []JupyterCell
	code          CodeView
	browser       Browser
	agentState    protocol.AgentState
	currentStatus string
	risks         map[int64]protocol.SecurityRisk
	history       []protocol.Frame

	watch  *watcher
	logger *slog.Logger
}

// NewStore creates an empty state store. Pass nil logger for default.
func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		risks:  make(map[int64]protocol.SecurityRisk),
		watch:  newWatcher(logger),
		logger: logger.With("component", "state"),
	}
}

// RecordFrame appends an inbound frame to the history buffer, preserving
// arrival order permanently.
func (s *Store) RecordFrame(f protocol.Frame) {
	s.mu.Lock()
	s.history = append(s.history, f)
	s.mu.Unlock()
}

// History returns a copy of the full inbound frame history in arrival order.
func (s *Store) History() []protocol.Frame {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]protocol.Frame, len(s.history))
	copy(out, s.history)
	return out
}

// AppendCell adds a transcript entry.
func (s *Store) AppendCell(c Cell) {
	s.mu.Lock()
	s.transcript = append(s.transcript, c)
	s.mu.Unlock()
	s.watch.publish(Update{Kind: UpdateTranscript, Cell: &c})
}

// Transcript returns a copy of the chat transcript.
func (s *Store) Transcript() []Cell {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Cell, len(s.transcript))
	copy(out, s.transcript)
	return out
}

// AppendTerminal adds a line group to the terminal pane.
func (s *Store) AppendTerminal(content string) {
	s.mu.Lock()
	s.terminal = append(s.terminal, content)
	s.mu.Unlock()
	s.watch.publish(Update{Kind: UpdateTerminal, Text: content})
}

// Terminal returns a copy of the terminal buffer.
func (s *Store) Terminal() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.terminal))
	copy(out, s.terminal)
	return out
}

// AppendJupyter adds a notebook cell.
func (s *Store) AppendJupyter(c JupyterCell) {
	s.mu.Lock()
	s.jupyter = append(s.jupyter, c)
	s.mu.Unlock()
	s.watch.publish(Update{Kind: UpdateJupyter, Text: c.Content})
}

// Jupyter returns a copy of the notebook pane.
func (s *Store) Jupyter() []JupyterCell {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]JupyterCell, len(s.jupyter))
	copy(out, s.jupyter)
	return out
}

// SetCode updates the code viewer with a file's path and content.
func (s *Store) SetCode(path, content string) {
	s.mu.Lock()
	s.code = CodeView{Path: path, Content: content}
	s.mu.Unlock()
	s.watch.publish(Update{Kind: UpdateCode, Text: path})
}

// Code returns the current code viewer state.
func (s *Store) Code() CodeView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.code
}

// SetBrowser updates the last-known URL and screenshot.
func (s *Store) SetBrowser(url, screenshot string) {
	s.mu.Lock()
	s.browser = Browser{URL: url, Screenshot: screenshot}
	s.mu.Unlock()
	s.watch.publish(Update{Kind: UpdateBrowser, Text: url})
}

// BrowserState returns the current browser pane state.
func (s *Store) BrowserState() Browser {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.browser
}

// SetAgentState records the agent's new lifecycle state. Unexpected
// transitions are logged but never rejected; the backend is authoritative.
func (s *Store) SetAgentState(next protocol.AgentState) {
	s.mu.Lock()
	prev := s.agentState
	s.agentState = next
	s.mu.Unlock()

	if !protocol.ValidTransition(prev, next) {
		s.logger.Warn("unexpected agent state transition", "from", string(prev), "to", string(next))
	}
	s.watch.publish(Update{Kind: UpdateAgentState, Text: string(next)})
}

// AgentState returns the current agent lifecycle state.
func (s *Store) AgentState() protocol.AgentState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.agentState
}

// SetCurrentStatus overwrites the single informational status slot.
func (s *Store) SetCurrentStatus(message string) {
	s.mu.Lock()
	s.currentStatus = message
	s.mu.Unlock()
	s.watch.publish(Update{Kind: UpdateStatus, Text: message})
}

// CurrentStatus returns the informational status slot.
func (s *Store) CurrentStatus() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentStatus
}

// SetRisk records the assessed risk for an action event id. This runs even
// for hidden actions.
func (s *Store) SetRisk(eventID int64, risk protocol.SecurityRisk) {
	s.mu.Lock()
	s.risks[eventID] = risk
	s.mu.Unlock()
}

// Risk returns the recorded risk for an event id, if any.
func (s *Store) Risk(eventID int64) (protocol.SecurityRisk, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.risks[eventID]
	return r, ok
}

// Watch subscribes to state updates. See watcher for delivery semantics.
func (s *Store) Watch() (<-chan Update, string) {
	return s.watch.subscribe()
}

// Unwatch removes a subscription created by Watch.
func (s *Store) Unwatch(id string) {
	s.watch.unsubscribe(id)
}

// Close shuts down the watcher and closes all subscriber channels.
func (s *Store) Close() {
	s.watch.close()
}
