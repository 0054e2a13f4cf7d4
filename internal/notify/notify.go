// ABOUTME: Desktop notification policy and delivery for agent state transitions.
// ABOUTME: Fires only on awaiting-user-input and finished when the user opted in.

package notify

import (
	"log/slog"
	"sync"

	"github.com/2389/agentwire/internal/protocol"
)

// Notifier delivers an out-of-band notification to the user.
type Notifier interface {
	Notify(title, body string) error
}

// Policy gates notification delivery. Enabled is the user's opt-in;
// Permitted mirrors the platform-level permission grant.
type Policy struct {
	Enabled   bool
	Permitted bool
}

// Service decides when a state transition warrants a notification and
// delivers it through the configured Notifier.
type Service struct {
	mu       sync.RWMutex
	notifier Notifier
	policy   Policy
	logger   *slog.Logger
}

// NewService creates a notification service. A nil notifier disables
// delivery regardless of policy.
func NewService(n Notifier, policy Policy, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		notifier: n,
		policy:   policy,
		logger:   logger.With("component", "notify"),
	}
}

// SetPolicy updates the gating policy at runtime (settings changes).
func (s *Service) SetPolicy(p Policy) {
	s.mu.Lock()
	s.policy = p
	s.mu.Unlock()
}

// AgentStateChanged fires a notification for the specific target states that
// warrant pulling the user back to the tab.
func (s *Service) AgentStateChanged(st protocol.AgentState) {
	s.mu.RLock()
	notifier := s.notifier
	policy := s.policy
	s.mu.RUnlock()

	if notifier == nil || !policy.Enabled || !policy.Permitted {
		return
	}

	var title, body string
	switch st {
	case protocol.AgentAwaitingUserInput:
		title = "Agent is waiting"
		body = "The agent needs your input to continue."
	case protocol.AgentFinished:
		title = "Task finished"
		body = "The agent has completed its task."
	default:
		return
	}

	if err := notifier.Notify(title, body); err != nil {
		s.logger.Warn("notification delivery failed", "state", string(st), "error", err)
	}
}
