// ABOUTME: Tests for notification gating and target-state selection.

package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/2389/agentwire/internal/protocol"
)

type recorder struct {
	calls []string
}

func (r *recorder) Notify(title, body string) error {
	r.calls = append(r.calls, title)
	return nil
}

func TestService_FiresOnTargetStates(t *testing.T) {
	rec := &recorder{}
	svc := NewService(rec, Policy{Enabled: true, Permitted: true}, nil)

	svc.AgentStateChanged(protocol.AgentAwaitingUserInput)
	svc.AgentStateChanged(protocol.AgentFinished)

	assert.Equal(t, []string{"Agent is waiting", "Task finished"}, rec.calls)
}

func TestService_SilentOnOtherStates(t *testing.T) {
	rec := &recorder{}
	svc := NewService(rec, Policy{Enabled: true, Permitted: true}, nil)

	svc.AgentStateChanged(protocol.AgentRunning)
	svc.AgentStateChanged(protocol.AgentError)
	svc.AgentStateChanged(protocol.AgentStopped)

	assert.Empty(t, rec.calls)
}

func TestService_PolicyGates(t *testing.T) {
	tests := []struct {
		name   string
		policy Policy
	}{
		{"not opted in", Policy{Enabled: false, Permitted: true}},
		{"permission denied", Policy{Enabled: true, Permitted: false}},
		{"both off", Policy{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			svc := NewService(rec, tt.policy, nil)
			svc.AgentStateChanged(protocol.AgentFinished)
			assert.Empty(t, rec.calls)
		})
	}
}

func TestService_NilNotifierIsSafe(t *testing.T) {
	svc := NewService(nil, Policy{Enabled: true, Permitted: true}, nil)
	assert.NotPanics(t, func() {
		svc.AgentStateChanged(protocol.AgentFinished)
	})
}

func TestService_SetPolicyTakesEffect(t *testing.T) {
	rec := &recorder{}
	svc := NewService(rec, Policy{}, nil)

	svc.AgentStateChanged(protocol.AgentFinished)
	assert.Empty(t, rec.calls)

	svc.SetPolicy(Policy{Enabled: true, Permitted: true})
	svc.AgentStateChanged(protocol.AgentFinished)
	assert.Len(t, rec.calls, 1)
}
