// ABOUTME: Tests for frame classification and decoding.
// ABOUTME: Covers discriminator precedence, variant payloads, malformed input.

package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_TokenFrame(t *testing.T) {
	f, err := Decode([]byte(`{"token":"abc123"}`))
	require.NoError(t, err)

	tok, ok := f.(TokenFrame)
	require.True(t, ok, "expected TokenFrame, got %T", f)
	assert.Equal(t, "abc123", tok.Token)
}

func TestDecode_ActionFrame(t *testing.T) {
	raw := `{"id":7,"source":"agent","action":"run","args":{"command":"ls -la","confirmation_state":"awaiting_confirmation","security_risk":"HIGH"}}`
	f, err := Decode([]byte(raw))
	require.NoError(t, err)

	act, ok := f.(ActionFrame)
	require.True(t, ok, "expected ActionFrame, got %T", f)
	assert.Equal(t, int64(7), act.ID)
	assert.Equal(t, ActionRun, act.Action)
	assert.Equal(t, "ls -la", act.Args.Command)
	assert.Equal(t, ConfirmationAwaiting, act.Args.ConfirmationState)
	assert.Equal(t, RiskHigh, act.Args.SecurityRisk)
}

func TestDecode_StatusFrame(t *testing.T) {
	raw := `{"status_update":true,"type":"error","id":"conv-1","message":"backend unavailable"}`
	f, err := Decode([]byte(raw))
	require.NoError(t, err)

	st, ok := f.(StatusFrame)
	require.True(t, ok, "expected StatusFrame, got %T", f)
	assert.Equal(t, StatusError, st.Type)
	assert.Equal(t, "conv-1", st.ID)
	assert.Equal(t, "backend unavailable", st.Message)
}

func TestDecode_ObservationFallback(t *testing.T) {
	raw := `{"id":12,"observation":"run","content":"file1\nfile2","extras":{"command":"ls"}}`
	f, err := Decode([]byte(raw))
	require.NoError(t, err)

	obs, ok := f.(ObservationFrame)
	require.True(t, ok, "expected ObservationFrame, got %T", f)
	assert.Equal(t, ObservationRun, obs.Observation)
	assert.Equal(t, "file1\nfile2", obs.Content)
	assert.Equal(t, "ls", obs.Extras.Command)
}

// A frame with no discriminator at all is still an observation.
func TestDecode_EmptyObjectIsObservation(t *testing.T) {
	f, err := Decode([]byte(`{}`))
	require.NoError(t, err)
	_, ok := f.(ObservationFrame)
	assert.True(t, ok, "expected ObservationFrame, got %T", f)
}

// Token wins over action when both are present, so the frame is handled
// exactly once.
func TestDecode_PrecedenceTokenOverAction(t *testing.T) {
	f, err := Decode([]byte(`{"token":"t","action":"run"}`))
	require.NoError(t, err)
	_, ok := f.(TokenFrame)
	assert.True(t, ok, "expected TokenFrame, got %T", f)
}

func TestDecode_PrecedenceActionOverStatus(t *testing.T) {
	f, err := Decode([]byte(`{"action":"message","status_update":true}`))
	require.NoError(t, err)
	_, ok := f.(ActionFrame)
	assert.True(t, ok, "expected ActionFrame, got %T", f)
}

func TestDecode_MalformedJSON(t *testing.T) {
	_, err := Decode([]byte(`{"action":`))
	assert.Error(t, err)
}

func TestDecode_AgentStateExtras(t *testing.T) {
	raw := `{"observation":"agent_state_changed","extras":{"agent_state":"awaiting_user_input"}}`
	f, err := Decode([]byte(raw))
	require.NoError(t, err)

	obs := f.(ObservationFrame)
	assert.Equal(t, AgentAwaitingUserInput, obs.Extras.AgentState)
}

func TestOutboundMessage_Encode(t *testing.T) {
	msg := NewRunAction("echo hi")
	data, err := msg.Encode()
	require.NoError(t, err)
	assert.JSONEq(t, `{"action":"run","args":{"command":"echo hi"}}`, string(data))
}

func TestNewInitAction_CarriesSettings(t *testing.T) {
	msg := NewInitAction(map[string]any{"model": "gpt-4o", "confirmation_mode": true})
	data, err := msg.Encode()
	require.NoError(t, err)
	assert.JSONEq(t, `{"action":"initialize","args":{"model":"gpt-4o","confirmation_mode":true}}`, string(data))
}

func TestNewConfirmationAction(t *testing.T) {
	// Confirmation replies ride the state-change action; the backend resumes
	// or aborts the pending action on user_confirmed / user_rejected.
	accept, err := NewConfirmationAction(true).Encode()
	require.NoError(t, err)
	assert.JSONEq(t, `{"action":"change_agent_state","args":{"agent_state":"user_confirmed"}}`, string(accept))

	reject, err := NewConfirmationAction(false).Encode()
	require.NoError(t, err)
	assert.JSONEq(t, `{"action":"change_agent_state","args":{"agent_state":"user_rejected"}}`, string(reject))
}

func TestSecurityRisk_Display(t *testing.T) {
	tests := []struct {
		risk SecurityRisk
		want string
	}{
		{RiskLow, "Low Risk"},
		{RiskMedium, "Medium Risk"},
		{RiskHigh, "High Risk"},
		{RiskUnknown, "Unknown Risk"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.risk.Display())
	}
}

func TestValidTransition(t *testing.T) {
	assert.True(t, ValidTransition(AgentRunning, AgentAwaitingUserInput))
	assert.True(t, ValidTransition(AgentAwaitingUserInput, AgentRunning))
	assert.True(t, ValidTransition("", AgentInit), "empty from-state accepts anything")
	assert.True(t, ValidTransition(AgentRunning, AgentRunning), "self transition is fine")
	assert.False(t, ValidTransition(AgentFinished, AgentAwaitingUserInput))
}
