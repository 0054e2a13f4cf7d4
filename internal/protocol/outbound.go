// ABOUTME: Outbound message construction and encoding.
// ABOUTME: Covers the init handshake action and user-issued command actions.

package protocol

import (
	"encoding/json"
	"fmt"
)

// OutboundMessage is a pending user or control command headed to the backend.
// It is created when the UI issues a command, queued while the connection is
// not open, and discarded once transmitted. It is never retried
// automatically; retry semantics for business actions belong to the caller.
type OutboundMessage struct {
	Action ActionType     `json:"action"`
	Args   map[string]any `json:"args,omitempty"`
}

// Encode serializes the message as a single JSON text frame.
func (m OutboundMessage) Encode() ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encoding outbound message: %w", err)
	}
	return data, nil
}

// NewInitAction builds the handshake frame sent immediately on socket open.
// The settings map is the full current agent configuration.
func NewInitAction(settings map[string]any) OutboundMessage {
	return OutboundMessage{Action: ActionInit, Args: settings}
}

// NewMessageAction builds a plain user chat message.
func NewMessageAction(content string) OutboundMessage {
	return OutboundMessage{Action: ActionMessage, Args: map[string]any{"content": content}}
}

// NewRunAction builds a terminal command request.
func NewRunAction(command string) OutboundMessage {
	return OutboundMessage{Action: ActionRun, Args: map[string]any{"command": command}}
}

// NewStateChangeAction asks the backend to move the agent to a new state
// (pause, resume, stop).
func NewStateChangeAction(state AgentState) OutboundMessage {
	return OutboundMessage{Action: ActionChangeAgentState, Args: map[string]any{"agent_state": string(state)}}
}

// NewConfirmationAction answers a pending awaiting-confirmation action. The
// wire form is a state-change request to user_confirmed or user_rejected.
func NewConfirmationAction(accept bool) OutboundMessage {
	state := AgentUserRejected
	if accept {
		state = AgentUserConfirmed
	}
	return NewStateChangeAction(state)
}
