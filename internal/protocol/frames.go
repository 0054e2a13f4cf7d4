// ABOUTME: Inbound frame variants and the tagged-union decoder.
// ABOUTME: Classifies raw JSON frames by discriminator precedence: token > action > status > observation.

package protocol

import (
	"encoding/json"
	"fmt"
)

// Frame is the closed set of inbound frame variants. Exactly one concrete
// type is produced per wire frame.
type Frame interface {
	frame()
}

// TokenFrame rotates the session credential. It never propagates past the
// dispatcher's credential update.
type TokenFrame struct {
	Token string `json:"token"`
}

// ActionFrame describes an operation the agent is performing or requesting
// confirmation for.
type ActionFrame struct {
	ID        int64      `json:"id"`
	Source    string     `json:"source"`
	Action    ActionType `json:"action"`
	Message   string     `json:"message"`
	Timestamp string     `json:"timestamp"`
	Args      ActionArgs `json:"args"`
}

// ActionArgs carries the per-action payload. Fields are a union across all
// action types; unused fields are zero.
type ActionArgs struct {
	Command           string            `json:"command,omitempty"`
	Code              string            `json:"code,omitempty"`
	Content           string            `json:"content,omitempty"`
	Path              string            `json:"path,omitempty"`
	URL               string            `json:"url,omitempty"`
	Thought           string            `json:"thought,omitempty"`
	Hidden            bool              `json:"hidden,omitempty"`
	ConfirmationState ConfirmationState `json:"confirmation_state,omitempty"`
	SecurityRisk      SecurityRisk      `json:"security_risk,omitempty"`
}

// StatusFrame is an out-of-band informational or error frame not tied to a
// specific action/observation.
type StatusFrame struct {
	StatusUpdate      bool       `json:"status_update"`
	Type              StatusType `json:"type"`
	ID                string     `json:"id,omitempty"`
	ConversationTitle string     `json:"conversation_title,omitempty"`
	Message           string     `json:"message"`
}

// ObservationFrame describes the result of a prior action or an out-of-band
// state change.
type ObservationFrame struct {
	ID          int64             `json:"id"`
	Cause       int64             `json:"cause,omitempty"`
	Source      string            `json:"source"`
	Observation ObservationType   `json:"observation"`
	Content     string            `json:"content"`
	Message     string            `json:"message"`
	Extras      ObservationExtras `json:"extras"`
}

// ObservationExtras carries per-observation metadata.
type ObservationExtras struct {
	Command    string     `json:"command,omitempty"`
	Path       string     `json:"path,omitempty"`
	URL        string     `json:"url,omitempty"`
	Screenshot string     `json:"screenshot,omitempty"`
	AgentState AgentState `json:"agent_state,omitempty"`
	ErrorID    string     `json:"error_id,omitempty"`
}

func (TokenFrame) frame()       {}
func (ActionFrame) frame()      {}
func (StatusFrame) frame()      {}
func (ObservationFrame) frame() {}

// probe holds only the discriminator fields, so classification never depends
// on the rest of the frame parsing cleanly.
type probe struct {
	Token        *string `json:"token"`
	Action       *string `json:"action"`
	StatusUpdate *bool   `json:"status_update"`
}

// Decode classifies a raw frame and unmarshals it into its variant.
// A JSON syntax error is returned to the caller, which is expected to log
// and drop the frame; it must never tear down the connection.
func Decode(data []byte) (Frame, error) {
	var p probe
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decoding frame: %w", err)
	}

	switch {
	case p.Token != nil:
		var f TokenFrame
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("decoding token frame: %w", err)
		}
		return f, nil
	case p.Action != nil:
		var f ActionFrame
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("decoding action frame: %w", err)
		}
		return f, nil
	case p.StatusUpdate != nil:
		var f StatusFrame
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("decoding status frame: %w", err)
		}
		return f, nil
	default:
		var f ObservationFrame
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("decoding observation frame: %w", err)
		}
		return f, nil
	}
}
