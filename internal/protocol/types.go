// ABOUTME: Enumerated type tags shared across frames: actions, observations,
// ABOUTME: statuses, confirmation states, security risk levels, agent state.

package protocol

// ActionType tags an ActionFrame with the operation being performed.
type ActionType string

const (
	ActionInit             ActionType = "initialize"
	ActionMessage          ActionType = "message"
	ActionRun              ActionType = "run"
	ActionRunIPython       ActionType = "run_ipython"
	ActionRead             ActionType = "read"
	ActionWrite            ActionType = "write"
	ActionEdit             ActionType = "edit"
	ActionBrowse           ActionType = "browse"
	ActionBrowseInteract   ActionType = "browse_interactive"
	ActionThink            ActionType = "think"
	ActionFinish           ActionType = "finish"
	ActionReject           ActionType = "reject"
	ActionChangeAgentState ActionType = "change_agent_state"
)

// ObservationType tags an ObservationFrame with the kind of result it carries.
type ObservationType string

const (
	ObservationRun          ObservationType = "run"
	ObservationRunIPython   ObservationType = "run_ipython"
	ObservationRead         ObservationType = "read"
	ObservationWrite        ObservationType = "write"
	ObservationEdit         ObservationType = "edit"
	ObservationBrowse       ObservationType = "browse"
	ObservationStateChanged ObservationType = "agent_state_changed"
	ObservationError        ObservationType = "error"
	ObservationNull         ObservationType = "null"
)

// StatusType distinguishes informational status frames from error ones.
type StatusType string

const (
	StatusInfo  StatusType = "info"
	StatusError StatusType = "error"
)

// ConfirmationState tracks whether a risky action is pending user approval.
type ConfirmationState string

const (
	ConfirmationAwaiting  ConfirmationState = "awaiting_confirmation"
	ConfirmationConfirmed ConfirmationState = "confirmed"
	ConfirmationRejected  ConfirmationState = "rejected"
)

// SecurityRisk is the assessed risk level attached to an action by the
// backend's security analyzer.
type SecurityRisk string

const (
	RiskUnknown SecurityRisk = ""
	RiskLow     SecurityRisk = "LOW"
	RiskMedium  SecurityRisk = "MEDIUM"
	RiskHigh    SecurityRisk = "HIGH"
)

// Display returns the human-readable label for a risk level.
func (r SecurityRisk) Display() string {
	switch r {
	case RiskLow:
		return "Low Risk"
	case RiskMedium:
		return "Medium Risk"
	case RiskHigh:
		return "High Risk"
	default:
		return "Unknown Risk"
	}
}

// AgentState is the coarse lifecycle phase of the remote agent, mirrored
// client-side. Updated only by agent_state_changed observations.
type AgentState string

const (
	AgentInit              AgentState = "init"
	AgentLoading           AgentState = "loading"
	AgentRunning           AgentState = "running"
	AgentAwaitingUserInput AgentState = "awaiting_user_input"
	AgentPaused            AgentState = "paused"
	AgentStopped           AgentState = "stopped"
	AgentFinished          AgentState = "finished"
	AgentError             AgentState = "error"

	// Outbound-only states: the client requests them to answer a pending
	// confirmation; the backend never reports them back.
	AgentUserConfirmed AgentState = "user_confirmed"
	AgentUserRejected  AgentState = "user_rejected"
)

// Terminal reports whether the state ends the current task turn.
func (s AgentState) Terminal() bool {
	switch s {
	case AgentFinished, AgentStopped, AgentError:
		return true
	}
	return false
}

// validTransitions is advisory only: the backend is authoritative, the
// client just logs transitions it does not expect.
var validTransitions = map[AgentState][]AgentState{
	AgentInit:              {AgentLoading, AgentRunning, AgentError},
	AgentLoading:           {AgentInit, AgentRunning, AgentError},
	AgentRunning:           {AgentAwaitingUserInput, AgentPaused, AgentStopped, AgentFinished, AgentError},
	AgentAwaitingUserInput: {AgentRunning, AgentStopped, AgentError},
	AgentPaused:            {AgentRunning, AgentStopped, AgentError},
	AgentStopped:           {AgentRunning, AgentInit},
	AgentFinished:          {AgentRunning, AgentInit},
	AgentError:             {AgentRunning, AgentInit, AgentStopped},
}

// ValidTransition reports whether moving from one state to another is
// expected under the backend's lifecycle.
func ValidTransition(from, to AgentState) bool {
	if from == "" || from == to {
		return true
	}
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
