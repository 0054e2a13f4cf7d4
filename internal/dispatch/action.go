// ABOUTME: Action frame handling: per-type registry, hidden suppression,
// ABOUTME: awaiting-confirmation previews, security-risk annotation.

package dispatch

import (
	"github.com/2389/agentwire/internal/protocol"
	"github.com/2389/agentwire/internal/state"
)

// handleAction applies an agent action to UI state.
//
// Risk annotation is cross-cutting: it runs before the hidden check, so a
// hidden action still records its assessed risk. Actions awaiting
// confirmation short-circuit into a preview cell; their normal handler does
// not additionally run.
func (d *Dispatcher) handleAction(f protocol.ActionFrame) {
	if f.Args.SecurityRisk != protocol.RiskUnknown {
		d.state.SetRisk(f.ID, f.Args.SecurityRisk)
	}

	if f.Args.Hidden {
		return
	}

	if f.Args.ConfirmationState == protocol.ConfirmationAwaiting {
		d.state.AppendCell(state.Cell{
			Kind:    state.CellConfirmation,
			Source:  f.Source,
			Text:    f.Args.SecurityRisk.Display(),
			Command: pendingPayload(f),
			Risk:    f.Args.SecurityRisk,
			EventID: f.ID,
		})
		return
	}

	handler, ok := d.actions[f.Action]
	if !ok {
		d.logger.Debug("unhandled action type", "action", string(f.Action))
		return
	}
	handler(f)
}

// pendingPayload picks the command or code a confirmation preview shows.
func pendingPayload(f protocol.ActionFrame) string {
	if f.Args.Command != "" {
		return f.Args.Command
	}
	return f.Args.Code
}

func (d *Dispatcher) actionHandlers() map[protocol.ActionType]func(protocol.ActionFrame) {
	return map[protocol.ActionType]func(protocol.ActionFrame){
		protocol.ActionMessage:        d.actionMessage,
		protocol.ActionRun:            d.actionRun,
		protocol.ActionRunIPython:     d.actionRunIPython,
		protocol.ActionRead:           d.actionFile,
		protocol.ActionWrite:          d.actionFile,
		protocol.ActionEdit:           d.actionFile,
		protocol.ActionBrowse:         d.actionBrowse,
		protocol.ActionBrowseInteract: d.actionBrowse,
		protocol.ActionThink:          d.actionThink,
		protocol.ActionFinish:         d.actionFinish,
		protocol.ActionReject:         d.actionReject,
		// State changes are applied from agent_state_changed observations;
		// the action itself carries no UI effect.
		protocol.ActionChangeAgentState: func(protocol.ActionFrame) {},
	}
}

func (d *Dispatcher) actionMessage(f protocol.ActionFrame) {
	text := f.Args.Content
	if text == "" {
		text = f.Message
	}
	d.state.AppendCell(state.Cell{
		Kind:    state.CellMessage,
		Source:  f.Source,
		Text:    text,
		EventID: f.ID,
	})
}

func (d *Dispatcher) actionRun(f protocol.ActionFrame) {
	d.state.AppendTerminal("$ " + f.Args.Command)
}

func (d *Dispatcher) actionRunIPython(f protocol.ActionFrame) {
	d.state.AppendJupyter(state.JupyterCell{Kind: "input", Content: f.Args.Code})
}

func (d *Dispatcher) actionFile(f protocol.ActionFrame) {
	content := f.Args.Content
	if content == "" {
		content = f.Args.Code
	}
	d.state.SetCode(f.Args.Path, content)
}

func (d *Dispatcher) actionBrowse(f protocol.ActionFrame) {
	d.state.AppendCell(state.Cell{
		Kind:    state.CellMessage,
		Source:  f.Source,
		Text:    "Browsing " + f.Args.URL,
		EventID: f.ID,
	})
}

func (d *Dispatcher) actionThink(f protocol.ActionFrame) {
	d.state.AppendCell(state.Cell{
		Kind:    state.CellThought,
		Source:  f.Source,
		Text:    f.Args.Thought,
		EventID: f.ID,
	})
}

func (d *Dispatcher) actionFinish(f protocol.ActionFrame) {
	text := f.Args.Thought
	if text == "" {
		text = f.Message
	}
	d.state.AppendCell(state.Cell{
		Kind:    state.CellFinish,
		Source:  f.Source,
		Text:    text,
		EventID: f.ID,
	})
}

func (d *Dispatcher) actionReject(f protocol.ActionFrame) {
	d.state.AppendCell(state.Cell{
		Kind:    state.CellMessage,
		Source:  f.Source,
		Text:    f.Message,
		EventID: f.ID,
	})
}
