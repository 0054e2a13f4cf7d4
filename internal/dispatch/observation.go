// ABOUTME: Observation frame handling: terminal truncation, browser updates,
// ABOUTME: agent state transitions with notifications, once-only error recording.

package dispatch

import (
	"fmt"

	"github.com/2389/agentwire/internal/protocol"
	"github.com/2389/agentwire/internal/state"
)

func (d *Dispatcher) handleObservation(f protocol.ObservationFrame) {
	switch f.Observation {
	case protocol.ObservationRun:
		d.state.AppendTerminal(truncateContent(f.Content, d.terminalCeiling))
	case protocol.ObservationRunIPython:
		// Jupyter output is intentionally not clipped; only "run" output has
		// the truncation rule.
		d.state.AppendJupyter(state.JupyterCell{Kind: "output", Content: f.Content})
	case protocol.ObservationRead, protocol.ObservationWrite, protocol.ObservationEdit:
		d.state.SetCode(f.Extras.Path, f.Content)
	case protocol.ObservationBrowse:
		d.state.SetBrowser(f.Extras.URL, f.Extras.Screenshot)
	case protocol.ObservationStateChanged:
		next := f.Extras.AgentState
		d.state.SetAgentState(next)
		if d.notify != nil {
			d.notify.AgentStateChanged(next)
		}
	case protocol.ObservationError:
		// One error event produces exactly one UI entry: a transcript error
		// cell. It is not additionally forwarded to the sticky error surface.
		text := f.Message
		if text == "" {
			text = f.Content
		}
		d.state.AppendCell(state.Cell{
			Kind:    state.CellError,
			Source:  f.Source,
			Text:    text,
			EventID: f.ID,
		})
	case protocol.ObservationNull:
		// Keep-alive; nothing to project.
	default:
		d.logger.Debug("unhandled observation type", "observation", string(f.Observation))
	}
}

// truncateContent clips content beyond the ceiling, in characters, appending
// a marker with the clipped count. Content at or under the ceiling passes
// through unchanged.
func truncateContent(content string, ceiling int) string {
	if ceiling <= 0 {
		return content
	}
	runes := []rune(content)
	if len(runes) <= ceiling {
		return content
	}
	clipped := len(runes) - ceiling
	return string(runes[:ceiling]) + fmt.Sprintf("... (truncated %d characters) ...", clipped)
}
