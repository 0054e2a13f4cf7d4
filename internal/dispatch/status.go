// ABOUTME: Status frame handling: title cache invalidation, the single
// ABOUTME: informational status slot, and error forwarding to the reporter.

package dispatch

import "github.com/2389/agentwire/internal/protocol"

func (d *Dispatcher) handleStatus(f protocol.StatusFrame) {
	switch {
	case f.Type == protocol.StatusError:
		if d.reporter != nil {
			meta := map[string]string{}
			if f.ID != "" {
				meta["status_id"] = f.ID
			}
			d.reporter.Report(f.Message, statusErrorSource, meta)
		}
	case f.ConversationTitle != "" && f.ID != "":
		// A title update is a targeted cache invalidation for that one
		// conversation, not a banner.
		if d.conversations != nil {
			d.conversations.InvalidateTitle(f.ID)
		}
	default:
		// Plain informational status overwrites the single current slot.
		d.state.SetCurrentStatus(f.Message)
	}
}
