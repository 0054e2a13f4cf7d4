// ABOUTME: Classifies inbound frames and routes each to exactly one handler family.
// ABOUTME: Precedence: token rotation > action > status > observation.

package dispatch

import (
	"log/slog"

	"github.com/2389/agentwire/internal/errtrack"
	"github.com/2389/agentwire/internal/notify"
	"github.com/2389/agentwire/internal/protocol"
	"github.com/2389/agentwire/internal/state"
)

// DefaultTerminalCeiling is the hard truncation limit for terminal output,
// in characters.
const DefaultTerminalCeiling = 5000

// statusErrorSource is the fixed source tag attached to error-typed status
// frames forwarded to the central reporter.
const statusErrorSource = "chat"

// TokenSink receives rotated session credentials.
type TokenSink interface {
	SetToken(token string)
}

// CursorSink tracks the last delivered event id for stream resumption.
type CursorSink interface {
	MarkDelivered(eventID int64)
}

// ConversationCache invalidates cached conversation metadata when the
// backend announces a title change.
type ConversationCache interface {
	InvalidateTitle(conversationID string)
}

// Options wires the Dispatcher's collaborators.
type Options struct {
	State         *state.Store
	Tokens        TokenSink
	Cursor        CursorSink
	Reporter      errtrack.Reporter
	Notify        *notify.Service
	Conversations ConversationCache
	// TerminalCeiling overrides the truncation limit; defaults to 5000.
	TerminalCeiling int
	Logger          *slog.Logger
}

// Dispatcher turns raw inbound frames into typed state updates. It is the
// only component permitted to mutate the state store.
type Dispatcher struct {
	state           *state.Store
	tokens          TokenSink
	cursor          CursorSink
	reporter        errtrack.Reporter
	notify          *notify.Service
	conversations   ConversationCache
	terminalCeiling int
	logger          *slog.Logger

	actions map[protocol.ActionType]func(protocol.ActionFrame)
}

// New builds a Dispatcher. State is required; every other collaborator may
// be nil, which disables that side effect.
func New(opts Options) *Dispatcher {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ceiling := opts.TerminalCeiling
	if ceiling == 0 {
		ceiling = DefaultTerminalCeiling
	}

	d := &Dispatcher{
		state:           opts.State,
		tokens:          opts.Tokens,
		cursor:          opts.Cursor,
		reporter:        opts.Reporter,
		notify:          opts.Notify,
		conversations:   opts.Conversations,
		terminalCeiling: ceiling,
		logger:          logger.With("component", "dispatch"),
	}
	d.actions = d.actionHandlers()
	return d
}

// HandleFrame decodes and routes one raw frame. Malformed frames are logged
// and dropped; they never crash the dispatcher or the socket.
func (d *Dispatcher) HandleFrame(data []byte) {
	frame, err := protocol.Decode(data)
	if err != nil {
		d.logger.Warn("dropping malformed frame", "error", err)
		return
	}

	d.state.RecordFrame(frame)

	switch f := frame.(type) {
	case protocol.TokenFrame:
		// Credential rotation stops here; it never reaches UI state.
		if d.tokens != nil {
			d.tokens.SetToken(f.Token)
		}
	case protocol.ActionFrame:
		d.markDelivered(f.ID)
		d.handleAction(f)
	case protocol.StatusFrame:
		d.handleStatus(f)
	case protocol.ObservationFrame:
		d.markDelivered(f.ID)
		d.handleObservation(f)
	}
}

func (d *Dispatcher) markDelivered(eventID int64) {
	if d.cursor != nil && eventID > 0 {
		d.cursor.MarkDelivered(eventID)
	}
}
