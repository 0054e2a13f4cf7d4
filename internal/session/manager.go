// ABOUTME: Connection Manager: socket lifecycle, auth handshake, resume cursor,
// ABOUTME: outbound queueing and the fixed-delay reconnect loop.

package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/2389/agentwire/internal/auth"
	"github.com/2389/agentwire/internal/errtrack"
	"github.com/2389/agentwire/internal/protocol"
)

// wsErrorKey is the stable de-duplication key for the sticky transport error.
const wsErrorKey = "ws"

// defaultReconnectDelay is the fixed retry interval: constant delay,
// unbounded retries, no backoff.
const defaultReconnectDelay = 3 * time.Second

// ErrNotConnected is returned by Send when the connection is fully down and
// no reconnect is pending. Callers surface it to the user instead of
// swallowing it.
var ErrNotConnected = errors.New("not connected to agent backend")

// Status is the connection lifecycle phase.
type Status string

const (
	StatusDisconnected Status = "disconnected"
	StatusConnecting   Status = "connecting"
	StatusOpen         Status = "open"
	StatusClosing      Status = "closing"
)

// FrameHandler consumes inbound frames in arrival order. The Manager calls
// it synchronously from the read loop, so handlers must not block on the
// Manager's own Send path.
type FrameHandler interface {
	HandleFrame(data []byte)
}

// Options configures a Manager. The Manager is explicitly constructed and
// dependency-injected rather than a package-level singleton, so tests build
// independent instances.
type Options struct {
	// BaseURL is the backend origin, e.g. "wss://agent.example.com".
	BaseURL string
	// SocketPath is appended to BaseURL; defaults to "/events/socket".
	SocketPath string
	// ConversationID identifies the conversation to attach to.
	ConversationID string
	// Tokens supplies the bearer token embedded in the socket URL.
	Tokens auth.TokenSource
	// Dialer opens sockets; defaults to WebSocketDialer.
	Dialer Dialer
	// Handler receives inbound frames. Required.
	Handler FrameHandler
	// InitPayload returns the current agent configuration for the handshake
	// frame sent on every open.
	InitPayload func() map[string]any
	// ReconnectDelay overrides the fixed reconnect delay.
	ReconnectDelay time.Duration
	// Errors is the sticky error surface; the Manager reports under key "ws".
	Errors *errtrack.Surface
	Logger *slog.Logger
}

// Manager owns the single logical connection. All mutation is serialized
// through one mutex; socket reads run on a per-connection goroutine whose
// results are discarded once the connection generation moves on.
type Manager struct {
	baseURL        string
	socketPath     string
	conversationID string
	tokens         auth.TokenSource
	dialer         Dialer
	handler        FrameHandler
	initPayload    func() map[string]any
	reconnectDelay time.Duration
	errors         *errtrack.Surface
	logger         *slog.Logger
	lifecycle      *lifecycleHub
	queue          *Queue

	mu               sync.Mutex
	status           Status
	conn             Conn
	closing          bool
	gen              int
	lastEventID      int64
	reconnectTimer   *time.Timer
	reconnectPending bool
}

// NewManager builds a Manager from Options.
func NewManager(opts Options) *Manager {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "session")

	dialer := opts.Dialer
	if dialer == nil {
		dialer = WebSocketDialer{}
	}
	socketPath := opts.SocketPath
	if socketPath == "" {
		socketPath = "/events/socket"
	}
	delay := opts.ReconnectDelay
	if delay == 0 {
		delay = defaultReconnectDelay
	}
	errs := opts.Errors
	if errs == nil {
		errs = errtrack.NewSurface(logger)
	}
	tokens := opts.Tokens
	if tokens == nil {
		tokens = auth.NewStaticTokenSource("")
	}
	initPayload := opts.InitPayload
	if initPayload == nil {
		initPayload = func() map[string]any { return map[string]any{} }
	}

	return &Manager{
		baseURL:        opts.BaseURL,
		socketPath:     socketPath,
		conversationID: opts.ConversationID,
		tokens:         tokens,
		dialer:         dialer,
		handler:        opts.Handler,
		initPayload:    initPayload,
		reconnectDelay: delay,
		errors:         errs,
		logger:         logger,
		lifecycle:      newLifecycleHub(logger),
		queue:          NewQueue(),
		status:         StatusDisconnected,
	}
}

// Status returns the current lifecycle phase.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Backlog returns the number of outbound frames waiting for the next open.
func (m *Manager) Backlog() int {
	return m.queue.Len()
}

// MarkDelivered advances the resume cursor. Called by the dispatcher after a
// frame with an event id has been processed.
func (m *Manager) MarkDelivered(eventID int64) {
	m.mu.Lock()
	if eventID > m.lastEventID {
		m.lastEventID = eventID
	}
	m.mu.Unlock()
}

// ResumeCursor returns the last delivered event id, 0 if none.
func (m *Manager) ResumeCursor() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastEventID
}

// SetResumeCursor seeds the cursor before the first connect, e.g. from a
// persisted history log.
func (m *Manager) SetResumeCursor(eventID int64) {
	m.mu.Lock()
	if eventID > m.lastEventID {
		m.lastEventID = eventID
	}
	m.mu.Unlock()
}

// Subscribe registers for lifecycle events (open, closed, reconnecting).
func (m *Manager) Subscribe() (<-chan Event, string) {
	return m.lifecycle.subscribe()
}

// Unsubscribe removes a lifecycle subscription.
func (m *Manager) Unsubscribe(id string) {
	m.lifecycle.unsubscribe(id)
}

// Connect establishes the socket. No-op if already open or connecting. Any
// existing socket is torn down first so at most one live socket exists.
// Auth failure is returned as an error wrapping auth.ErrAuth.
func (m *Manager) Connect(ctx context.Context) error {
	m.mu.Lock()
	if m.status == StatusOpen || m.status == StatusConnecting {
		m.mu.Unlock()
		return nil
	}

	// Replace any lingering socket and cancel a pending reconnect; this
	// call owns the connection now.
	if m.conn != nil {
		m.conn.Close()
		m.conn = nil
	}
	if m.reconnectTimer != nil {
		m.reconnectTimer.Stop()
		m.reconnectTimer = nil
	}
	m.reconnectPending = false
	m.closing = false
	m.status = StatusConnecting
	m.gen++
	gen := m.gen
	cursor := m.lastEventID
	m.mu.Unlock()

	token, err := m.tokens.Token(ctx)
	if err != nil && !errors.Is(err, auth.ErrNoEndpoint) {
		m.connectFailed(gen)
		return fmt.Errorf("acquiring session token: %w", err)
	}

	target, err := m.buildURL(token, cursor)
	if err != nil {
		m.connectFailed(gen)
		return err
	}

	conn, err := m.dialer.Dial(ctx, target)
	if err != nil {
		m.connectFailed(gen)
		m.errors.Track(wsErrorKey, "connection to agent backend failed")
		return fmt.Errorf("opening socket: %w", err)
	}

	m.mu.Lock()
	if m.gen != gen || m.closing {
		// Disconnected (or replaced) while dialing; discard the socket.
		m.mu.Unlock()
		conn.Close()
		return nil
	}
	m.conn = conn
	// Status stays connecting through the handshake, so concurrent Sends
	// keep queueing instead of writing ahead of the init frame.
	m.mu.Unlock()

	if err := m.sendInit(ctx, conn); err != nil {
		m.logger.Warn("handshake failed", "error", err)
		conn.Close()
		m.connectFailed(gen)
		return err
	}

	m.mu.Lock()
	if m.gen != gen {
		m.mu.Unlock()
		conn.Close()
		return nil
	}
	if m.closing {
		// Disconnected during the handshake; the read loop never started,
		// so finish the close transition here.
		m.conn = nil
		m.status = StatusDisconnected
		m.mu.Unlock()
		conn.Close()
		m.lifecycle.publish(Event{Kind: EventClosed})
		return nil
	}
	// Drain the backlog, including anything queued while the init frame was
	// in flight, before Sends are allowed to write directly. Holding the
	// mutex here serializes racing Sends behind the flush.
	if err := m.queue.Flush(func(d []byte) error {
		return conn.Write(ctx, d)
	}); err != nil {
		m.mu.Unlock()
		m.logger.Warn("handshake failed", "error", err)
		conn.Close()
		m.connectFailed(gen)
		return fmt.Errorf("flushing outbound queue: %w", err)
	}
	m.status = StatusOpen
	m.mu.Unlock()

	m.errors.Resolve(wsErrorKey)
	m.lifecycle.publish(Event{Kind: EventOpen})
	m.logger.Debug("socket open", "resume_cursor", cursor)

	go m.readLoop(gen, conn)
	return nil
}

// sendInit sends the init action with the current settings. It is the first
// frame on every open; the queue flush and the open notification follow it.
func (m *Manager) sendInit(ctx context.Context, conn Conn) error {
	init := protocol.NewInitAction(m.initPayload())
	data, err := init.Encode()
	if err != nil {
		return err
	}
	if err := conn.Write(ctx, data); err != nil {
		return fmt.Errorf("sending init action: %w", err)
	}
	return nil
}

// connectFailed rolls the status back after a failed attempt, unless the
// Manager has moved on to a newer connection.
func (m *Manager) connectFailed(gen int) {
	m.mu.Lock()
	if m.gen == gen && m.status == StatusConnecting {
		m.status = StatusDisconnected
	}
	m.mu.Unlock()
}

// buildURL embeds the bearer token and, when resuming, the last delivered
// event id as query parameters.
func (m *Manager) buildURL(token string, cursor int64) (string, error) {
	u, err := url.Parse(m.baseURL)
	if err != nil {
		return "", fmt.Errorf("parsing base url: %w", err)
	}
	u.Path = m.socketPath

	q := u.Query()
	if m.conversationID != "" {
		q.Set("conversation_id", m.conversationID)
	}
	if token != "" {
		q.Set("token", token)
	}
	if cursor > 0 {
		q.Set("latest_event_id", strconv.FormatInt(cursor, 10))
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// readLoop consumes frames until the socket fails, then routes the close
// into either a clean shutdown or the reconnect path.
func (m *Manager) readLoop(gen int, conn Conn) {
	ctx := context.Background()
	for {
		data, err := conn.Read(ctx)
		if err != nil {
			m.handleClose(gen, err)
			return
		}
		if m.handler != nil {
			m.handler.HandleFrame(data)
		}
	}
}

// handleClose distinguishes caller-initiated closes from transport failures.
// Only the latter schedules a reconnect.
func (m *Manager) handleClose(gen int, cause error) {
	m.mu.Lock()
	if m.gen != gen {
		// A newer connection has already replaced this one.
		m.mu.Unlock()
		return
	}
	m.conn = nil
	intentional := m.closing
	m.status = StatusDisconnected
	m.mu.Unlock()

	if intentional {
		m.logger.Debug("socket closed by client")
		m.lifecycle.publish(Event{Kind: EventClosed})
		return
	}

	m.logger.Warn("socket closed unexpectedly", "error", cause)
	m.errors.Track(wsErrorKey, "connection to agent backend lost")
	m.lifecycle.publish(Event{Kind: EventReconnecting})
	m.scheduleReconnect()
}

// scheduleReconnect arms the constant-delay reconnect timer. Exactly one
// timer is pending at a time; retries are unbounded until Disconnect.
func (m *Manager) scheduleReconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closing || m.reconnectPending {
		return
	}
	m.reconnectPending = true
	m.reconnectTimer = time.AfterFunc(m.reconnectDelay, m.reconnectNow)
}

func (m *Manager) reconnectNow() {
	m.mu.Lock()
	m.reconnectPending = false
	m.reconnectTimer = nil
	closing := m.closing
	m.mu.Unlock()

	if closing {
		return
	}
	if err := m.Connect(context.Background()); err != nil {
		m.logger.Warn("reconnect attempt failed", "error", err)
		m.scheduleReconnect()
	}
}

// Send transmits an outbound message. While connecting (or while a
// reconnect is pending) the message is queued in submission order instead of
// dropped. When the connection is fully down with no reconnect pending,
// ErrNotConnected is returned for the caller to surface.
func (m *Manager) Send(msg protocol.OutboundMessage) error {
	data, err := msg.Encode()
	if err != nil {
		return err
	}

	m.mu.Lock()
	switch {
	case m.status == StatusOpen:
		conn := m.conn
		m.mu.Unlock()
		if err := conn.Write(context.Background(), data); err != nil {
			return fmt.Errorf("sending message: %w", err)
		}
		return nil
	case m.status == StatusConnecting, m.reconnectPending:
		m.queue.Enqueue(data)
		m.mu.Unlock()
		return nil
	default:
		m.mu.Unlock()
		return ErrNotConnected
	}
}

// Disconnect marks the connection as intentionally closing and tears down
// the socket. This is the sole cancellation primitive: it suppresses the
// reconnect loop until the next Connect.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	m.closing = true
	if m.reconnectTimer != nil {
		m.reconnectTimer.Stop()
		m.reconnectTimer = nil
	}
	m.reconnectPending = false
	conn := m.conn
	if conn != nil {
		m.status = StatusClosing
	} else {
		m.status = StatusDisconnected
	}
	m.mu.Unlock()

	if conn != nil {
		// The read loop observes the failure and finishes the transition to
		// disconnected, publishing the closed event.
		conn.Close()
	}
}

// Close releases the Manager's resources after a Disconnect.
func (m *Manager) Close() {
	m.Disconnect()
	m.lifecycle.close()
}
