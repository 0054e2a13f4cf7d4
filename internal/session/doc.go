// Package session owns the single logical WebSocket connection to the agent
// backend: lifecycle, authentication handshake, the outbound FIFO queue, and
// the fixed-delay reconnect loop with resume cursor.
//
// # Lifecycle
//
// A Manager moves through disconnected -> connecting -> open -> closing.
// At most one live socket exists per Manager; a new connect attempt first
// tears down any existing socket. On open the Manager sends the init action
// carrying current agent configuration, flushes queued outbound messages in
// FIFO order, and only then notifies open subscribers.
//
// # Reconnect
//
// A close that was not caller-initiated schedules a reconnect after a fixed
// delay (default 3s). Constant delay, unbounded retries, no backoff, no
// jitter. Reconnection embeds the last delivered event id so the backend
// resumes the stream instead of replaying from scratch. Disconnect sets the
// closing flag, which suppresses the loop.
package session
