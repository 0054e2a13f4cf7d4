// ABOUTME: Transport abstraction over the WebSocket, so the Manager is testable
// ABOUTME: with fakes. Production implementation wraps coder/websocket.

package session

import (
	"context"
	"fmt"

	"github.com/coder/websocket"
)

// Conn is a single live socket. One JSON object per text frame, no batching.
type Conn interface {
	// Read blocks until the next frame arrives or the connection fails.
	Read(ctx context.Context) ([]byte, error)
	// Write transmits one text frame.
	Write(ctx context.Context, data []byte) error
	// Close tears the socket down.
	Close() error
}

// Dialer opens a Conn to the given URL.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// WebSocketDialer is the production Dialer.
type WebSocketDialer struct{}

// Dial opens a WebSocket to the backend.
func (WebSocketDialer) Dial(ctx context.Context, url string) (Conn, error) {
	ws, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", url, err)
	}
	return &wsConn{ws: ws}, nil
}

type wsConn struct {
	ws *websocket.Conn
}

func (c *wsConn) Read(ctx context.Context) ([]byte, error) {
	for {
		typ, data, err := c.ws.Read(ctx)
		if err != nil {
			return nil, err
		}
		// The wire contract is UTF-8 JSON text frames; anything else is
		// ignored rather than treated as an error.
		if typ != websocket.MessageText {
			continue
		}
		return data, nil
	}
}

func (c *wsConn) Write(ctx context.Context, data []byte) error {
	return c.ws.Write(ctx, websocket.MessageText, data)
}

func (c *wsConn) Close() error {
	return c.ws.Close(websocket.StatusNormalClosure, "client disconnect")
}
