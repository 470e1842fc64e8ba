package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocket adapts a websocket connection to the Conn contract, one binary
// message per byte sequence. The caller establishes the connection (dial or
// upgrade) and decides the roles; by convention the dialing side is the
// Initiator.
type WebSocket struct {
	role    Role
	conn    *websocket.Conn
	done    chan struct{}
	once    sync.Once
	writeMu sync.Mutex
}

var _ Conn = (*WebSocket)(nil)

// NewWebSocket wraps an established websocket connection.
func NewWebSocket(conn *websocket.Conn, role Role) *WebSocket {
	return &WebSocket{
		role: role,
		conn: conn,
		done: make(chan struct{}),
	}
}

// Dial connects to a websocket endpoint and returns the Initiator end.
func Dial(ctx context.Context, url string) (*WebSocket, error) {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("websocket dial %q: %w", url, err)
	}
	return NewWebSocket(conn, Initiator), nil
}

var acceptUpgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// Accept upgrades an incoming HTTP request and returns the Responder end.
func Accept(w http.ResponseWriter, r *http.Request) (*WebSocket, error) {
	conn, err := acceptUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket accept: %w", err)
	}
	return NewWebSocket(conn, Responder), nil
}

// Role implements Conn.
func (w *WebSocket) Role() Role { return w.role }

// Send implements Conn. A context deadline is applied as the write deadline.
func (w *WebSocket) Send(ctx context.Context, p []byte) error {
	if w.IsClosed() {
		return nil
	}
	w.writeMu.Lock()
	defer w.writeMu.Unlock()
	deadline, _ := ctx.Deadline()
	if err := w.conn.SetWriteDeadline(deadline); err != nil {
		return fmt.Errorf("websocket send: %w", err)
	}
	err := w.conn.WriteMessage(websocket.BinaryMessage, p)
	if err != nil {
		if w.IsClosed() {
			return nil
		}
		return fmt.Errorf("websocket send: %w", err)
	}
	return nil
}

// Recv implements Conn. A context deadline is applied as the read deadline;
// a closed connection (either side) surfaces as io.EOF.
func (w *WebSocket) Recv(ctx context.Context) ([]byte, error) {
	if w.IsClosed() {
		return nil, io.EOF
	}
	deadline, _ := ctx.Deadline()
	if err := w.conn.SetReadDeadline(deadline); err != nil {
		return nil, fmt.Errorf("websocket recv: %w", err)
	}
	for {
		typ, p, err := w.conn.ReadMessage()
		if err != nil {
			if w.IsClosed() || errors.Is(err, net.ErrClosed) || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil, io.EOF
			}
			return nil, fmt.Errorf("websocket recv: %w", err)
		}
		if typ != websocket.BinaryMessage {
			continue
		}
		return p, nil
	}
}

// Close implements Conn. It attempts a clean closing handshake before
// tearing down the underlying connection.
func (w *WebSocket) Close() error {
	w.once.Do(func() {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		w.writeMu.Lock()
		_ = w.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		w.writeMu.Unlock()
		close(w.done)
		_ = w.conn.Close()
	})
	return nil
}

// IsClosed implements Conn.
func (w *WebSocket) IsClosed() bool {
	select {
	case <-w.done:
		return true
	default:
		return false
	}
}
