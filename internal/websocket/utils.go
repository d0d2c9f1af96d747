package websocket

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	PingPeriod = pongWait * 9 / 10
)

// Conn serialises writes to a gorilla connection, which allows only one
// concurrent writer.
type Conn struct {
	*websocket.Conn
	mu sync.Mutex
}

// Wrap prepares conn for a long-lived push stream: the read deadline is
// extended on every pong.
func Wrap(conn *websocket.Conn) *Conn {
	conn.SetReadLimit(4096)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	return &Conn{Conn: conn}
}

// WriteTyped sends a strongly-typed response payload over the WebSocket.
func (c *Conn) WriteTyped(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.SetWriteDeadline(time.Now().Add(writeWait))
	return c.WriteJSON(v)
}

// WriteError sends a typed ErrorResponse over the WebSocket.
func (c *Conn) WriteError(errMsg string) error {
	return c.WriteTyped(ErrorResponse{Event: EventError, Error: errMsg})
}

// Ping sends a control ping.
func (c *Conn) Ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

// CloseWith sends a close frame carrying code and reason, then closes the
// underlying connection.
func (c *Conn) CloseWith(code int, reason string) error {
	c.mu.Lock()
	_ = c.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), time.Now().Add(writeWait))
	c.mu.Unlock()
	return c.Close()
}
