package websocket

import (
	"context"
	"sync"
	"time"

	"mpersona-be/internal/pkg/logger"

	"github.com/gofiber/websocket/v2"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 20
	sendBuffer     = 256
)

// MessageHandler receives every inbound text frame. It must not block for
// long: it runs on the connection's read goroutine.
type MessageHandler func(ctx context.Context, connectionID string, data []byte)

// Client is a middleman between the websocket connection and the registry.
type Client struct {
	ID   string
	Conn *websocket.Conn

	// Buffered channel of outbound messages.
	Send chan []byte

	ctx    context.Context
	cancel context.CancelFunc

	// closed by writePump once it no longer touches Conn
	done chan struct{}

	mu     sync.Mutex
	closed bool
}

func NewClient(conn *websocket.Conn) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		Conn:   conn,
		Send:   make(chan []byte, sendBuffer),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

// Context is cancelled when the connection closes.
func (c *Client) Context() context.Context {
	return c.ctx
}

// enqueue never blocks. It reports false when the client is closed or its buffer is full.
func (c *Client) enqueue(data []byte) (sent bool, congested bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false, false
	}

	select {
	case c.Send <- data:
		return true, false
	default:
		return false, true
	}
}

// close is idempotent.
func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.Send)
	c.cancel()
}

// readPump pumps messages from the websocket connection to the handler.
func (c *Client) readPump(r *Registry, onMessage MessageHandler) {
	defer func() {
		r.Unregister(c.ID)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		msgType, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				r.logger.Warn("Registry", "Connection closed unexpectedly", map[string]interface{}{"connection_id": c.ID, "error": err.Error()})
			}
			return
		}
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))

		if msgType != websocket.TextMessage && msgType != websocket.BinaryMessage {
			continue
		}
		onMessage(c.ctx, c.ID, data)
	}
}

// writePump pumps messages from the registry to the websocket connection.
// Each queued frame is written as its own websocket message.
func (c *Client) writePump(log logger.ILogger) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
		close(c.done)
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The registry closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Warn("Registry", "Write failed", map[string]interface{}{"connection_id": c.ID, "error": err.Error()})
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
