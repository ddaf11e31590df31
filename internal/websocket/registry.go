package websocket

import (
	"encoding/json"
	"sync"

	"mpersona-be/internal/dto"
	"mpersona-be/internal/pkg/logger"
	"mpersona-be/internal/pkg/metrics"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// Registry tracks live connections by connection id. The lock only guards
// the map; frames are handed to each client's buffered channel and written
// by that client's own goroutine.
type Registry struct {
	clients map[string]*Client
	mu      sync.RWMutex

	logger  logger.ILogger
	metrics *metrics.BrokerMetrics
}

func NewRegistry(log logger.ILogger, m *metrics.BrokerMetrics) *Registry {
	return &Registry{
		clients: make(map[string]*Client),
		logger:  log,
		metrics: m,
	}
}

// Register assigns the client a fresh connection id and tracks it.
func (r *Registry) Register(c *Client) string {
	c.ID = uuid.NewString()

	r.mu.Lock()
	r.clients[c.ID] = c
	r.mu.Unlock()

	r.metrics.ConnectionOpened()
	r.logger.Info("Registry", "Connection registered", map[string]interface{}{"connection_id": c.ID})
	return c.ID
}

// Unregister forgets the connection and stops its writer. Unknown ids are ignored.
func (r *Registry) Unregister(connectionID string) {
	r.mu.Lock()
	c, ok := r.clients[connectionID]
	if ok {
		delete(r.clients, connectionID)
	}
	r.mu.Unlock()

	if !ok {
		return
	}

	c.close()
	r.metrics.ConnectionClosed()
	r.logger.Info("Registry", "Connection unregistered", map[string]interface{}{"connection_id": connectionID})
}

// Deliver sends one frame for a session. A missing, closed or congested
// connection turns it into a logged no-op; it never blocks.
func (r *Registry) Deliver(connectionID string, session json.RawMessage, kind dto.ChunkKind, payload interface{}) bool {
	data, err := json.Marshal(dto.Frame{Session: session, Type: kind, Message: payload})
	if err != nil {
		r.logger.Error("Registry", "Failed to encode frame", map[string]interface{}{"connection_id": connectionID, "error": err.Error()})
		return false
	}

	if !r.send(connectionID, data) {
		return false
	}
	r.metrics.ChunkDelivered(string(kind))
	return true
}

// Reply sends a raw message outside any session (handshake, protocol errors).
func (r *Registry) Reply(connectionID string, v interface{}) bool {
	data, err := json.Marshal(v)
	if err != nil {
		return false
	}
	return r.send(connectionID, data)
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

func (r *Registry) send(connectionID string, data []byte) bool {
	r.mu.RLock()
	c, ok := r.clients[connectionID]
	r.mu.RUnlock()

	if !ok {
		r.metrics.DeliveryMissed()
		r.logger.Warn("Registry", "No open connection for id", map[string]interface{}{"connection_id": connectionID})
		return false
	}

	sent, congested := c.enqueue(data)
	if sent {
		return true
	}

	r.metrics.DeliveryMissed()
	if congested {
		// slow consumers are disconnected
		r.logger.Warn("Registry", "Send buffer full, closing connection", map[string]interface{}{"connection_id": connectionID})
		r.Unregister(connectionID)
	}
	return false
}

// ServeWs registers the connection, sends the handshake and runs its pumps
// until the peer goes away. It returns only after both pumps have stopped:
// the caller recycles conn as soon as this returns.
func ServeWs(r *Registry, conn *websocket.Conn, onMessage MessageHandler) {
	client := NewClient(conn)
	id := r.Register(client)
	r.Reply(id, dto.Handshake{UUID: id})

	go client.writePump(r.logger)
	client.readPump(r, onMessage)
	<-client.done
}
