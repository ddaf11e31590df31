package service

import (
	"encoding/json"
	"sync"

	"mpersona-be/internal/dto"
)

// Deliverer routes frames to a live connection. A false return means the
// connection is gone and nothing was sent.
type Deliverer interface {
	Deliver(connectionID string, session json.RawMessage, kind dto.ChunkKind, payload interface{}) bool
	Reply(connectionID string, v interface{}) bool
}

// exchange emits the frames of one prompt. Once a terminal frame went out
// every further call is a no-op.
type exchange struct {
	deliverer    Deliverer
	connectionID string
	session      json.RawMessage

	mu         sync.Mutex
	terminated bool
	delivered  int
}

func newExchange(d Deliverer, connectionID string, session json.RawMessage) *exchange {
	return &exchange{
		deliverer:    d,
		connectionID: connectionID,
		session:      session,
	}
}

func (e *exchange) Message(text string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.terminated {
		return false
	}
	e.delivered++
	return e.deliverer.Deliver(e.connectionID, e.session, dto.KindMessage, text)
}

func (e *exchange) End() bool {
	return e.terminate(dto.KindEOM, nil)
}

func (e *exchange) Fail(payload interface{}) bool {
	return e.terminate(dto.KindError, payload)
}

func (e *exchange) Terminated() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.terminated
}

// Delivered counts message frames handed to the connection.
func (e *exchange) Delivered() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.delivered
}

func (e *exchange) terminate(kind dto.ChunkKind, payload interface{}) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.terminated {
		return false
	}
	e.terminated = true
	return e.deliverer.Deliver(e.connectionID, e.session, kind, payload)
}
