package dto

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"mpersona-be/pkg/llm"
)

// Inbound message types
const (
	TypePing   = "ping"
	TypePrompt = "prompt"
)

type ChunkKind string

// Outbound frame kinds
const (
	KindPong    ChunkKind = "pong"
	KindMessage ChunkKind = "message"
	KindEOM     ChunkKind = "EOM"
	KindError   ChunkKind = "ERROR"
)

func (k ChunkKind) Terminal() bool {
	return k == KindEOM || k == KindError
}

// --- Client -> Server ---

// Envelope is one inbound websocket message. UUID is the connection id the
// server issued at handshake.
type Envelope struct {
	UUID                  string          `json:"uuid"`
	Session               json.RawMessage `json:"session,omitempty"`
	Type                  string          `json:"type"`
	Provider              string          `json:"provider,omitempty"`
	Model                 string          `json:"model,omitempty"`
	Temperature           Temperature     `json:"temperature,omitempty"`
	SystemPrompt          string          `json:"systemPrompt,omitempty"`
	UserPrompt            string          `json:"userPrompt,omitempty"`
	MessageHistory        []llm.Message   `json:"messageHistory,omitempty" validate:"omitempty,dive"`
	KnowledgeProfileUuids []string        `json:"knowledgeProfileUuids,omitempty" validate:"omitempty,dive,required"`
	Token                 string          `json:"token,omitempty"`
}

// Temperature accepts a JSON number or a numeric string. Anything else
// leaves it unset.
type Temperature struct {
	Value float64
	Set   bool
}

func (t *Temperature) UnmarshalJSON(data []byte) error {
	*t = Temperature{}

	raw := bytes.TrimSpace(data)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil
		}
		raw = []byte(strings.TrimSpace(s))
	}

	v, err := strconv.ParseFloat(string(raw), 64)
	if err != nil {
		return nil
	}
	*t = Temperature{Value: v, Set: true}
	return nil
}

func (t Temperature) MarshalJSON() ([]byte, error) {
	if !t.Set {
		return []byte("null"), nil
	}
	return json.Marshal(t.Value)
}

// OrDefault returns the parsed value or def when absent or non-numeric.
func (t Temperature) OrDefault(def float64) float64 {
	if !t.Set {
		return def
	}
	return t.Value
}

// --- Server -> Client ---

// Frame is every post-handshake server message.
type Frame struct {
	Session json.RawMessage `json:"session"`
	Type    ChunkKind       `json:"type"`
	Message interface{}     `json:"message"`
}

// Handshake is sent once when a connection opens.
type Handshake struct {
	UUID string `json:"uuid"`
}

// ProtocolError answers envelopes that never reach a session.
type ProtocolError struct {
	Message string `json:"message"`
}

// ErrorPayload is serialized into the message field of ERROR frames.
type ErrorPayload struct {
	Message    string `json:"message"`
	Status     int    `json:"status,omitempty"`
	StatusText string `json:"statusText,omitempty"`
}

func (p ErrorPayload) String() string {
	data, err := json.Marshal(p)
	if err != nil {
		return p.Message
	}
	return string(data)
}
