package dto

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemperatureDecoding(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want float64
	}{
		{"number", `{"temperature":0.9}`, 0.9},
		{"numeric string", `{"temperature":"0.2"}`, 0.2},
		{"zero is kept", `{"temperature":0}`, 0},
		{"absent", `{}`, 0.5},
		{"null", `{"temperature":null}`, 0.5},
		{"non numeric string", `{"temperature":"warm"}`, 0.5},
		{"object", `{"temperature":{"v":1}}`, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var env Envelope
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &env))
			assert.Equal(t, tt.want, env.Temperature.OrDefault(0.5))
		})
	}
}

func TestFrameEchoesSession(t *testing.T) {
	var env Envelope
	require.NoError(t, json.Unmarshal([]byte(`{"uuid":"c","session":42,"type":"ping"}`), &env))

	data, err := json.Marshal(Frame{Session: env.Session, Type: KindPong})
	require.NoError(t, err)
	assert.JSONEq(t, `{"session":42,"type":"pong","message":null}`, string(data))
}

func TestErrorPayloadString(t *testing.T) {
	p := ErrorPayload{Message: "Incorrect API key", Status: 401, StatusText: "Unauthorized"}
	assert.JSONEq(t, `{"message":"Incorrect API key","status":401,"statusText":"Unauthorized"}`, p.String())

	assert.JSONEq(t, `{"message":"x"}`, ErrorPayload{Message: "x"}.String())
}

func TestChunkKindTerminal(t *testing.T) {
	assert.True(t, KindEOM.Terminal())
	assert.True(t, KindError.Terminal())
	assert.False(t, KindMessage.Terminal())
	assert.False(t, KindPong.Terminal())
}
