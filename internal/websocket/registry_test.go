package websocket

import (
	"encoding/json"
	"sync"
	"testing"

	"mpersona-be/internal/dto"
	"mpersona-be/internal/pkg/logger"
	"mpersona-be/internal/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry() *Registry {
	return NewRegistry(logger.NewNopLogger(), metrics.NewBrokerMetrics(prometheus.NewRegistry()))
}

func readFrame(t *testing.T, c *Client) dto.Frame {
	t.Helper()
	select {
	case data := <-c.Send:
		var f dto.Frame
		require.NoError(t, json.Unmarshal(data, &f))
		return f
	default:
		t.Fatal("no frame queued")
		return dto.Frame{}
	}
}

func TestRegisterAssignsUniqueIDs(t *testing.T) {
	r := newTestRegistry()

	a := r.Register(NewClient(nil))
	b := r.Register(NewClient(nil))

	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
	assert.Equal(t, 2, r.Count())
}

func TestDeliverPreservesOrder(t *testing.T) {
	r := newTestRegistry()
	c := NewClient(nil)
	id := r.Register(c)
	session := json.RawMessage(`"s1"`)

	require.True(t, r.Deliver(id, session, dto.KindMessage, "Hel"))
	require.True(t, r.Deliver(id, session, dto.KindMessage, "lo"))
	require.True(t, r.Deliver(id, session, dto.KindEOM, nil))

	first := readFrame(t, c)
	assert.Equal(t, dto.KindMessage, first.Type)
	assert.Equal(t, "Hel", first.Message)
	assert.JSONEq(t, `"s1"`, string(first.Session))

	assert.Equal(t, "lo", readFrame(t, c).Message)

	last := readFrame(t, c)
	assert.Equal(t, dto.KindEOM, last.Type)
	assert.Nil(t, last.Message)
}

func TestDeliverToUnknownConnectionIsNoop(t *testing.T) {
	r := newTestRegistry()

	assert.NotPanics(t, func() {
		assert.False(t, r.Deliver("missing", nil, dto.KindMessage, "x"))
	})
}

func TestDeliverAfterUnregister(t *testing.T) {
	r := newTestRegistry()
	c := NewClient(nil)
	id := r.Register(c)

	r.Unregister(id)
	r.Unregister(id)

	assert.False(t, r.Deliver(id, nil, dto.KindMessage, "late"))
	assert.Zero(t, r.Count())
	assert.Error(t, c.Context().Err())

	_, open := <-c.Send
	assert.False(t, open)
}

func TestDeliverToClosedClientStillRegistered(t *testing.T) {
	r := newTestRegistry()
	c := NewClient(nil)
	id := r.Register(c)
	c.close()

	assert.False(t, r.Deliver(id, nil, dto.KindMessage, "x"))
}

func TestDeliverCongestedClientIsDropped(t *testing.T) {
	r := newTestRegistry()
	c := NewClient(nil)
	id := r.Register(c)

	for i := 0; i < sendBuffer; i++ {
		require.True(t, r.Deliver(id, nil, dto.KindMessage, "x"))
	}

	assert.False(t, r.Deliver(id, nil, dto.KindMessage, "overflow"))
	assert.Zero(t, r.Count())
}

func TestReplyWritesRawShape(t *testing.T) {
	r := newTestRegistry()
	c := NewClient(nil)
	id := r.Register(c)

	require.True(t, r.Reply(id, dto.ProtocolError{Message: "UUID is missing from the message"}))

	data := <-c.Send
	assert.JSONEq(t, `{"message":"UUID is missing from the message"}`, string(data))
}

func TestConcurrentDeliverAndUnregister(t *testing.T) {
	r := newTestRegistry()
	c := NewClient(nil)
	id := r.Register(c)

	go func() {
		for range c.Send {
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				r.Deliver(id, nil, dto.KindMessage, "x")
			}
		}()
	}
	r.Unregister(id)
	wg.Wait()

	assert.Zero(t, r.Count())
}
