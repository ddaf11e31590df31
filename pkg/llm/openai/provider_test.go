package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"mpersona-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sseServer(t *testing.T, check func(r *http.Request), lines ...string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			check(r)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		for _, line := range lines {
			fmt.Fprintf(w, "data: %s\n\n", line)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func drain(t *testing.T, stream llm.Stream) ([]llm.Event, error) {
	t.Helper()
	defer stream.Close()
	var events []llm.Event
	for {
		ev, err := stream.Recv(context.Background())
		if err != nil {
			if errors.Is(err, io.EOF) {
				return events, nil
			}
			return events, err
		}
		events = append(events, ev)
		if ev.Kind == llm.EventEnd {
			return events, nil
		}
	}
}

func TestOpenAIStream(t *testing.T) {
	var got chatRequest
	srv := sseServer(t, func(r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-default", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	},
		`{"choices":[{"delta":{"role":"assistant","content":""},"finish_reason":null}]}`,
		`{"choices":[{"delta":{"content":"Hel"},"finish_reason":null}]}`,
		`{"choices":[{"delta":{"content":"lo"},"finish_reason":null}]}`,
		`{"choices":[{"delta":{},"finish_reason":"stop"}]}`,
		`[DONE]`,
	)

	p := NewOpenAIProvider(srv.URL, "sk-default", srv.Client())
	stream, err := p.Stream(context.Background(),
		[]llm.Message{{Role: llm.RoleSystem, Content: "be brief"}, {Role: llm.RoleUser, Content: "hi"}},
		llm.WithModel("gpt-4"), llm.WithTemperature(0.2))
	require.NoError(t, err)

	events, err := drain(t, stream)
	require.NoError(t, err)
	assert.Equal(t, []llm.Event{
		{Kind: llm.EventMessage, Content: "Hel"},
		{Kind: llm.EventMessage, Content: "lo"},
		{Kind: llm.EventEnd},
	}, events)

	assert.True(t, got.Stream)
	assert.Equal(t, "gpt-4", got.Model)
	assert.Equal(t, 0.2, got.Temperature)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "be brief", got.Messages[0].Content)
}

func TestOpenAIStreamUsesCredentialOverride(t *testing.T) {
	srv := sseServer(t, func(r *http.Request) {
		assert.Equal(t, "Bearer sk-own", r.Header.Get("Authorization"))
	}, `[DONE]`)

	p := NewOpenAIProvider(srv.URL, "sk-default", srv.Client())
	stream, err := p.Stream(context.Background(), nil, llm.WithCredential(llm.Credential{APIKey: "sk-own"}))
	require.NoError(t, err)

	events, err := drain(t, stream)
	require.NoError(t, err)
	assert.Equal(t, []llm.Event{{Kind: llm.EventEnd}}, events)
}

func TestOpenAIStreamStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	p := NewOpenAIProvider(srv.URL, "sk-bad", srv.Client())
	_, err := p.Stream(context.Background(), nil)

	var perr *llm.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, http.StatusUnauthorized, perr.StatusCode)
	assert.Equal(t, "Incorrect API key provided", perr.Message)
	assert.Equal(t, "Unauthorized", perr.StatusText())
}

func TestOpenAIStreamMalformedChunk(t *testing.T) {
	srv := sseServer(t, nil,
		`{"choices":[{"delta":{"content":"ok"}}]}`,
		`{not json`,
		`{"choices":[{"delta":{"content":"never"}}]}`,
	)

	p := NewOpenAIProvider(srv.URL, "sk", srv.Client())
	stream, err := p.Stream(context.Background(), nil)
	require.NoError(t, err)

	events, err := drain(t, stream)
	var perr *llm.ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, []llm.Event{{Kind: llm.EventMessage, Content: "ok"}}, events)
}

func TestOpenAIStreamCancelled(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"a\"}}]}\n\n")
		w.(http.Flusher).Flush()
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	p := NewOpenAIProvider(srv.URL, "sk", srv.Client())
	stream, err := p.Stream(ctx, nil)
	require.NoError(t, err)
	defer stream.Close()

	ev, err := stream.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", ev.Content)

	_, err = stream.Recv(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
