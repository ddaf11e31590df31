package azure

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"mpersona-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, stream llm.Stream) ([]llm.Event, error) {
	t.Helper()
	defer stream.Close()
	var events []llm.Event
	for {
		ev, err := stream.Recv(context.Background())
		if errors.Is(err, io.EOF) {
			return events, nil
		}
		if err != nil {
			return events, err
		}
		events = append(events, ev)
	}
}

func TestAzureStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/openai/deployments/gpt-35/chat/completions", r.URL.Path)
		assert.Equal(t, DefaultAPIVersion, r.URL.Query().Get("api-version"))
		assert.Equal(t, "azure-key", r.Header.Get("api-key"))

		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[],\"prompt_filter_results\":[]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"a\"}},{\"delta\":{\"content\":\"b\"}}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{}}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"c\"}}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	p := NewAzureOpenAIProvider(srv.URL, "azure-key", "", srv.Client())
	stream, err := p.Stream(context.Background(), []llm.Message{{Role: llm.RoleUser, Content: "hi"}}, llm.WithModel("gpt-35"))
	require.NoError(t, err)

	events, err := collect(t, stream)
	require.NoError(t, err)
	assert.Equal(t, []llm.Event{
		{Kind: llm.EventMessage, Content: "a"},
		{Kind: llm.EventMessage, Content: "b"},
		{Kind: llm.EventMessage, Content: "c"},
		{Kind: llm.EventEnd},
	}, events)
}

func TestAzureStreamEndWithoutDone(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"x\"}}]}\n\n")
	}))
	defer srv.Close()

	p := NewAzureOpenAIProvider(srv.URL, "k", "", srv.Client())
	stream, err := p.Stream(context.Background(), nil, llm.WithModel("d"))
	require.NoError(t, err)

	events, err := collect(t, stream)
	require.NoError(t, err)
	assert.Equal(t, []llm.Event{{Kind: llm.EventMessage, Content: "x"}, {Kind: llm.EventEnd}}, events)
}

func TestAzureStreamErrorTerminates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"x\"}}]}\n\n")
		fmt.Fprint(w, "data: {broken\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"y\"}}]}\n\n")
	}))
	defer srv.Close()

	p := NewAzureOpenAIProvider(srv.URL, "k", "", srv.Client())
	stream, err := p.Stream(context.Background(), nil, llm.WithModel("d"))
	require.NoError(t, err)

	events, err := collect(t, stream)
	var perr *llm.ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, []llm.Event{{Kind: llm.EventMessage, Content: "x"}}, events)
}

func TestAzureCredentialOverrideEndpoint(t *testing.T) {
	own := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "own-key", r.Header.Get("api-key"))
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer own.Close()

	p := NewAzureOpenAIProvider("http://127.0.0.1:1", "default", "", own.Client())
	stream, err := p.Stream(context.Background(), nil,
		llm.WithModel("d"),
		llm.WithCredential(llm.Credential{APIKey: "own-key", Endpoint: own.URL}))
	require.NoError(t, err)

	events, err := collect(t, stream)
	require.NoError(t, err)
	assert.Equal(t, []llm.Event{{Kind: llm.EventEnd}}, events)
}
