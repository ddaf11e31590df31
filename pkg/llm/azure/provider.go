package azure

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"mpersona-be/pkg/llm"
	"mpersona-be/pkg/llm/sse"
)

const DefaultAPIVersion = "2024-02-01"

// AzureOpenAIProvider talks to an Azure OpenAI resource. The model selector
// sent by clients is the deployment name.
type AzureOpenAIProvider struct {
	Endpoint   string
	APIKey     string
	APIVersion string
	Client     *http.Client
}

var _ llm.StreamProvider = &AzureOpenAIProvider{}

func NewAzureOpenAIProvider(endpoint, apiKey, apiVersion string, client *http.Client) *AzureOpenAIProvider {
	if apiVersion == "" {
		apiVersion = DefaultAPIVersion
	}
	return &AzureOpenAIProvider{
		Endpoint:   strings.TrimRight(endpoint, "/"),
		APIKey:     apiKey,
		APIVersion: apiVersion,
		Client:     client,
	}
}

type chatRequest struct {
	Messages    []llm.Message `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Stream      bool          `json:"stream"`
}

type completionsChunk struct {
	Choices []struct {
		Delta struct {
			Content *string `json:"content,omitempty"`
		} `json:"delta"`
	} `json:"choices"`
}

func (p *AzureOpenAIProvider) Name() string {
	return llm.ProviderAzureOpenAI
}

func (p *AzureOpenAIProvider) Stream(ctx context.Context, messages []llm.Message, opts ...llm.Option) (llm.Stream, error) {
	options := llm.ApplyOptions(opts...)

	endpoint, apiKey := p.Endpoint, p.APIKey
	if options.Credential != nil {
		apiKey = options.Credential.APIKey
		if options.Credential.Endpoint != "" {
			endpoint = strings.TrimRight(options.Credential.Endpoint, "/")
		}
	}

	target := fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
		endpoint, url.PathEscape(options.Model), url.QueryEscape(p.APIVersion))

	reqPayload := chatRequest{
		Messages:    messages,
		Temperature: options.Temperature,
		MaxTokens:   options.MaxTokens,
		Stream:      true,
	}

	resp, err := llm.PostStream(ctx, p.Client, p.Name(), target, map[string]string{"api-key": apiKey}, reqPayload)
	if err != nil {
		return nil, err
	}

	stream := newEventStream(resp.Body)
	go subscribe(p.Name(), resp.Body, stream.handlers())
	return stream, nil
}

// handlers receive the push-style callbacks of an Azure completions stream.
type handlers struct {
	onData  func(completionsChunk)
	onEnd   func()
	onError func(error)
}

// subscribe reads the response body and pushes every parsed chunk to h.
// Exactly one of onEnd or onError is called last.
func subscribe(provider string, body io.Reader, h handlers) {
	reader := sse.NewReader(body)
	for {
		ev, err := reader.Next()
		if err == io.EOF {
			h.onEnd()
			return
		}
		if err != nil {
			h.onError(&llm.StreamError{Provider: provider, Message: "Stream error.", Cause: err})
			return
		}
		if ev.Data == "[DONE]" {
			h.onEnd()
			return
		}

		var chunk completionsChunk
		if err := json.Unmarshal([]byte(ev.Data), &chunk); err != nil {
			h.onError(&llm.ParseError{Provider: provider, RawResponse: ev.Data, Cause: err})
			return
		}
		h.onData(chunk)
	}
}

type streamItem struct {
	events []llm.Event
	end    bool
	err    error
}

// eventStream adapts the push callbacks to the pull-style llm.Stream.
type eventStream struct {
	items     chan streamItem
	quit      chan struct{}
	body      io.ReadCloser
	closeOnce sync.Once
	pending   []llm.Event
	done      bool
}

func newEventStream(body io.ReadCloser) *eventStream {
	return &eventStream{
		items: make(chan streamItem, 16),
		quit:  make(chan struct{}),
		body:  body,
	}
}

func (s *eventStream) push(item streamItem) {
	select {
	case s.items <- item:
	case <-s.quit:
	}
}

func (s *eventStream) handlers() handlers {
	return handlers{
		onData: func(chunk completionsChunk) {
			var events []llm.Event
			for _, choice := range chunk.Choices {
				if choice.Delta.Content != nil {
					events = append(events, llm.Event{Kind: llm.EventMessage, Content: *choice.Delta.Content})
				}
			}
			if len(events) > 0 {
				s.push(streamItem{events: events})
			}
		},
		onEnd: func() {
			s.push(streamItem{end: true})
		},
		onError: func(err error) {
			s.push(streamItem{err: err})
		},
	}
}

func (s *eventStream) Recv(ctx context.Context) (llm.Event, error) {
	for {
		if len(s.pending) > 0 {
			ev := s.pending[0]
			s.pending = s.pending[1:]
			return ev, nil
		}
		if s.done {
			return llm.Event{}, io.EOF
		}

		select {
		case <-ctx.Done():
			return llm.Event{}, ctx.Err()
		case item := <-s.items:
			switch {
			case item.err != nil:
				s.done = true
				return llm.Event{}, item.err
			case item.end:
				s.done = true
				return llm.Event{Kind: llm.EventEnd}, nil
			default:
				s.pending = item.events
			}
		}
	}
}

func (s *eventStream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.done = true
		close(s.quit)
		err = s.body.Close()
	})
	return err
}
