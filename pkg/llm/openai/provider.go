package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"mpersona-be/pkg/llm"
	"mpersona-be/pkg/llm/sse"
)

const DefaultBaseURL = "https://api.openai.com"

type OpenAIProvider struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// Ensure OpenAIProvider implements StreamProvider
var _ llm.StreamProvider = &OpenAIProvider{}

func NewOpenAIProvider(baseURL, apiKey string, client *http.Client) *OpenAIProvider {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &OpenAIProvider{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Client:  client,
	}
}

// --- Request/Response structs (Internal to this package) ---

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []llm.Message `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Stream      bool          `json:"stream"`
}

type chatChunk struct {
	Choices []struct {
		Delta struct {
			Role    string  `json:"role,omitempty"`
			Content *string `json:"content,omitempty"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
}

// --- Interface Implementation ---

func (o *OpenAIProvider) Name() string {
	return llm.ProviderOpenAI
}

func (o *OpenAIProvider) Stream(ctx context.Context, messages []llm.Message, opts ...llm.Option) (llm.Stream, error) {
	options := llm.ApplyOptions(opts...)

	apiKey := o.APIKey
	if options.Credential != nil {
		apiKey = options.Credential.APIKey
	}

	reqPayload := chatRequest{
		Model:       options.Model,
		Messages:    messages,
		Temperature: options.Temperature,
		MaxTokens:   options.MaxTokens,
		Stream:      true,
	}

	resp, err := llm.PostStream(ctx, o.Client, o.Name(), o.BaseURL+"/v1/chat/completions",
		map[string]string{"Authorization": "Bearer " + apiKey}, reqPayload)
	if err != nil {
		return nil, err
	}

	return &chatStream{
		provider: o.Name(),
		body:     resp.Body,
		reader:   sse.NewReader(resp.Body),
	}, nil
}

// chatStream reads the chat-completions SSE stream.
// Shared by the Azure adapter, whose wire format is identical.
type chatStream struct {
	provider string
	body     io.ReadCloser
	reader   *sse.Reader
	done     bool
}

func (s *chatStream) Recv(ctx context.Context) (llm.Event, error) {
	for {
		if s.done {
			return llm.Event{}, io.EOF
		}

		select {
		case <-ctx.Done():
			return llm.Event{}, ctx.Err()
		default:
		}

		ev, err := s.reader.Next()
		if err == io.EOF {
			s.done = true
			return llm.Event{}, io.EOF
		}
		if err != nil {
			if ctx.Err() != nil {
				return llm.Event{}, ctx.Err()
			}
			return llm.Event{}, &llm.StreamError{Provider: s.provider, Message: "failed to read stream", Cause: err}
		}

		if ev.Data == "[DONE]" {
			s.done = true
			return llm.Event{Kind: llm.EventEnd}, nil
		}

		var chunk chatChunk
		if err := json.Unmarshal([]byte(ev.Data), &chunk); err != nil {
			return llm.Event{}, &llm.ParseError{Provider: s.provider, RawResponse: ev.Data, Cause: err}
		}

		if len(chunk.Choices) == 0 {
			continue
		}

		choice := chunk.Choices[0]
		if choice.Delta.Content != nil && *choice.Delta.Content != "" {
			return llm.Event{Kind: llm.EventMessage, Content: *choice.Delta.Content}, nil
		}

		// A chunk without a content delta ends the output once the model reports why it stopped.
		// The leading role-only chunk carries no finish reason and is skipped.
		if choice.FinishReason != nil {
			s.done = true
			return llm.Event{Kind: llm.EventEnd}, nil
		}
	}
}

func (s *chatStream) Close() error {
	s.done = true
	return s.body.Close()
}
