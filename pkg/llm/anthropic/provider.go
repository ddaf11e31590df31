package anthropic

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"mpersona-be/pkg/llm"
	"mpersona-be/pkg/llm/sse"
)

const (
	DefaultBaseURL    = "https://api.anthropic.com"
	DefaultAPIVersion = "2023-06-01"

	// MaxTokensToSample is fixed for every completion request.
	MaxTokensToSample = 4096
)

type AnthropicProvider struct {
	BaseURL    string
	APIKey     string
	APIVersion string
	Client     *http.Client
}

var _ llm.StreamProvider = &AnthropicProvider{}

func NewAnthropicProvider(baseURL, apiKey, apiVersion string, client *http.Client) *AnthropicProvider {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if apiVersion == "" {
		apiVersion = DefaultAPIVersion
	}
	return &AnthropicProvider{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		APIKey:     apiKey,
		APIVersion: apiVersion,
		Client:     client,
	}
}

type completionRequest struct {
	Model             string  `json:"model"`
	Prompt            string  `json:"prompt"`
	MaxTokensToSample int     `json:"max_tokens_to_sample"`
	Temperature       float64 `json:"temperature"`
	Stream            bool    `json:"stream"`
}

type completionEvent struct {
	Type       string  `json:"type"`
	Completion string  `json:"completion"`
	StopReason *string `json:"stop_reason"`
	Error      *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (a *AnthropicProvider) Name() string {
	return llm.ProviderAnthropic
}

func (a *AnthropicProvider) Stream(ctx context.Context, messages []llm.Message, opts ...llm.Option) (llm.Stream, error) {
	options := llm.ApplyOptions(opts...)

	apiKey := a.APIKey
	if options.Credential != nil {
		apiKey = options.Credential.APIKey
	}

	reqPayload := completionRequest{
		Model:             options.Model,
		Prompt:            FlattenPrompt(messages),
		MaxTokensToSample: MaxTokensToSample,
		Temperature:       options.Temperature,
		Stream:            true,
	}

	headers := map[string]string{
		"x-api-key":         apiKey,
		"anthropic-version": a.APIVersion,
	}

	resp, err := llm.PostStream(ctx, a.Client, a.Name(), a.BaseURL+"/v1/complete", headers, reqPayload)
	if err != nil {
		return nil, err
	}

	return &completionStream{
		provider: a.Name(),
		body:     resp.Body,
		reader:   sse.NewReader(resp.Body),
	}, nil
}

type completionStream struct {
	provider string
	body     io.ReadCloser
	reader   *sse.Reader
	done     bool
}

func (s *completionStream) Recv(ctx context.Context) (llm.Event, error) {
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

		if ev.Name == "ping" || ev.Data == "" {
			continue
		}

		var event completionEvent
		if err := json.Unmarshal([]byte(ev.Data), &event); err != nil {
			return llm.Event{}, &llm.ParseError{Provider: s.provider, RawResponse: ev.Data, Cause: err}
		}

		if event.Type == "error" || event.Error != nil {
			s.done = true
			msg := "upstream error"
			if event.Error != nil {
				msg = event.Error.Message
			}
			return llm.Event{}, &llm.ProviderError{Provider: s.provider, Message: msg}
		}

		// stop_reason ends the stream; nothing after it is read
		if event.StopReason != nil {
			s.done = true
			return llm.Event{Kind: llm.EventEnd}, nil
		}

		if event.Completion != "" {
			return llm.Event{Kind: llm.EventMessage, Content: event.Completion}, nil
		}
	}
}

func (s *completionStream) Close() error {
	s.done = true
	return s.body.Close()
}
