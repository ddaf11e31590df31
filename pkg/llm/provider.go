package llm

import (
	"context"
	"errors"
)

// Provider selectors as they appear on the wire.
const (
	ProviderOpenAI      = "openAi"
	ProviderAnthropic   = "anthropic"
	ProviderAzureOpenAI = "azureOpenAi"
)

// Message roles
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// DefaultTemperature is used when the caller sends no usable temperature.
const DefaultTemperature = 0.5

var ErrProviderInactive = errors.New("provider not supported or not activated")

// Message represents a chat message in a provider-agnostic format
type Message struct {
	Role    string `json:"role" validate:"required,oneof=system user assistant"`
	Content string `json:"content"`
}

// EventKind distinguishes a text fragment from the end of a stream.
type EventKind int

const (
	EventMessage EventKind = iota
	EventEnd
)

// Event is one normalized unit read from a provider stream.
type Event struct {
	Kind    EventKind
	Content string
}

// Stream is a pull-style iterator over provider events.
// Recv returns io.EOF once the provider closed the stream without an explicit end event.
type Stream interface {
	Recv(ctx context.Context) (Event, error)
	Close() error
}

// Credential overrides the process-wide key of a provider for one call.
type Credential struct {
	APIKey   string
	Endpoint string
}

// Option allows for optional parameters like Temperature, MaxTokens, etc.
type Option func(*Options)

type Options struct {
	Temperature float64
	MaxTokens   int
	Model       string
	Credential  *Credential
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

// WithCredential applies a bring-your-own-key override. An empty key is ignored.
func WithCredential(cred Credential) Option {
	return func(o *Options) {
		if cred.APIKey == "" {
			return
		}
		o.Credential = &cred
	}
}

// ApplyOptions resolves the option list over the defaults.
func ApplyOptions(opts ...Option) *Options {
	options := &Options{
		Temperature: DefaultTemperature,
	}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// StreamProvider defines the contract for any streaming chat backend
type StreamProvider interface {
	// Name returns the wire selector of the provider (e.g. "openAi").
	Name() string

	// Stream opens a streaming completion for the ordered messages.
	Stream(ctx context.Context, messages []Message, options ...Option) (Stream, error)
}
