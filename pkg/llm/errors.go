package llm

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ProviderError represents a failure reported by an upstream provider.
// It includes the provider name, HTTP status code, and underlying error.
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
	Cause      error
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("provider %q error (status %d): %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("provider %q error: %s", e.Provider, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// StatusText returns the HTTP reason phrase for the status code, if any.
func (e *ProviderError) StatusText() string {
	if e.StatusCode == 0 {
		return ""
	}
	return http.StatusText(e.StatusCode)
}

// StreamError is raised when reading an established stream fails.
type StreamError struct {
	Provider string
	Message  string
	Cause    error
}

func (e *StreamError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("provider %q stream error: %s: %v", e.Provider, e.Message, e.Cause)
	}
	return fmt.Sprintf("provider %q stream error: %s", e.Provider, e.Message)
}

func (e *StreamError) Unwrap() error {
	return e.Cause
}

// ParseError represents a malformed streamed fragment.
type ParseError struct {
	Provider    string
	RawResponse string
	Cause       error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("provider %q response parse error: %v", e.Provider, e.Cause)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

type errorEnvelope struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// NewStatusError builds a ProviderError from a non-2xx upstream response.
// OpenAI, Azure and Anthropic all wrap failures as {"error": {"message": ...}}.
func NewStatusError(provider string, resp *http.Response) *ProviderError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	msg := strings.TrimSpace(string(body))
	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		msg = envelope.Error.Message
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &ProviderError{
		Provider:   provider,
		StatusCode: resp.StatusCode,
		Message:    msg,
	}
}
