package factory

import (
	"net/http"
	"sort"

	"mpersona-be/pkg/llm"
	"mpersona-be/pkg/llm/anthropic"
	"mpersona-be/pkg/llm/azure"
	"mpersona-be/pkg/llm/openai"
)

// Settings holds the process-wide provider credentials.
type Settings struct {
	OpenAIKey     string
	OpenAIBaseURL string

	AnthropicKey        string
	AnthropicBaseURL    string
	AnthropicAPIVersion string

	AzureKey        string
	AzureEndpoint   string
	AzureAPIVersion string
}

// Providers maps wire selectors to the adapters that were activated at startup.
type Providers struct {
	active map[string]llm.StreamProvider
}

// NewProviders activates every provider with a configured default credential.
// A provider left out here stays inactive even for callers with their own key.
func NewProviders(s Settings, client *http.Client) *Providers {
	active := make(map[string]llm.StreamProvider)

	if s.OpenAIKey != "" {
		active[llm.ProviderOpenAI] = openai.NewOpenAIProvider(s.OpenAIBaseURL, s.OpenAIKey, client)
	}
	if s.AnthropicKey != "" {
		active[llm.ProviderAnthropic] = anthropic.NewAnthropicProvider(s.AnthropicBaseURL, s.AnthropicKey, s.AnthropicAPIVersion, client)
	}
	if s.AzureKey != "" && s.AzureEndpoint != "" {
		active[llm.ProviderAzureOpenAI] = azure.NewAzureOpenAIProvider(s.AzureEndpoint, s.AzureKey, s.AzureAPIVersion, client)
	}

	return &Providers{active: active}
}

// NewProvidersFrom builds a registry over already constructed adapters.
func NewProvidersFrom(providers ...llm.StreamProvider) *Providers {
	active := make(map[string]llm.StreamProvider, len(providers))
	for _, p := range providers {
		active[p.Name()] = p
	}
	return &Providers{active: active}
}

// Get returns the adapter for the selector or llm.ErrProviderInactive.
func (p *Providers) Get(name string) (llm.StreamProvider, error) {
	provider, ok := p.active[name]
	if !ok {
		return nil, llm.ErrProviderInactive
	}
	return provider, nil
}

// Status reports the activation state of every known provider.
func (p *Providers) Status() map[string]bool {
	status := map[string]bool{
		llm.ProviderOpenAI:      false,
		llm.ProviderAnthropic:   false,
		llm.ProviderAzureOpenAI: false,
	}
	for name := range p.active {
		status[name] = true
	}
	return status
}

// Names lists the active selectors in stable order.
func (p *Providers) Names() []string {
	names := make([]string, 0, len(p.active))
	for name := range p.active {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
