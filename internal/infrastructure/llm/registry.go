package llm

import (
	"fmt"
	"net/http"
	"sort"

	"ResearchAgent/internal/config"
	"ResearchAgent/internal/ports"
)

// Provider is a named LLM backend.
type Provider interface {
	ports.Completer
	Name() string
}

// Registry keeps a mapping from provider names to their implementations.
type Registry struct {
	providers map[string]Provider
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{providers: map[string]Provider{}}
}

// DefaultRegistry registers every built-in provider for cfg.
func DefaultRegistry(cfg config.AnalysisConfig, httpClient *http.Client) *Registry {
	reg := NewRegistry()
	reg.Register(NewAnthropicProvider(cfg, httpClient))
	reg.Register(NewChatGPTClient(cfg, httpClient))
	return reg
}

// Register adds or replaces a provider implementation.
func (r *Registry) Register(provider Provider) {
	if r.providers == nil {
		r.providers = map[string]Provider{}
	}
	r.providers[provider.Name()] = provider
}

// Resolve returns a provider by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Provider, error) {
	if provider, ok := r.providers[name]; ok {
		return provider, nil
	}
	return nil, fmt.Errorf("llm provider %q is not registered (known: %v)", name, r.Names())
}

// Names lists registered providers in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
