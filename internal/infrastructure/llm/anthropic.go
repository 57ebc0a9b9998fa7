package llm

import (
	"context"
	"fmt"
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"ResearchAgent/internal/config"
)

// AnthropicProvider completes prompts with Claude through the official SDK.
type AnthropicProvider struct {
	model      string
	maxTokens  int64
	baseURL    string
	httpClient *http.Client
}

var _ Provider = (*AnthropicProvider)(nil)

// NewAnthropicProvider builds a provider from configuration. A client is
// created per call because the API key is supplied per submission.
func NewAnthropicProvider(cfg config.AnalysisConfig, httpClient *http.Client) *AnthropicProvider {
	maxTokens := int64(cfg.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &AnthropicProvider{
		model:      cfg.Model,
		maxTokens:  maxTokens,
		baseURL:    cfg.Endpoint,
		httpClient: httpClient,
	}
}

// Name identifies the provider inside the registry.
func (p *AnthropicProvider) Name() string {
	return config.ProviderAnthropic
}

// Complete sends a single user message and returns the first text block.
func (p *AnthropicProvider) Complete(ctx context.Context, prompt, apiKey string) (string, error) {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if p.baseURL != "" {
		opts = append(opts, option.WithBaseURL(p.baseURL))
	}
	if p.httpClient != nil {
		opts = append(opts, option.WithHTTPClient(p.httpClient))
	}
	client := anthropic.NewClient(opts...)

	message, err := client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: p.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("call claude api: %w", err)
	}

	for _, block := range message.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("claude returned no text content")
}
