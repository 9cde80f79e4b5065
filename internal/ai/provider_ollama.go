package ai

import (
	"context"
	"net/http"
	"strings"
)

const (
	defaultOllamaBaseURL = "http://localhost:11434"
	defaultOllamaModel   = "llama3:8b"
)

// OllamaProvider implements Provider for self-hosted Ollama.
// Ollama exposes an OpenAI-compatible API at /v1/chat/completions.
type OllamaProvider struct {
	baseURL string
	model   string
	client  *http.Client
}

// OllamaOption configures an OllamaProvider.
type OllamaOption func(*OllamaProvider)

// WithOllamaHTTPClient sets a custom HTTP client.
func WithOllamaHTTPClient(client *http.Client) OllamaOption {
	return func(p *OllamaProvider) {
		p.client = client
	}
}

// WithOllamaModel sets the model used when a request does not name one.
func WithOllamaModel(model string) OllamaOption {
	return func(p *OllamaProvider) {
		if model != "" {
			p.model = model
		}
	}
}

// NewOllamaProvider creates a new Ollama provider.
func NewOllamaProvider(baseURL string, opts ...OllamaOption) *OllamaProvider {
	if baseURL == "" {
		baseURL = defaultOllamaBaseURL
	}
	p := &OllamaProvider{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		model:   defaultOllamaModel,
		client:  http.DefaultClient,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Model returns the default model identifier.
func (p *OllamaProvider) Model() string {
	return p.model
}

func (p *OllamaProvider) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}
	return postChatCompletion(ctx, p.client, "ollama", p.baseURL+"/v1/chat/completions", newOpenAIRequest(req, model), nil)
}

func (p *OllamaProvider) HealthCheck(ctx context.Context) error {
	return getStatus(ctx, p.client, p.baseURL+"/api/tags", nil)
}
