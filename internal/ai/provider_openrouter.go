package ai

import (
	"context"
	"net/http"
	"strings"
	"time"
)

const (
	defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"
	defaultOpenRouterModel   = "google/gemini-pro-1.5"

	// DefaultOpenRouterTimeout bounds every gateway request.
	DefaultOpenRouterTimeout = 30 * time.Second
)

// OpenRouterProvider implements Provider for OpenRouter.
// OpenRouter uses an OpenAI-compatible API with extra HTTP headers.
type OpenRouterProvider struct {
	apiKey  string
	baseURL string
	model   string
	referer string
	title   string
	client  *http.Client
}

// OpenRouterOption configures an OpenRouterProvider.
type OpenRouterOption func(*OpenRouterProvider)

// WithOpenRouterBaseURL sets the base URL (for testing).
func WithOpenRouterBaseURL(url string) OpenRouterOption {
	return func(p *OpenRouterProvider) {
		p.baseURL = strings.TrimSuffix(url, "/")
	}
}

// WithOpenRouterHTTPClient sets a custom HTTP client.
func WithOpenRouterHTTPClient(client *http.Client) OpenRouterOption {
	return func(p *OpenRouterProvider) {
		p.client = client
	}
}

// WithOpenRouterModel sets the model used when a request does not name one.
func WithOpenRouterModel(model string) OpenRouterOption {
	return func(p *OpenRouterProvider) {
		if model != "" {
			p.model = model
		}
	}
}

// NewOpenRouterProvider creates a new OpenRouter provider. The default HTTP
// client times out after DefaultOpenRouterTimeout.
func NewOpenRouterProvider(apiKey string, opts ...OpenRouterOption) *OpenRouterProvider {
	p := &OpenRouterProvider{
		apiKey:  apiKey,
		baseURL: defaultOpenRouterBaseURL,
		model:   defaultOpenRouterModel,
		referer: "https://pandai.org",
		title:   "P&AI Tutor",
		client:  &http.Client{Timeout: DefaultOpenRouterTimeout},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Model returns the default model identifier.
func (p *OpenRouterProvider) Model() string {
	return p.model
}

func (p *OpenRouterProvider) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+p.apiKey)
	header.Set("HTTP-Referer", p.referer)
	header.Set("X-Title", p.title)

	return postChatCompletion(ctx, p.client, "openrouter", p.baseURL+"/chat/completions", newOpenAIRequest(req, model), header)
}

func (p *OpenRouterProvider) HealthCheck(ctx context.Context) error {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+p.apiKey)
	return getStatus(ctx, p.client, p.baseURL+"/models", header)
}
