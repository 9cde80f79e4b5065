package provider

import (
	"context"
	"log/slog"
	"time"

	"github.com/p-n-ai/pai-ai-engine/internal/ai"
	"github.com/p-n-ai/pai-ai-engine/internal/platform/config"
	"github.com/p-n-ai/pai-ai-engine/internal/tutor"
)

const (
	gatewayTag             = "openrouter"
	gatewayTimeout         = ai.DefaultOpenRouterTimeout
	gatewayConfidence      = 0.90
	gatewayChatFailure     = "I apologize, but I'm having trouble processing your request right now via OpenRouter."
	gatewayAnalysisFailure = "Unable to perform AI analysis at this time."
)

// GatewayProvider calls a model through the OpenRouter API.
type GatewayProvider struct {
	transport  ai.Provider
	model      string
	timeout    time.Duration
	normalizer *tutor.Normalizer
	logger     *slog.Logger
}

// NewGatewayProvider builds the gateway adapter.
func NewGatewayProvider(cfg config.GatewayConfig, opts ...Option) *GatewayProvider {
	return newGatewayProvider(cfg, newOptions(opts))
}

func newGatewayProvider(cfg config.GatewayConfig, o *options) *GatewayProvider {
	transport := o.gatewayTransport
	model := cfg.Model
	if transport == nil {
		if cfg.APIKey == "" {
			o.logger.Warn("gateway API key not configured, requests will fail", "env", "LEARN_AI_GATEWAY_API_KEY")
		}
		clientOpts := []ai.OpenRouterOption{
			ai.WithOpenRouterModel(cfg.Model),
			ai.WithOpenRouterHTTPClient(o.httpClient(gatewayTimeout)),
		}
		if cfg.BaseURL != "" {
			clientOpts = append(clientOpts, ai.WithOpenRouterBaseURL(cfg.BaseURL))
		}
		openrouter := ai.NewOpenRouterProvider(cfg.APIKey, clientOpts...)
		transport = openrouter
		model = openrouter.Model()
	}
	if model == "" {
		model = "google/gemini-pro-1.5"
	}
	return &GatewayProvider{
		transport:  transport,
		model:      model,
		timeout:    gatewayTimeout,
		normalizer: o.normalizer(),
		logger:     o.logger,
	}
}

func (p *GatewayProvider) Variant() string { return VariantGateway }

// ModelTag is the model_used value of successful responses.
func (p *GatewayProvider) ModelTag() string {
	return gatewayTag + ":" + p.model
}

func (p *GatewayProvider) GenerateChatResponse(ctx context.Context, userMessage string, chatCtx tutor.ChatContext, personality tutor.Personality) tutor.ChatResponse {
	ctx, cancel := withTimeout(ctx, p.timeout)
	defer cancel()

	personality = personality.Resolve(p.logger)
	resp, err := p.transport.Complete(ctx, ai.CompletionRequest{
		Model: p.model,
		Messages: []ai.Message{
			{Role: "system", Content: tutor.SystemPrompt(personality) + "\n" + tutor.ContextLine(chatCtx)},
			{Role: "user", Content: userMessage},
		},
	})
	if err != nil {
		p.logger.Error("gateway chat failed", "error", err, "kind", ai.KindOf(err), "model", p.model)
		return tutor.ChatErrorResponse(gatewayChatFailure)
	}

	return p.normalizer.ChatResponse(resp.Content, userMessage, chatCtx, p.ModelTag())
}

func (p *GatewayProvider) AnalyzeCode(ctx context.Context, code, language string) tutor.CodeAnalysisResponse {
	ctx, cancel := withTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.transport.Complete(ctx, ai.CompletionRequest{
		Model: p.model,
		Messages: []ai.Message{
			{Role: "system", Content: tutor.AnalysisSystemPrompt(language)},
			{Role: "user", Content: tutor.AnalysisPrompt(code, language)},
		},
	})
	if err != nil {
		p.logger.Error("gateway analysis failed", "error", err, "kind", ai.KindOf(err), "model", p.model)
		return tutor.AnalysisErrorResponse(gatewayAnalysisFailure)
	}

	return tutor.CodeAnalysisResponse{
		AIAnalysis: resp.Content,
		Confidence: gatewayConfidence,
		ModelUsed:  p.ModelTag(),
	}
}

func (p *GatewayProvider) HealthCheck(ctx context.Context) error {
	return p.transport.HealthCheck(ctx)
}
