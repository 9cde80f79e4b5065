package provider

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/oauth2/google"

	"github.com/p-n-ai/pai-ai-engine/internal/ai"
	"github.com/p-n-ai/pai-ai-engine/internal/platform/config"
	"github.com/p-n-ai/pai-ai-engine/internal/tutor"
)

const (
	cloudPlatformScope    = "https://www.googleapis.com/auth/cloud-platform"
	hostedDefaultModel    = "gemini-1.5-pro"
	hostedConfidence      = 0.95
	hostedChatFailure     = "I apologize, but I'm having trouble processing your request right now."
	hostedAnalysisFailure = "Unable to perform AI analysis at this time."
)

// HostedProvider calls a Gemini model on Vertex AI.
//
// Unlike the gateway, successful responses report the bare model name as
// model_used and analyses carry confidence 0.95.
type HostedProvider struct {
	transport  ai.Provider
	model      string
	timeout    time.Duration
	normalizer *tutor.Normalizer
	logger     *slog.Logger
}

// NewHostedProvider builds the hosted adapter.
func NewHostedProvider(cfg config.HostedConfig, opts ...Option) *HostedProvider {
	return newHostedProvider(cfg, newOptions(opts))
}

func newHostedProvider(cfg config.HostedConfig, o *options) *HostedProvider {
	timeout := seconds(cfg.Timeout)
	model := cfg.Model
	if model == "" {
		model = hostedDefaultModel
	}

	transport := o.hostedTransport
	if transport == nil {
		if cfg.ProjectID == "" {
			o.logger.Warn("hosted project id not configured, requests will fail", "env", "LEARN_AI_HOSTED_PROJECT")
		}
		client, err := google.DefaultClient(context.Background(), cloudPlatformScope)
		if err != nil {
			o.logger.Warn("application default credentials unavailable, requests will fail", "error", err)
			client = o.httpClient(timeout)
		} else {
			client.Timeout = timeout
		}
		transport = ai.NewGoogleProvider("",
			ai.WithVertex(cfg.ProjectID, cfg.Location),
			ai.WithGoogleModel(model),
			ai.WithGoogleHTTPClient(client),
		)
	}

	return &HostedProvider{
		transport:  transport,
		model:      model,
		timeout:    timeout,
		normalizer: o.normalizer(),
		logger:     o.logger,
	}
}

func (p *HostedProvider) Variant() string { return VariantHosted }

// ModelTag is the model_used value of successful responses: the bare
// model name.
func (p *HostedProvider) ModelTag() string { return p.model }

func (p *HostedProvider) GenerateChatResponse(ctx context.Context, userMessage string, chatCtx tutor.ChatContext, personality tutor.Personality) tutor.ChatResponse {
	ctx, cancel := withTimeout(ctx, p.timeout)
	defer cancel()

	personality = personality.Resolve(p.logger)
	prompt := tutor.SystemPrompt(personality) + "\n" + tutor.ContextLine(chatCtx) +
		"\n\nUser: " + userMessage + "\nAssistant:"

	resp, err := p.transport.Complete(ctx, ai.CompletionRequest{
		Model:    p.model,
		Messages: []ai.Message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		p.logger.Error("hosted chat failed", "error", err, "kind", ai.KindOf(err), "model", p.model)
		return tutor.ChatErrorResponse(hostedChatFailure)
	}

	return p.normalizer.ChatResponse(resp.Content, userMessage, chatCtx, p.model)
}

func (p *HostedProvider) AnalyzeCode(ctx context.Context, code, language string) tutor.CodeAnalysisResponse {
	ctx, cancel := withTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.transport.Complete(ctx, ai.CompletionRequest{
		Model:    p.model,
		Messages: []ai.Message{{Role: "user", Content: tutor.AnalysisPrompt(code, language)}},
	})
	if err != nil {
		p.logger.Error("hosted analysis failed", "error", err, "kind", ai.KindOf(err), "model", p.model)
		return tutor.AnalysisErrorResponse(hostedAnalysisFailure)
	}

	return tutor.CodeAnalysisResponse{
		AIAnalysis: resp.Content,
		Confidence: hostedConfidence,
		ModelUsed:  p.model,
	}
}

func (p *HostedProvider) HealthCheck(ctx context.Context) error {
	return p.transport.HealthCheck(ctx)
}
