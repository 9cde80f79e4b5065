package provider

import (
	"context"
	"log/slog"
	"time"

	"github.com/p-n-ai/pai-ai-engine/internal/ai"
	"github.com/p-n-ai/pai-ai-engine/internal/localengine"
	"github.com/p-n-ai/pai-ai-engine/internal/platform/config"
	"github.com/p-n-ai/pai-ai-engine/internal/tutor"
)

const (
	localChatFailure     = "I apologize, but I'm having trouble processing your request with the local model."
	localAnalysisFailure = "Unable to perform local AI analysis at this time."
)

// LocalProvider delegates to a LocalEngine and passes its results through
// unchanged.
type LocalProvider struct {
	engine  LocalEngine
	timeout time.Duration
	logger  *slog.Logger
}

// NewLocalProvider builds the local adapter.
func NewLocalProvider(cfg config.LocalConfig, opts ...Option) *LocalProvider {
	return newLocalProvider(cfg, newOptions(opts))
}

func newLocalProvider(cfg config.LocalConfig, o *options) *LocalProvider {
	timeout := seconds(cfg.Timeout)
	engine := o.engine
	if engine == nil {
		transport := ai.NewOllamaProvider(cfg.URL,
			ai.WithOllamaModel(cfg.Model),
			ai.WithOllamaHTTPClient(o.httpClient(timeout)),
		)
		engine = localengine.NewEngine(localengine.EngineConfig{
			Transport:  transport,
			Model:      cfg.Model,
			Normalizer: o.normalizer(),
			Logger:     o.logger,
		})
	}
	return &LocalProvider{
		engine:  engine,
		timeout: timeout,
		logger:  o.logger,
	}
}

func (p *LocalProvider) Variant() string { return VariantLocal }

// ModelTag is the engine's model_used value, or "" when the engine does
// not report one.
func (p *LocalProvider) ModelTag() string {
	if t, ok := p.engine.(interface{ ModelTag() string }); ok {
		return t.ModelTag()
	}
	return ""
}

func (p *LocalProvider) GenerateChatResponse(ctx context.Context, userMessage string, chatCtx tutor.ChatContext, personality tutor.Personality) tutor.ChatResponse {
	ctx, cancel := withTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.engine.GenerateResponse(ctx, userMessage, chatCtx, personality)
	if err != nil {
		p.logger.Error("local chat failed", "error", err, "kind", ai.KindOf(err))
		return tutor.ChatErrorResponse(localChatFailure)
	}
	return resp
}

func (p *LocalProvider) AnalyzeCode(ctx context.Context, code, language string) tutor.CodeAnalysisResponse {
	ctx, cancel := withTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.engine.AnalyzeWithAI(ctx, code, language)
	if err != nil {
		p.logger.Error("local analysis failed", "error", err, "kind", ai.KindOf(err), "language", language)
		return tutor.AnalysisErrorResponse(localAnalysisFailure)
	}
	return resp
}

// HealthCheck checks the engine when it supports it.
func (p *LocalProvider) HealthCheck(ctx context.Context) error {
	if hc, ok := p.engine.(tutor.HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}
