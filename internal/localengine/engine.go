// Package localengine is the default reasoning engine behind the local
// tutor provider. It prompts a self-hosted model through an ai.Provider.
package localengine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/p-n-ai/pai-ai-engine/internal/ai"
	"github.com/p-n-ai/pai-ai-engine/internal/tutor"
)

const (
	defaultModel       = "llama3:8b"
	analysisConfidence = 0.80
)

// EngineConfig holds dependencies for the local engine.
type EngineConfig struct {
	Transport  ai.Provider
	Model      string            // default llama3:8b
	Normalizer *tutor.Normalizer // default built-in catalog
	Logger     *slog.Logger
}

// Engine generates chat replies and code analyses with a local model.
type Engine struct {
	transport  ai.Provider
	model      string
	normalizer *tutor.Normalizer
	logger     *slog.Logger
}

// NewEngine creates a new local engine.
func NewEngine(cfg EngineConfig) *Engine {
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	normalizer := cfg.Normalizer
	if normalizer == nil {
		normalizer = tutor.NewNormalizer(nil)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		transport:  cfg.Transport,
		model:      model,
		normalizer: normalizer,
		logger:     logger,
	}
}

// ModelTag is the model_used value of successful responses.
func (e *Engine) ModelTag() string {
	return "local:" + e.model
}

// GenerateResponse answers message in the tone of personality.
func (e *Engine) GenerateResponse(ctx context.Context, message string, chatCtx tutor.ChatContext, personality tutor.Personality) (tutor.ChatResponse, error) {
	if e.transport == nil {
		return tutor.ChatResponse{}, fmt.Errorf("local engine has no transport")
	}
	personality = personality.Resolve(e.logger)

	resp, err := e.transport.Complete(ctx, ai.CompletionRequest{
		Model: e.model,
		Messages: []ai.Message{
			{Role: "system", Content: tutor.SystemPrompt(personality) + "\n" + tutor.ContextLine(chatCtx)},
			{Role: "user", Content: message},
		},
	})
	if err != nil {
		return tutor.ChatResponse{}, fmt.Errorf("local completion: %w", err)
	}

	reply := strings.TrimSpace(resp.Content)
	if reply == "" {
		return tutor.ChatResponse{}, fmt.Errorf("local completion: empty reply")
	}

	e.logger.Debug("local reply generated",
		"model", e.model,
		"personality", string(personality),
		"tokens", resp.TotalTokens(),
	)
	return e.normalizer.ChatResponse(reply, message, chatCtx, e.ModelTag()), nil
}

// AnalyzeWithAI asks the local model for improvement suggestions on code.
func (e *Engine) AnalyzeWithAI(ctx context.Context, code, language string) (tutor.CodeAnalysisResponse, error) {
	if e.transport == nil {
		return tutor.CodeAnalysisResponse{}, fmt.Errorf("local engine has no transport")
	}

	resp, err := e.transport.Complete(ctx, ai.CompletionRequest{
		Model: e.model,
		Messages: []ai.Message{
			{Role: "system", Content: tutor.AnalysisSystemPrompt(language)},
			{Role: "user", Content: tutor.AnalysisPrompt(code, language)},
		},
	})
	if err != nil {
		return tutor.CodeAnalysisResponse{}, fmt.Errorf("local analysis: %w", err)
	}

	return tutor.CodeAnalysisResponse{
		AIAnalysis: strings.TrimSpace(resp.Content),
		Confidence: analysisConfidence,
		ModelUsed:  e.ModelTag(),
	}, nil
}

// HealthCheck pings the underlying model server.
func (e *Engine) HealthCheck(ctx context.Context) error {
	if e.transport == nil {
		return fmt.Errorf("local engine has no transport")
	}
	return e.transport.HealthCheck(ctx)
}
