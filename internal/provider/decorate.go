package provider

import (
	"context"
	"encoding/hex"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"

	"github.com/p-n-ai/pai-ai-engine/internal/analytics"
	"github.com/p-n-ai/pai-ai-engine/internal/tutor"
)

// decorated forwards Variant and HealthCheck to the wrapped provider.
type decorated struct {
	tutor.Provider
}

func (d decorated) Variant() string { return Variant(d.Provider) }

func (d decorated) ModelTag() string { return ModelTag(d.Provider) }

func (d decorated) HealthCheck(ctx context.Context) error {
	if hc, ok := d.Provider.(tutor.HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}

// AnalysisCache stores analysis results as JSON. *cache.Cache implements it.
type AnalysisCache interface {
	GetJSON(ctx context.Context, key string, dst any) (bool, error)
	SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error
}

type cachedProvider struct {
	decorated
	cache     AnalysisCache
	ttl       time.Duration
	namespace string
	logger    *slog.Logger
}

// WithAnalysisCache memoizes successful AnalyzeCode results in cache for
// ttl. Error-shaped results are never stored, and cache failures fall
// through to p. Only WithLogger is honoured in opts.
func WithAnalysisCache(p tutor.Provider, cache AnalysisCache, ttl time.Duration, namespace string, opts ...Option) tutor.Provider {
	if cache == nil {
		return p
	}
	return &cachedProvider{
		decorated: decorated{Provider: p},
		cache:     cache,
		ttl:       ttl,
		namespace: namespace,
		logger:    newOptions(opts).logger,
	}
}

// AnalysisKey is the cache key for analyzing code written in language.
func AnalysisKey(namespace, code, language string) string {
	h, _ := blake2b.New256(nil)
	h.Write([]byte(language))
	h.Write([]byte{0})
	h.Write([]byte(code))
	return namespace + ":" + hex.EncodeToString(h.Sum(nil))
}

func (c *cachedProvider) AnalyzeCode(ctx context.Context, code, language string) tutor.CodeAnalysisResponse {
	key := AnalysisKey(c.namespace, code, language)

	var cached tutor.CodeAnalysisResponse
	found, err := c.cache.GetJSON(ctx, key, &cached)
	if err != nil {
		c.logger.Warn("analysis cache read failed", "error", err)
	} else if found && !cached.IsError() {
		c.logger.Debug("analysis cache hit", "language", language)
		return cached
	}

	resp := c.Provider.AnalyzeCode(ctx, code, language)
	if resp.IsError() {
		return resp
	}
	if err := c.cache.SetJSON(ctx, key, resp, c.ttl); err != nil {
		c.logger.Warn("analysis cache write failed", "error", err)
	}
	return resp
}

type eventProvider struct {
	decorated
	events  analytics.EventLogger
	variant string
	logger  *slog.Logger
}

// WithEvents records one analytics event per call made through p.
// Recording failures are logged and never change the response. Only
// WithLogger is honoured in opts.
func WithEvents(p tutor.Provider, events analytics.EventLogger, variant string, opts ...Option) tutor.Provider {
	if events == nil {
		return p
	}
	if variant == "" {
		variant = Variant(p)
	}
	return &eventProvider{
		decorated: decorated{Provider: p},
		events:    events,
		variant:   variant,
		logger:    newOptions(opts).logger,
	}
}

func (e *eventProvider) GenerateChatResponse(ctx context.Context, userMessage string, chatCtx tutor.ChatContext, personality tutor.Personality) tutor.ChatResponse {
	start := time.Now()
	resp := e.Provider.GenerateChatResponse(ctx, userMessage, chatCtx, personality)

	e.record(ctx, analytics.Event{
		EventType: analytics.EventChatResponse,
		ModelUsed: resp.ModelUsed,
		Fallback:  resp.IsError(),
		Data: map[string]any{
			"latency_ms":  time.Since(start).Milliseconds(),
			"message_len": len(userMessage),
			"topic":       chatCtx.Topic(),
			"personality": string(personality),
			"suggestions": len(resp.Suggestions),
			"resources":   len(resp.Resources),
		},
	})
	return resp
}

func (e *eventProvider) AnalyzeCode(ctx context.Context, code, language string) tutor.CodeAnalysisResponse {
	start := time.Now()
	resp := e.Provider.AnalyzeCode(ctx, code, language)

	e.record(ctx, analytics.Event{
		EventType: analytics.EventCodeAnalysis,
		ModelUsed: resp.ModelUsed,
		Fallback:  resp.IsError(),
		Data: map[string]any{
			"latency_ms": time.Since(start).Milliseconds(),
			"language":   language,
			"code_len":   len(code),
			"confidence": resp.Confidence,
		},
	})
	return resp
}

func (e *eventProvider) record(ctx context.Context, event analytics.Event) {
	event.ID = uuid.NewString()
	event.Variant = e.variant
	event.CreatedAt = time.Now()

	// The caller's deadline may already have passed.
	if err := e.events.LogEvent(context.WithoutCancel(ctx), event); err != nil {
		e.logger.Warn("failed to record tutor event", "error", err, "type", event.EventType)
	}
}
