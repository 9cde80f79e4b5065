// Package provider selects and builds the tutoring backend. Each adapter
// turns its upstream's replies and failures into the tutor.Provider
// contract: callers always get a well-formed response, never an error.
package provider

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/p-n-ai/pai-ai-engine/internal/ai"
	"github.com/p-n-ai/pai-ai-engine/internal/curriculum"
	"github.com/p-n-ai/pai-ai-engine/internal/platform/config"
	"github.com/p-n-ai/pai-ai-engine/internal/tutor"
)

// Selector keys, also reported by Variant.
const (
	VariantLocal   = config.ProviderLocal
	VariantGateway = config.ProviderGateway
	VariantHosted  = config.ProviderHosted
)

const defaultTimeout = 60 * time.Second

// LocalEngine is the reasoning engine behind the local adapter.
type LocalEngine interface {
	GenerateResponse(ctx context.Context, message string, chatCtx tutor.ChatContext, personality tutor.Personality) (tutor.ChatResponse, error)
	AnalyzeWithAI(ctx context.Context, code, language string) (tutor.CodeAnalysisResponse, error)
}

// Option configures Resolve and the adapter constructors.
type Option func(*options)

type options struct {
	logger           *slog.Logger
	client           *http.Client
	engine           LocalEngine
	catalog          *curriculum.Catalog
	hostedTransport  ai.Provider
	gatewayTransport ai.Provider
}

// WithLogger sets the logger used for warnings and absorbed failures.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithHTTPClient sets the HTTP client for the gateway and local transports.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		o.client = client
	}
}

// WithLocalEngine injects the engine behind the local adapter. Without it
// the adapter talks to the configured Ollama server.
func WithLocalEngine(engine LocalEngine) Option {
	return func(o *options) {
		o.engine = engine
	}
}

// WithCatalog sets the resource catalog used for recommendations.
func WithCatalog(catalog *curriculum.Catalog) Option {
	return func(o *options) {
		o.catalog = catalog
	}
}

// WithHostedTransport replaces the Vertex AI transport.
func WithHostedTransport(transport ai.Provider) Option {
	return func(o *options) {
		o.hostedTransport = transport
	}
}

// WithGatewayTransport replaces the OpenRouter transport.
func WithGatewayTransport(transport ai.Provider) Option {
	return func(o *options) {
		o.gatewayTransport = transport
	}
}

func newOptions(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}

func (o *options) httpClient(timeout time.Duration) *http.Client {
	if o.client != nil {
		return o.client
	}
	return &http.Client{Timeout: timeout}
}

func (o *options) normalizer() *tutor.Normalizer {
	return tutor.NewNormalizer(o.catalog)
}

// Resolve builds the provider named by name. An empty name means
// cfg.Provider, and then local. Unknown names log one warning and resolve
// to the local adapter, so Resolve never fails.
func Resolve(name string, cfg config.AIConfig, opts ...Option) tutor.Provider {
	o := newOptions(opts)

	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		key = strings.ToLower(strings.TrimSpace(cfg.Provider))
	}
	if key == "" {
		key = VariantLocal
	}

	switch key {
	case VariantHosted:
		return newHostedProvider(cfg.Hosted, o)
	case VariantGateway:
		return newGatewayProvider(cfg.Gateway, o)
	case VariantLocal:
		return newLocalProvider(cfg.Local, o)
	default:
		o.logger.Warn("unknown AI provider, falling back to local", "provider", key)
		return newLocalProvider(cfg.Local, o)
	}
}

// Variant reports which backend p was resolved to, looking through
// decorators. It returns "" for providers built outside this package.
func Variant(p tutor.Provider) string {
	if v, ok := p.(interface{ Variant() string }); ok {
		return v.Variant()
	}
	return ""
}

// ModelTag reports the model_used value p tags successful responses with,
// looking through decorators.
func ModelTag(p tutor.Provider) string {
	if t, ok := p.(interface{ ModelTag() string }); ok {
		return t.ModelTag()
	}
	return ""
}

// AnalysisNamespace is the analysis cache namespace for p. It names both
// the backend and its model, so a model change never serves entries tagged
// with the previous model.
func AnalysisNamespace(p tutor.Provider) string {
	return "tutor:analysis:" + Variant(p) + ":" + ModelTag(p)
}

func seconds(n int) time.Duration {
	if n <= 0 {
		return defaultTimeout
	}
	return time.Duration(n) * time.Second
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
