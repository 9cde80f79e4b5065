package provider_test

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/p-n-ai/pai-ai-engine/internal/ai"
	"github.com/p-n-ai/pai-ai-engine/internal/analytics"
	"github.com/p-n-ai/pai-ai-engine/internal/platform/config"
	"github.com/p-n-ai/pai-ai-engine/internal/provider"
	"github.com/p-n-ai/pai-ai-engine/internal/tutor"
)

func TestAnalysisKey(t *testing.T) {
	a := provider.AnalysisKey("tutor:gateway", "x = 1", "python")
	b := provider.AnalysisKey("tutor:gateway", "x = 1", "ruby")
	c := provider.AnalysisKey("tutor:hosted", "x = 1", "python")

	if a == b || a == c {
		t.Errorf("keys should differ by language and namespace: %s %s %s", a, b, c)
	}
	if !strings.HasPrefix(a, "tutor:gateway:") || len(a) != len("tutor:gateway:")+64 {
		t.Errorf("key = %q, want namespace plus 64 hex chars", a)
	}
	if a != provider.AnalysisKey("tutor:gateway", "x = 1", "python") {
		t.Error("AnalysisKey() is not deterministic")
	}
}

func TestWithAnalysisCache(t *testing.T) {
	mock := ai.NewMockProvider("Use a dict comprehension.")
	cache := newMemoryCache()
	p := provider.WithAnalysisCache(
		provider.Resolve("gateway", config.AIConfig{}, provider.WithGatewayTransport(mock)),
		cache, time.Hour, "tutor:gateway",
	)

	first := p.AnalyzeCode(context.Background(), "d = {}", "python")
	second := p.AnalyzeCode(context.Background(), "d = {}", "python")

	if first != second {
		t.Errorf("cached result differs: %+v vs %+v", first, second)
	}
	if mock.Calls() != 1 {
		t.Errorf("transport calls = %d, want 1", mock.Calls())
	}
	if cache.sets != 1 {
		t.Errorf("cache sets = %d, want 1", cache.sets)
	}

	p.AnalyzeCode(context.Background(), "d = {}", "ruby")
	if mock.Calls() != 2 {
		t.Errorf("different language should miss the cache, calls = %d", mock.Calls())
	}

	if provider.Variant(p) != provider.VariantGateway {
		t.Errorf("Variant() through decorator = %q", provider.Variant(p))
	}
}

func TestWithAnalysisCache_SkipsErrorShapes(t *testing.T) {
	mock := &ai.MockProvider{Err: errors.New("down")}
	cache := newMemoryCache()
	p := provider.WithAnalysisCache(
		provider.Resolve("gateway", config.AIConfig{}, provider.WithGatewayTransport(mock)),
		cache, time.Hour, "ns",
	)

	p.AnalyzeCode(context.Background(), "x", "go")
	resp := p.AnalyzeCode(context.Background(), "x", "go")

	if !resp.IsError() {
		t.Errorf("resp = %+v, want error shape", resp)
	}
	if cache.sets != 0 {
		t.Errorf("error shapes must not be cached, sets = %d", cache.sets)
	}
	if mock.Calls() != 2 {
		t.Errorf("calls = %d, want 2", mock.Calls())
	}
}

func TestWithAnalysisCache_ReadFailureFallsThrough(t *testing.T) {
	mock := ai.NewMockProvider("ok")
	cache := newMemoryCache()
	cache.getErr = errors.New("redis down")
	p := provider.WithAnalysisCache(
		provider.Resolve("gateway", config.AIConfig{}, provider.WithGatewayTransport(mock)),
		cache, time.Hour, "ns",
	)

	if resp := p.AnalyzeCode(context.Background(), "x", "go"); resp.IsError() {
		t.Errorf("resp = %+v, want success despite cache failure", resp)
	}
}

func TestWithAnalysisCache_NilCache(t *testing.T) {
	inner := provider.Resolve("local", config.AIConfig{}, provider.WithLocalEngine(&fakeEngine{}))
	if got := provider.WithAnalysisCache(inner, nil, time.Hour, "ns"); got != inner {
		t.Error("nil cache should return the provider unchanged")
	}
}

func TestWithEvents(t *testing.T) {
	events := analytics.NewMemoryEventLogger()
	mock := ai.NewMockProvider("Use a for loop.")
	p := provider.WithEvents(
		provider.Resolve("gateway", config.AIConfig{Gateway: config.GatewayConfig{Model: "m"}}, provider.WithGatewayTransport(mock)),
		events, "",
	)

	chat := p.GenerateChatResponse(context.Background(), "loops?", tutor.ChatContext{tutor.ContextTopicKey: "iteration"}, tutor.Analytical)
	mock.Err = errors.New("down")
	analysis := p.AnalyzeCode(context.Background(), "x", "go")

	got := events.Events()
	if len(got) != 2 {
		t.Fatalf("recorded %d events, want 2", len(got))
	}

	if got[0].EventType != analytics.EventChatResponse || got[0].ModelUsed != chat.ModelUsed || got[0].Fallback {
		t.Errorf("chat event = %+v", got[0])
	}
	if got[0].Variant != provider.VariantGateway || got[0].ID == "" {
		t.Errorf("chat event variant/id = %q/%q", got[0].Variant, got[0].ID)
	}
	if got[0].Data["topic"] != "iteration" {
		t.Errorf("chat event data = %v", got[0].Data)
	}

	if got[1].EventType != analytics.EventCodeAnalysis || !got[1].Fallback || got[1].ModelUsed != analysis.ModelUsed {
		t.Errorf("analysis event = %+v", got[1])
	}
	if got[0].ID == got[1].ID {
		t.Error("event ids should be unique")
	}
}

type failingEvents struct{}

func (failingEvents) LogEvent(context.Context, analytics.Event) error {
	return errors.New("disk full")
}

func TestWithEvents_RecordingFailureIgnored(t *testing.T) {
	want := tutor.ChatResponse{Message: "Great job!", Suggestions: []string{}, Resources: []tutor.Resource{}, ModelUsed: "local-v1"}
	p := provider.WithEvents(
		provider.Resolve("local", config.AIConfig{}, provider.WithLocalEngine(&fakeEngine{chat: want})),
		failingEvents{}, "local",
	)

	got := p.GenerateChatResponse(context.Background(), "hi", nil, "")
	if got.Message != want.Message || got.ModelUsed != want.ModelUsed {
		t.Errorf("GenerateChatResponse() = %+v, want %+v", got, want)
	}
}

func TestDecorators_Stack(t *testing.T) {
	events := analytics.NewMemoryEventLogger()
	mock := ai.NewMockProvider("analysis")
	base := provider.Resolve("hosted-remote", config.AIConfig{}, provider.WithHostedTransport(mock))

	p := provider.WithEvents(provider.WithAnalysisCache(base, newMemoryCache(), time.Minute, "ns"), events, "")
	p.AnalyzeCode(context.Background(), "x", "go")
	p.AnalyzeCode(context.Background(), "x", "go")

	if mock.Calls() != 1 {
		t.Errorf("calls = %d, want 1", mock.Calls())
	}
	if n := len(events.Events()); n != 2 {
		t.Errorf("events = %d, want one per call", n)
	}
	if provider.Variant(p) != provider.VariantHosted {
		t.Errorf("Variant() = %q", provider.Variant(p))
	}
	if hc, ok := p.(tutor.HealthChecker); !ok || hc.HealthCheck(context.Background()) != nil {
		t.Error("decorated provider should forward HealthCheck")
	}
}

func TestDecorators_UseInjectedLogger(t *testing.T) {
	logger, records := newRecordingLogger()
	cache := newMemoryCache()
	cache.getErr = errors.New("redis down")
	base := provider.Resolve("local", config.AIConfig{}, provider.WithLocalEngine(&fakeEngine{}))

	p := provider.WithEvents(
		provider.WithAnalysisCache(base, cache, time.Minute, "ns", provider.WithLogger(logger)),
		failingEvents{}, "", provider.WithLogger(logger),
	)
	p.AnalyzeCode(context.Background(), "x", "go")

	// One cache read failure, one event recording failure.
	if n := records.count(slog.LevelWarn); n != 2 {
		t.Errorf("warnings on injected logger = %d, want 2", n)
	}
}

func TestAnalysisNamespace(t *testing.T) {
	gateway := func(model string) tutor.Provider {
		return provider.Resolve("gateway", config.AIConfig{Gateway: config.GatewayConfig{Model: model}},
			provider.WithGatewayTransport(ai.NewMockProvider("analysis")))
	}
	hosted := provider.Resolve("hosted-remote", config.AIConfig{Hosted: config.HostedConfig{Model: "gemini-1.5-flash"}},
		provider.WithHostedTransport(ai.NewMockProvider("analysis")))

	tests := []struct {
		name string
		p    tutor.Provider
		want string
	}{
		{"gateway", gateway("m1"), "tutor:analysis:gateway:openrouter:m1"},
		{"hosted", hosted, "tutor:analysis:hosted-remote:gemini-1.5-flash"},
		{"decorated", provider.WithEvents(gateway("m2"), analytics.NewMemoryEventLogger(), ""), "tutor:analysis:gateway:openrouter:m2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := provider.AnalysisNamespace(tt.p); got != tt.want {
				t.Errorf("AnalysisNamespace() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWithAnalysisCache_ModelChangeMisses(t *testing.T) {
	cache := newMemoryCache()
	wrap := func(model string) (tutor.Provider, *ai.MockProvider) {
		mock := ai.NewMockProvider("analysis")
		base := provider.Resolve("gateway", config.AIConfig{Gateway: config.GatewayConfig{Model: model}},
			provider.WithGatewayTransport(mock))
		return provider.WithAnalysisCache(base, cache, time.Hour, provider.AnalysisNamespace(base)), mock
	}

	before, _ := wrap("old-model")
	before.AnalyzeCode(context.Background(), "x", "go")

	after, mock := wrap("new-model")
	resp := after.AnalyzeCode(context.Background(), "x", "go")

	if mock.Calls() != 1 {
		t.Errorf("transport calls after model change = %d, want 1", mock.Calls())
	}
	if resp.ModelUsed != "openrouter:new-model" {
		t.Errorf("ModelUsed = %q, want openrouter:new-model", resp.ModelUsed)
	}
}
