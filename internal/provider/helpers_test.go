package provider_test

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/p-n-ai/pai-ai-engine/internal/tutor"
)

// recordingHandler keeps every record so tests can count warnings.
type recordingHandler struct {
	mu      sync.Mutex
	records []slog.Record
}

func (h *recordingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *recordingHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	h.records = append(h.records, r.Clone())
	h.mu.Unlock()
	return nil
}

func (h *recordingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *recordingHandler) WithGroup(string) slog.Handler      { return h }

func (h *recordingHandler) count(level slog.Level) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, r := range h.records {
		if r.Level == level {
			n++
		}
	}
	return n
}

func newRecordingLogger() (*slog.Logger, *recordingHandler) {
	h := &recordingHandler{}
	return slog.New(h), h
}

// fakeEngine is a scripted LocalEngine.
type fakeEngine struct {
	chat     tutor.ChatResponse
	analysis tutor.CodeAnalysisResponse
	err      error

	gotMessage     string
	gotPersonality tutor.Personality
	gotDeadline    bool
}

func (f *fakeEngine) GenerateResponse(ctx context.Context, message string, _ tutor.ChatContext, personality tutor.Personality) (tutor.ChatResponse, error) {
	f.gotMessage = message
	f.gotPersonality = personality
	_, f.gotDeadline = ctx.Deadline()
	if f.err != nil {
		return tutor.ChatResponse{}, f.err
	}
	return f.chat, nil
}

func (f *fakeEngine) AnalyzeWithAI(ctx context.Context, _, _ string) (tutor.CodeAnalysisResponse, error) {
	_, f.gotDeadline = ctx.Deadline()
	if f.err != nil {
		return tutor.CodeAnalysisResponse{}, f.err
	}
	return f.analysis, nil
}

// memoryCache is an in-process AnalysisCache.
type memoryCache struct {
	mu     sync.Mutex
	values map[string]tutor.CodeAnalysisResponse
	sets   int
	getErr error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{values: map[string]tutor.CodeAnalysisResponse{}}
}

func (c *memoryCache) GetJSON(_ context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return false, c.getErr
	}
	v, ok := c.values[key]
	if ok {
		*dst.(*tutor.CodeAnalysisResponse) = v
	}
	return ok, nil
}

func (c *memoryCache) SetJSON(_ context.Context, key string, v any, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = v.(tutor.CodeAnalysisResponse)
	c.sets++
	return nil
}
