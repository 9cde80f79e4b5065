package ai

import (
	"context"
	"sync"
)

// MockProvider is a test double for AI providers.
type MockProvider struct {
	Response    string
	Model       string
	Err         error
	LastRequest *CompletionRequest // captures the last request for inspection

	mu    sync.Mutex
	calls int
}

// NewMockProvider creates a MockProvider that returns the given response.
func NewMockProvider(response string) *MockProvider {
	return &MockProvider{Response: response}
}

func (m *MockProvider) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	m.mu.Lock()
	m.LastRequest = &req
	m.calls++
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return CompletionResponse{}, transportError("mock", err)
	}
	if m.Err != nil {
		return CompletionResponse{}, m.Err
	}

	model := m.Model
	if model == "" {
		model = req.Model
	}
	if model == "" {
		model = "mock"
	}
	return CompletionResponse{
		Content:      m.Response,
		Model:        model,
		InputTokens:  10,
		OutputTokens: len(m.Response),
	}, nil
}

// Calls returns how many times Complete was invoked.
func (m *MockProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MockProvider) HealthCheck(_ context.Context) error {
	return m.Err
}
