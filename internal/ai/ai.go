// Package ai provides the black-box model transports used by the tutor
// providers: an OpenAI-compatible gateway, Google Gemini / Vertex AI, and a
// self-hosted Ollama server.
package ai

import "context"

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is the input to an AI completion.
type CompletionRequest struct {
	Messages    []Message `json:"messages"`
	Model       string    `json:"model,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
}

// CompletionResponse is the output from an AI completion.
type CompletionResponse struct {
	Content      string `json:"content"`
	Model        string `json:"model"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
}

// TotalTokens returns the sum of input and output tokens.
func (r CompletionResponse) TotalTokens() int {
	return r.InputTokens + r.OutputTokens
}

// Provider is the interface every model transport implements.
type Provider interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error)
	HealthCheck(ctx context.Context) error
}
