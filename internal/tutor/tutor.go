// Package tutor defines the provider contract shared by every tutoring
// backend: request and response values, personality prompts, canonical
// error shapes and heuristic response enrichment.
package tutor

import "context"

// ContextTopicKey is the ChatContext key naming the lesson topic.
const ContextTopicKey = "current_topic"

// DefaultTopic is used when a ChatContext carries no topic.
const DefaultTopic = "general programming"

// ErrorModel is the model_used tag of every error-shaped response.
const ErrorModel = "error"

// Provider answers chat messages and analyzes code. Implementations never
// return errors: failures come back as error-shaped responses.
type Provider interface {
	GenerateChatResponse(ctx context.Context, userMessage string, chatCtx ChatContext, personality Personality) ChatResponse
	AnalyzeCode(ctx context.Context, code, language string) CodeAnalysisResponse
}

// HealthChecker is implemented by providers that can check their backend.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// ChatContext carries conversation metadata alongside a chat message.
type ChatContext map[string]string

// Topic returns the current topic, or DefaultTopic when none is set.
func (c ChatContext) Topic() string {
	if t := c[ContextTopicKey]; t != "" {
		return t
	}
	return DefaultTopic
}

// Resource is a learning resource recommended alongside a chat reply.
type Resource struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Type  string `json:"type"`
}

// ChatResponse is the result of GenerateChatResponse.
type ChatResponse struct {
	Message     string     `json:"message"`
	Suggestions []string   `json:"suggestions"`
	Resources   []Resource `json:"resources"`
	ModelUsed   string     `json:"model_used"`
}

// IsError reports whether r is the error shape.
func (r ChatResponse) IsError() bool {
	return r.ModelUsed == ErrorModel
}

// CodeAnalysisResponse is the result of AnalyzeCode.
type CodeAnalysisResponse struct {
	AIAnalysis string  `json:"ai_analysis"`
	Confidence float64 `json:"confidence"`
	ModelUsed  string  `json:"model_used"`
}

// IsError reports whether r is the error shape.
func (r CodeAnalysisResponse) IsError() bool {
	return r.ModelUsed == ErrorModel
}

// ChatErrorResponse builds the canonical failed chat response.
func ChatErrorResponse(message string) ChatResponse {
	return ChatResponse{
		Message:     message,
		Suggestions: []string{},
		Resources:   []Resource{},
		ModelUsed:   ErrorModel,
	}
}

// AnalysisErrorResponse builds the canonical failed analysis response.
func AnalysisErrorResponse(analysis string) CodeAnalysisResponse {
	return CodeAnalysisResponse{
		AIAnalysis: analysis,
		Confidence: 0.0,
		ModelUsed:  ErrorModel,
	}
}
