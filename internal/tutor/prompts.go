package tutor

import (
	"fmt"
	"log/slog"
)

// Personality selects the tone of the tutor's system prompt.
type Personality string

const (
	Encouraging Personality = "encouraging"
	Analytical  Personality = "analytical"
	Creative    Personality = "creative"
	Practical   Personality = "practical"
)

// DefaultPersonality is used for empty and unknown personalities.
const DefaultPersonality = Encouraging

var personalityPrompts = map[Personality]string{
	Encouraging: "You are an encouraging and supportive programming tutor. Always stay positive and help students build confidence.",
	Analytical:  "You are a precise and analytical programming tutor. Focus on logical problem-solving and detailed explanations.",
	Creative:    "You are a creative and innovative programming tutor. Encourage out-of-the-box thinking and creative solutions.",
	Practical:   "You are a practical and results-oriented programming tutor. Focus on real-world applications and industry best practices.",
}

// Personalities returns the known personalities in a stable order.
func Personalities() []Personality {
	return []Personality{Encouraging, Analytical, Creative, Practical}
}

// Valid reports whether p is one of the known personalities.
func (p Personality) Valid() bool {
	_, ok := personalityPrompts[p]
	return ok
}

// Resolve maps p to a known personality. Empty means the default; an
// unknown value is logged and replaced by the default.
func (p Personality) Resolve(logger *slog.Logger) Personality {
	if p == "" {
		return DefaultPersonality
	}
	if p.Valid() {
		return p
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger.Warn("unknown personality, using default", "personality", string(p), "default", string(DefaultPersonality))
	return DefaultPersonality
}

// SystemPrompt returns the fixed instruction for p, falling back to the
// default personality's prompt.
func SystemPrompt(p Personality) string {
	if prompt, ok := personalityPrompts[p]; ok {
		return prompt
	}
	return personalityPrompts[DefaultPersonality]
}

// ContextLine renders the one-line context summary sent with chat prompts.
func ContextLine(chatCtx ChatContext) string {
	return "Context: " + chatCtx.Topic()
}

// AnalysisSystemPrompt is the system instruction for code analysis.
func AnalysisSystemPrompt(language string) string {
	return fmt.Sprintf("You are a code analysis expert. Analyze the provided %s code.", language)
}

// AnalysisPrompt asks for improvement suggestions on code.
func AnalysisPrompt(code, language string) string {
	return fmt.Sprintf("Analyze this %s code and provide suggestions for improvement:\n\n%s\n\nSuggestions:", language, code)
}
