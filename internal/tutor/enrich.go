package tutor

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/p-n-ai/pai-ai-engine/internal/curriculum"
)

// MaxSuggestions caps the suggestions attached to a chat response.
const MaxSuggestions = 3

var suggestionRules = []struct {
	keyword    string
	suggestion string
}{
	{"loop", "Consider using appropriate loop structures"},
	{"function", "Break down the problem into smaller functions"},
	{"variable", "Use descriptive variable names"},
}

// ExtractSuggestions scans text for known keywords, case-insensitively,
// and returns the matching suggestions in rule order.
func ExtractSuggestions(text string) []string {
	folded := cases.Fold().String(text)
	suggestions := []string{}
	for _, rule := range suggestionRules {
		if len(suggestions) == MaxSuggestions {
			break
		}
		if strings.Contains(folded, rule.keyword) {
			suggestions = append(suggestions, rule.suggestion)
		}
	}
	return suggestions
}

// Normalizer enriches successful backend replies with suggestions and
// catalog resources. The zero value uses the built-in catalog.
type Normalizer struct {
	Catalog *curriculum.Catalog
}

// NewNormalizer returns a Normalizer over catalog. A nil catalog means the
// built-in one.
func NewNormalizer(catalog *curriculum.Catalog) *Normalizer {
	return &Normalizer{Catalog: catalog}
}

func (n *Normalizer) catalog() *curriculum.Catalog {
	if n == nil || n.Catalog == nil {
		return curriculum.DefaultCatalog()
	}
	return n.Catalog
}

// RecommendResources returns the catalog resources whose keywords appear in
// userMessage. chatCtx is not consulted yet.
func (n *Normalizer) RecommendResources(userMessage string, chatCtx ChatContext) []Resource {
	resources := []Resource{}
	for _, entry := range n.catalog().Match(userMessage) {
		resources = append(resources, Resource{Title: entry.Title, URL: entry.URL, Type: entry.Type})
	}
	return resources
}

// ChatResponse builds the success response for reply text produced by model.
func (n *Normalizer) ChatResponse(reply, userMessage string, chatCtx ChatContext, model string) ChatResponse {
	return ChatResponse{
		Message:     reply,
		Suggestions: ExtractSuggestions(reply),
		Resources:   n.RecommendResources(userMessage, chatCtx),
		ModelUsed:   model,
	}
}

// RecommendResources matches userMessage against the built-in catalog.
func RecommendResources(userMessage string, chatCtx ChatContext) []Resource {
	var n *Normalizer
	return n.RecommendResources(userMessage, chatCtx)
}
