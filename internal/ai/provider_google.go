package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const (
	defaultGeminiBaseURL  = "https://generativelanguage.googleapis.com/v1beta"
	defaultGoogleModel    = "gemini-1.5-pro"
	defaultVertexLocation = "us-central1"
)

// GoogleProvider implements Provider for Google Gemini. It talks either to the
// Gemini developer API (API key) or, when configured with WithVertex, to the
// Vertex AI publisher model endpoint of a Google Cloud project.
type GoogleProvider struct {
	apiKey   string
	baseURL  string
	model    string
	project  string
	location string
	client   *http.Client
}

// GoogleOption configures a GoogleProvider.
type GoogleOption func(*GoogleProvider)

// WithGoogleBaseURL sets the base URL (for testing).
func WithGoogleBaseURL(url string) GoogleOption {
	return func(p *GoogleProvider) {
		p.baseURL = strings.TrimSuffix(url, "/")
	}
}

// WithGoogleHTTPClient sets a custom HTTP client. Vertex AI expects a client
// that attaches OAuth2 credentials.
func WithGoogleHTTPClient(client *http.Client) GoogleOption {
	return func(p *GoogleProvider) {
		p.client = client
	}
}

// WithGoogleModel sets the model used when a request does not name one.
func WithGoogleModel(model string) GoogleOption {
	return func(p *GoogleProvider) {
		if model != "" {
			p.model = model
		}
	}
}

// WithVertex switches the provider to the Vertex AI endpoint for project in
// location. An empty location means us-central1.
func WithVertex(project, location string) GoogleOption {
	return func(p *GoogleProvider) {
		if location == "" {
			location = defaultVertexLocation
		}
		p.project = project
		p.location = location
	}
}

// NewGoogleProvider creates a new Google Gemini provider.
func NewGoogleProvider(apiKey string, opts ...GoogleOption) *GoogleProvider {
	p := &GoogleProvider{
		apiKey: apiKey,
		model:  defaultGoogleModel,
		client: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Model returns the default model identifier.
func (p *GoogleProvider) Model() string {
	return p.model
}

// Vertex reports whether the provider targets Vertex AI.
func (p *GoogleProvider) Vertex() bool {
	return p.location != ""
}

func (p *GoogleProvider) base() string {
	if p.baseURL != "" {
		return p.baseURL
	}
	if p.Vertex() {
		return fmt.Sprintf("https://%s-aiplatform.googleapis.com/v1", p.location)
	}
	return defaultGeminiBaseURL
}

// modelURL returns the resource URL for model, with an optional ":method" suffix.
func (p *GoogleProvider) modelURL(model, method string) string {
	var u string
	if p.Vertex() {
		u = fmt.Sprintf("%s/projects/%s/locations/%s/publishers/google/models/%s",
			p.base(), url.PathEscape(p.project), p.location, model)
	} else {
		u = fmt.Sprintf("%s/models/%s", p.base(), model)
	}
	if method != "" {
		u += ":" + method
	}
	if p.apiKey != "" {
		u += "?key=" + url.QueryEscape(p.apiKey)
	}
	return u
}

// geminiRequest is the request body for the generateContent API.
type geminiRequest struct {
	Contents          []geminiContent         `json:"contents"`
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	MaxOutputTokens int      `json:"maxOutputTokens,omitempty"`
	Temperature     *float64 `json:"temperature,omitempty"`
}

// geminiResponse is the response from the generateContent API.
type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text *string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
}

func newGeminiRequest(req CompletionRequest) geminiRequest {
	var gemReq geminiRequest
	var system []string

	for _, m := range req.Messages {
		switch m.Role {
		case "system":
			system = append(system, m.Content)
		case "assistant":
			// Gemini uses "user" and "model" roles.
			gemReq.Contents = append(gemReq.Contents, geminiContent{Role: "model", Parts: []geminiPart{{Text: m.Content}}})
		default:
			gemReq.Contents = append(gemReq.Contents, geminiContent{Role: "user", Parts: []geminiPart{{Text: m.Content}}})
		}
	}

	if len(system) > 0 {
		gemReq.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: strings.Join(system, "\n")}}}
	}

	if req.MaxTokens > 0 || req.Temperature > 0 {
		config := &geminiGenerationConfig{}
		if req.MaxTokens > 0 {
			config.MaxOutputTokens = req.MaxTokens
		}
		if req.Temperature > 0 {
			temp := req.Temperature
			config.Temperature = &temp
		}
		gemReq.GenerationConfig = config
	}
	return gemReq
}

func (p *GoogleProvider) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	body, err := json.Marshal(newGeminiRequest(req))
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.modelURL(model, "generateContent"), bytes.NewReader(body))
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return CompletionResponse{}, transportError("gemini", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return CompletionResponse{}, transportError("gemini", err)
	}

	if resp.StatusCode != http.StatusOK {
		return CompletionResponse{}, statusError("gemini", resp.StatusCode, respBody)
	}

	var gemResp geminiResponse
	if err := json.Unmarshal(respBody, &gemResp); err != nil {
		return CompletionResponse{}, decodeError("gemini", err)
	}

	if reason := gemResp.PromptFeedback.BlockReason; reason != "" {
		return CompletionResponse{}, emptyError("gemini", "prompt blocked: "+reason)
	}
	if len(gemResp.Candidates) == 0 || len(gemResp.Candidates[0].Content.Parts) == 0 {
		return CompletionResponse{}, emptyError("gemini", "no content in response")
	}

	var text strings.Builder
	var found bool
	for _, part := range gemResp.Candidates[0].Content.Parts {
		if part.Text == nil {
			continue
		}
		found = true
		text.WriteString(*part.Text)
	}
	if !found {
		return CompletionResponse{}, emptyError("gemini", "no text part in candidate")
	}

	return CompletionResponse{
		Content:      text.String(),
		Model:        model,
		InputTokens:  gemResp.UsageMetadata.PromptTokenCount,
		OutputTokens: gemResp.UsageMetadata.CandidatesTokenCount,
	}, nil
}

func (p *GoogleProvider) HealthCheck(ctx context.Context) error {
	if p.Vertex() {
		return getStatus(ctx, p.client, p.modelURL(p.model, ""), nil)
	}
	u := p.base() + "/models"
	if p.apiKey != "" {
		u += "?key=" + url.QueryEscape(p.apiKey)
	}
	return getStatus(ctx, p.client, u, nil)
}
