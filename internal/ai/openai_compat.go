package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// openaiRequest is the request body for OpenAI-compatible chat completions.
type openaiRequest struct {
	Model       string          `json:"model"`
	Messages    []openaiMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Temperature *float64        `json:"temperature,omitempty"`
}

type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// openaiResponse is the response from OpenAI-compatible chat completions.
type openaiResponse struct {
	Choices []struct {
		Message *struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Model string `json:"model"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

func newOpenAIRequest(req CompletionRequest, model string) openaiRequest {
	messages := make([]openaiMessage, len(req.Messages))
	for i, m := range req.Messages {
		messages[i] = openaiMessage(m)
	}

	oaiReq := openaiRequest{
		Model:    model,
		Messages: messages,
	}
	if req.MaxTokens > 0 {
		oaiReq.MaxTokens = req.MaxTokens
	}
	if req.Temperature > 0 {
		temp := req.Temperature
		oaiReq.Temperature = &temp
	}
	return oaiReq
}

// postChatCompletion sends an OpenAI-compatible chat completion and maps the
// first choice into a CompletionResponse. header may add auth or attribution
// headers.
func postChatCompletion(ctx context.Context, client *http.Client, provider, url string, oaiReq openaiRequest, header http.Header) (CompletionResponse, error) {
	body, err := json.Marshal(oaiReq)
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	for k, vs := range header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return CompletionResponse{}, transportError(provider, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return CompletionResponse{}, transportError(provider, err)
	}

	if resp.StatusCode != http.StatusOK {
		return CompletionResponse{}, statusError(provider, resp.StatusCode, respBody)
	}

	var oaiResp openaiResponse
	if err := json.Unmarshal(respBody, &oaiResp); err != nil {
		return CompletionResponse{}, decodeError(provider, err)
	}

	if len(oaiResp.Choices) == 0 {
		return CompletionResponse{}, emptyError(provider, "no choices in response")
	}
	msg := oaiResp.Choices[0].Message
	if msg == nil || msg.Content == nil {
		return CompletionResponse{}, emptyError(provider, "no message content in first choice")
	}

	model := oaiResp.Model
	if model == "" {
		model = oaiReq.Model
	}

	return CompletionResponse{
		Content:      *msg.Content,
		Model:        model,
		InputTokens:  oaiResp.Usage.PromptTokens,
		OutputTokens: oaiResp.Usage.CompletionTokens,
	}, nil
}

// getStatus issues a GET and reports a non-200 status as an error.
func getStatus(ctx context.Context, client *http.Client, url string, header http.Header) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}
	return nil
}
