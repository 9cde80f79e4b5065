package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOllamaProvider_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		// Ollama doesn't require an Authorization header.
		if r.Header.Get("Authorization") != "" {
			t.Error("Ollama should not send Authorization header")
		}

		var req openaiRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Model != "llama3:8b" {
			t.Errorf("model = %q, want default llama3:8b", req.Model)
		}

		w.Write([]byte(`{
		  "choices": [{"message": {"content": "Ollama response"}}],
		  "model": "llama3:8b",
		  "usage": {"prompt_tokens": 5, "completion_tokens": 10}
		}`))
	}))
	defer server.Close()

	provider := NewOllamaProvider(server.URL)

	resp, err := provider.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: "user", Content: "hello"}},
	})

	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if resp.Content != "Ollama response" {
		t.Errorf("content = %q, want %q", resp.Content, "Ollama response")
	}
	if resp.InputTokens != 5 {
		t.Errorf("input_tokens = %d, want 5", resp.InputTokens)
	}
}

func TestOllamaProvider_Complete_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("model not found"))
	}))
	defer server.Close()

	provider := NewOllamaProvider(server.URL, WithOllamaModel("qwen2.5-coder:7b"))

	_, err := provider.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: "user", Content: "hello"}},
	})

	if err == nil {
		t.Fatal("Complete() should return error on API error")
	}
	if KindOf(err) != KindStatus {
		t.Errorf("KindOf() = %q, want %q", KindOf(err), KindStatus)
	}
}

func TestOllamaProvider_HealthCheck(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		wantErr    bool
	}{
		{"healthy", http.StatusOK, false},
		{"unhealthy", http.StatusServiceUnavailable, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/tags" {
					t.Errorf("unexpected path: %s", r.URL.Path)
				}
				w.WriteHeader(tt.statusCode)
			}))
			defer server.Close()

			provider := NewOllamaProvider(server.URL)
			err := provider.HealthCheck(context.Background())

			if (err != nil) != tt.wantErr {
				t.Errorf("HealthCheck() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewOllamaProvider_Defaults(t *testing.T) {
	provider := NewOllamaProvider("")
	if provider.baseURL != "http://localhost:11434" {
		t.Errorf("baseURL = %q, want http://localhost:11434", provider.baseURL)
	}
	if provider.Model() != "llama3:8b" {
		t.Errorf("Model() = %q, want llama3:8b", provider.Model())
	}
}
