package groq_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pkumv1/AgenticAI-1/src/infrastructure/integrations/groq"
)

type chatCapture struct {
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func TestReasoning(t *testing.T) {
	var captured chatCapture
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode chat request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  "llama-3.3-70b-versatile",
			"choices": []map[string]interface{}{
				{
					"index":         0,
					"message":       map[string]string{"role": "assistant", "content": "The conference starts on 9 March."},
					"finish_reason": "stop",
				},
			},
		})
	}))
	defer server.Close()

	provider, err := groq.NewProvider("test-key", "", groq.WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}

	answer, err := provider.Reasoning(context.Background(), "You are helpful.", "When does the conference start?")
	if err != nil {
		t.Fatalf("Reasoning() error = %v", err)
	}
	if answer != "The conference starts on 9 March." {
		t.Errorf("Reasoning() = %q", answer)
	}

	if captured.Model != groq.DefaultModel {
		t.Errorf("model = %q, want %q", captured.Model, groq.DefaultModel)
	}
	if captured.Temperature != 0.7 || captured.MaxTokens != 1024 {
		t.Errorf("sampling = temp %v maxTokens %d, want 0.7 and 1024", captured.Temperature, captured.MaxTokens)
	}
	if len(captured.Messages) != 2 || captured.Messages[0].Role != "system" || captured.Messages[1].Role != "user" {
		t.Errorf("messages = %+v", captured.Messages)
	}
}

func TestNewProviderRequiresKey(t *testing.T) {
	if _, err := groq.NewProvider("", ""); err == nil {
		t.Error("NewProvider() error = nil, want missing key failure")
	}
}
