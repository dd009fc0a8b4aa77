package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewProvider(t *testing.T) {
	tests := []struct {
		provider string
		wantType string
	}{
		{"ollama", "*llm.ollamaProvider"},
		{"openai", "*llm.compatProvider"},
		{"openrouter", "*llm.compatProvider"},
		{"custom", "*llm.compatProvider"},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			p, err := NewProvider(Config{Provider: tt.provider, Model: "test-model"})
			if err != nil {
				t.Fatalf("NewProvider(%q) returned error: %v", tt.provider, err)
			}
			gotType := fmt.Sprintf("%T", p)
			if gotType != tt.wantType {
				t.Errorf("NewProvider(%q) type = %s, want %s", tt.provider, gotType, tt.wantType)
			}
		})
	}
}

func TestNewProviderUnknown(t *testing.T) {
	_, err := NewProvider(Config{Provider: "doesnotexist", Model: "test-model"})
	if err == nil {
		t.Fatal("expected error for unknown provider, got nil")
	}
	want := "unknown llm provider: doesnotexist"
	if err.Error() != want {
		t.Errorf("error = %q, want %q", err.Error(), want)
	}
}

func TestNewProviderEmpty(t *testing.T) {
	_, err := NewProvider(Config{Model: "test-model"})
	if err == nil {
		t.Fatal("expected error for empty provider, got nil")
	}
	want := "llm provider not specified"
	if err.Error() != want {
		t.Errorf("error = %q, want %q", err.Error(), want)
	}
}

func TestCompatChat(t *testing.T) {
	var gotPath string
	var gotReq chatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotReq)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"model": "test-model",
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "hello"}, "finish_reason": "stop"},
			},
			"usage": map[string]int{"prompt_tokens": 7, "completion_tokens": 3, "total_tokens": 10},
		})
	}))
	defer srv.Close()

	p, err := NewProvider(Config{Provider: "custom", Model: "test-model", BaseURL: srv.URL})
	if err != nil {
		t.Fatal(err)
	}

	resp, err := p.Chat(context.Background(), ChatRequest{
		Messages: []Message{{Role: "user", Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}

	if gotPath != "/v1/chat/completions" {
		t.Errorf("request path = %q, want /v1/chat/completions", gotPath)
	}
	if gotReq.Model != "test-model" {
		t.Errorf("request model = %q, want test-model", gotReq.Model)
	}
	if resp.Content != "hello" || resp.FinishReason != "stop" || resp.TotalTokens != 10 {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestCompatChatNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"choices": []interface{}{}})
	}))
	defer srv.Close()

	p, _ := NewProvider(Config{Provider: "custom", Model: "test-model", BaseURL: srv.URL})
	if _, err := p.Chat(context.Background(), ChatRequest{}); err == nil {
		t.Fatal("Chat accepted a response without choices")
	}
}

func TestCompatChatNonRetryableError(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer srv.Close()

	p, _ := NewProvider(Config{Provider: "custom", Model: "test-model", BaseURL: srv.URL})
	if _, err := p.Chat(context.Background(), ChatRequest{}); err == nil {
		t.Fatal("Chat succeeded on a 400 response")
	}
	if calls != 1 {
		t.Errorf("400 response was retried %d times", calls)
	}
}

func TestCompatEmbedOrdering(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/embeddings" {
			t.Errorf("request path = %q, want /v1/embeddings", r.URL.Path)
		}
		// Data deliberately out of order; the client must sort by index.
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{
				{"index": 1, "embedding": []float32{2}},
				{"index": 0, "embedding": []float32{1}},
			},
		})
	}))
	defer srv.Close()

	p, _ := NewProvider(Config{Provider: "custom", Model: "test-model", BaseURL: srv.URL})
	embeddings, err := p.Embed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(embeddings) != 2 || embeddings[0][0] != 1 || embeddings[1][0] != 2 {
		t.Errorf("embeddings out of order: %v", embeddings)
	}
}

func TestOllamaEmbed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embed" {
			t.Errorf("request path = %q, want /api/embed", r.URL.Path)
		}
		var req ollamaEmbedRequest
		json.NewDecoder(r.Body).Decode(&req)
		embeddings := make([][]float32, len(req.Input))
		for i := range embeddings {
			embeddings[i] = []float32{float32(i)}
		}
		json.NewEncoder(w).Encode(ollamaEmbedResponse{Embeddings: embeddings})
	}))
	defer srv.Close()

	p := NewOllama(Config{Provider: "ollama", Model: "embed-model", BaseURL: srv.URL})
	embeddings, err := p.Embed(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(embeddings) != 3 {
		t.Errorf("got %d embeddings, want 3", len(embeddings))
	}
}

func TestOllamaEmbedCountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ollamaEmbedResponse{Embeddings: [][]float32{{1}}})
	}))
	defer srv.Close()

	p := NewOllama(Config{Provider: "ollama", Model: "embed-model", BaseURL: srv.URL})
	if _, err := p.Embed(context.Background(), []string{"a", "b"}); err == nil {
		t.Fatal("Embed accepted a short embedding batch")
	}
}

func TestOllamaDefaultBaseURL(t *testing.T) {
	p := NewOllama(Config{Provider: "ollama", Model: "test-model"})
	op, ok := p.(*ollamaProvider)
	if !ok {
		t.Fatalf("NewOllama returned %T", p)
	}
	if op.base.cfg.BaseURL != "http://localhost:11434" {
		t.Errorf("default BaseURL = %q, want http://localhost:11434", op.base.cfg.BaseURL)
	}
}
