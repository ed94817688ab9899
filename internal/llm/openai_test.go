package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"vita/internal/config"
	vitaerrors "vita/internal/errors"
	"vita/internal/logging"
)

func testProvider(t *testing.T, handler http.HandlerFunc) *openaiProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return newOpenAIProvider(config.ProviderConfig{
		Name:           "openai",
		BaseURL:        server.URL,
		APIKey:         "test-key",
		ReasoningModel: "gpt-4o",
		UtilityModel:   "gpt-4o-mini",
		VisionModel:    "gpt-4o",
	}, logging.Nop())
}

func TestChatParsesContentAndUsage(t *testing.T) {
	provider := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", got)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if body["model"] != "gpt-4o-mini" {
			t.Errorf("unexpected model %v", body["model"])
		}
		fmt.Fprint(w, `{
			"choices": [{"message": {"content": "hello there"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 12, "completion_tokens": 4}
		}`)
	})

	result, err := provider.Chat(context.Background(), ChatRequest{
		Model:    "gpt-4o-mini",
		System:   "You are helpful.",
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if result.Content != "hello there" {
		t.Fatalf("unexpected content %q", result.Content)
	}
	if result.TokensIn != 12 || result.TokensOut != 4 {
		t.Fatalf("unexpected usage: %+v", result)
	}
}

func TestChatStreamAssemblesDeltas(t *testing.T) {
	provider := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		chunks := []string{
			`{"choices":[{"delta":{"content":"Hel"}}]}`,
			`{"choices":[{"delta":{"content":"lo"},"finish_reason":"stop"}]}`,
			`{"choices":[],"usage":{"prompt_tokens":10,"completion_tokens":2}}`,
		}
		for _, chunk := range chunks {
			fmt.Fprintf(w, "data: %s\n\n", chunk)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	})

	var deltas []string
	sawDone := false
	result, err := provider.ChatStream(context.Background(), ChatRequest{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	}, func(chunk StreamChunk) {
		if chunk.Done {
			sawDone = true
			return
		}
		deltas = append(deltas, chunk.Delta)
	})
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	if got := strings.Join(deltas, ""); got != "Hello" {
		t.Fatalf("unexpected deltas %q", got)
	}
	if !sawDone {
		t.Fatalf("expected terminal Done chunk")
	}
	if result.Content != "Hello" || result.TokensIn != 10 || result.TokensOut != 2 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestChatMapsAuthFailure(t *testing.T) {
	provider := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"bad key"}}`)
	})

	_, err := provider.Chat(context.Background(), ChatRequest{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !vitaerrors.IsAuthError(err) {
		t.Fatalf("expected auth error, got %v", err)
	}
}

func TestChatMapsRateLimitAsRetryable(t *testing.T) {
	provider := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := provider.Chat(context.Background(), ChatRequest{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})
	if !vitaerrors.IsRetryable(err) {
		t.Fatalf("expected retryable error, got %v", err)
	}
}

func TestChatWithVisionSendsImageParts(t *testing.T) {
	provider := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Messages []struct {
				Role    string          `json:"role"`
				Content json.RawMessage `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		last := body.Messages[len(body.Messages)-1]
		if !strings.Contains(string(last.Content), "image_url") {
			t.Errorf("expected image_url part, got %s", last.Content)
		}
		if !strings.Contains(string(last.Content), "data:image/png;base64,") {
			t.Errorf("expected data URI, got %s", last.Content)
		}
		fmt.Fprint(w, `{"choices":[{"message":{"content":"Nutrition label: 250 kcal"},"finish_reason":"stop"}],"usage":{"prompt_tokens":50,"completion_tokens":8}}`)
	})

	result, err := provider.ChatWithVision(context.Background(), VisionRequest{
		Prompt:    "Extract the nutrition facts.",
		ImageData: []byte{0x89, 0x50, 0x4e, 0x47},
		ImageMime: "image/png",
	})
	if err != nil {
		t.Fatalf("vision: %v", err)
	}
	if !strings.Contains(result.Content, "250 kcal") {
		t.Fatalf("unexpected content %q", result.Content)
	}
}

func TestValidateKey(t *testing.T) {
	calls := 0
	provider := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Path != "/models" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if calls == 1 {
			fmt.Fprint(w, `{"data":[]}`)
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	})

	if err := provider.ValidateKey(context.Background()); err != nil {
		t.Fatalf("expected valid key, got %v", err)
	}
	err := provider.ValidateKey(context.Background())
	if !vitaerrors.IsAuthError(err) {
		t.Fatalf("expected auth error, got %v", err)
	}
}

func TestNewRequiresAPIKey(t *testing.T) {
	_, err := New(config.ProviderConfig{Name: "openai"}, logging.Nop())
	if !vitaerrors.IsConfigError(err) {
		t.Fatalf("expected config error, got %v", err)
	}
}
