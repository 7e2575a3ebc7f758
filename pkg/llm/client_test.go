package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func completionBody(text string) map[string]interface{} {
	return map[string]interface{}{
		"id":    "test-id",
		"model": "gpt-4o-mini",
		"choices": []map[string]interface{}{
			{
				"message":       map[string]string{"role": "assistant", "content": text},
				"finish_reason": "stop",
			},
		},
		"usage": map[string]int{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
	}
}

func TestClientComplete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("expected /chat/completions, got %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("expected Bearer test-key, got %s", auth)
		}

		var payload struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		if len(payload.Messages) != 2 {
			t.Errorf("expected system + user messages, got %d", len(payload.Messages))
		}
		if payload.Messages[0].Role != "system" {
			t.Errorf("expected first message role system, got %s", payload.Messages[0].Role)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(completionBody("Hello! How can I help?"))
	}))
	defer server.Close()

	client, err := NewClient(
		WithBaseURL(server.URL),
		WithAPIKey("test-key"),
		WithModel("gpt-4o-mini"),
	)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	defer client.Close()

	resp, err := client.Complete(context.Background(), &Request{
		System: "You are a helpful assistant.",
		Prompt: "Hello",
	})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	if resp.Text != "Hello! How can I help?" {
		t.Errorf("unexpected text: %s", resp.Text)
	}
	if resp.Usage.TotalTokens != 15 {
		t.Errorf("expected 15 total tokens, got %d", resp.Usage.TotalTokens)
	}
	if resp.FinishReason != "stop" {
		t.Errorf("expected stop, got %s", resp.FinishReason)
	}
}

func TestClientEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"choices": []interface{}{}})
	}))
	defer server.Close()

	client, _ := NewClient(WithBaseURL(server.URL), WithAPIKey("test-key"))
	defer client.Close()

	_, err := client.Complete(context.Background(), &Request{Prompt: "Hello"})
	if !errors.Is(err, ErrEmptyCompletion) {
		t.Errorf("expected ErrEmptyCompletion, got %v", err)
	}
}

func TestClientRetryOnServerError(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			http.Error(w, `{"error":{"message":"overloaded"}}`, http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(completionBody("recovered"))
	}))
	defer server.Close()

	client, _ := NewClient(
		WithBaseURL(server.URL),
		WithAPIKey("test-key"),
		WithRetry(2, time.Millisecond),
	)
	defer client.Close()

	resp, err := client.Complete(context.Background(), &Request{Prompt: "Hello"})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if resp.Text != "recovered" {
		t.Errorf("unexpected text: %s", resp.Text)
	}
	if attempts.Load() != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts.Load())
	}
}

func TestClientRetryExhaustedKeepsErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"model overloaded"}}`, http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client, _ := NewClient(
		WithBaseURL(server.URL),
		WithAPIKey("test-key"),
		WithRetry(1, time.Millisecond),
	)
	defer client.Close()

	_, err := client.Complete(context.Background(), &Request{Prompt: "Hello"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("unexpected status: %d", apiErr.StatusCode)
	}
	if apiErr.Message != "model overloaded" {
		t.Errorf("expected the server's error message to survive, got %q", apiErr.Message)
	}
}

func TestClientUsesSuppliedHTTPClient(t *testing.T) {
	var used atomic.Int32
	custom := &http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			used.Add(1)
			return nil, errors.New("transport sentinel")
		}),
	}

	client, _ := NewClient(WithAPIKey("test-key"), WithHTTPClient(custom))
	defer client.Close()

	_, err := client.Complete(context.Background(), &Request{Prompt: "Hello"})
	if err == nil {
		t.Fatal("expected the sentinel transport error")
	}
	if used.Load() == 0 {
		t.Error("supplied HTTP client was not used")
	}
}

// roundTripFunc adapts a function to http.RoundTripper.
type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestClientAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"invalid api key","code":"invalid_api_key"}}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	client, _ := NewClient(WithBaseURL(server.URL), WithAPIKey("bad-key"))
	defer client.Close()

	_, err := client.Complete(context.Background(), &Request{Prompt: "Hello"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if !apiErr.IsUnauthorized() {
		t.Errorf("expected IsUnauthorized true for status %d", apiErr.StatusCode)
	}
	if apiErr.Code != "invalid_api_key" {
		t.Errorf("unexpected code: %s", apiErr.Code)
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient()
	if !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("expected ErrNoAPIKey, got %v", err)
	}
}

func TestMockProvider(t *testing.T) {
	ctx := context.Background()

	t.Run("default echoes prompt", func(t *testing.T) {
		mock := NewMock()
		resp, err := mock.Complete(ctx, &Request{Prompt: "ping"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp.Text == "" {
			t.Error("expected non-empty text")
		}
		if mock.CallCount("Complete") != 1 {
			t.Errorf("expected 1 Complete call, got %d", mock.CallCount("Complete"))
		}
	})

	t.Run("WithText answers fixed text", func(t *testing.T) {
		mock := WithText("fixed")
		resp, err := mock.Complete(ctx, &Request{Prompt: "anything"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp.Text != "fixed" {
			t.Errorf("expected fixed, got %s", resp.Text)
		}
	})

	t.Run("WithError fails", func(t *testing.T) {
		testErr := errors.New("boom")
		mock := WithError(testErr)
		if _, err := mock.Complete(ctx, &Request{Prompt: "x"}); !errors.Is(err, testErr) {
			t.Errorf("expected boom, got %v", err)
		}
	})
}
