package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := NewClient(Config{
		APIKey:  "test-key",
		BaseURL: srv.URL,
		Timeout: 2 * time.Second,
		Model:   "test-model",
	})
	return srv, client
}

func completionBody(content string) string {
	resp := Response{
		Model: "test-model",
		Choices: []Choice{
			{Message: Message{Role: "assistant", Content: content}},
		},
		Usage: Usage{TotalTokens: 42},
	}
	raw, _ := json.Marshal(resp)
	return string(raw)
}

func TestChatCompletionSuccess(t *testing.T) {
	var gotAuth string
	var gotReq Request

	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(completionBody("hello there")))
	})

	resp, err := client.ChatCompletion(context.Background(),
		[]Message{{Role: "user", Content: "hi"}},
		WithTemperature(0.7), WithMaxTokens(128))
	if err != nil {
		t.Fatalf("ChatCompletion failed: %v", err)
	}

	if got := resp.ExtractContent(); got != "hello there" {
		t.Errorf("content = %q, want %q", got, "hello there")
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotReq.Temperature != 0.7 {
		t.Errorf("temperature = %v, want 0.7", gotReq.Temperature)
	}
	if gotReq.MaxTokens != 128 {
		t.Errorf("max_tokens = %d, want 128", gotReq.MaxTokens)
	}
	if gotReq.Model != "test-model" {
		t.Errorf("model = %q, want test-model", gotReq.Model)
	}
}

func TestChatCompletionMissingKey(t *testing.T) {
	client := NewClient(Config{})
	_, err := client.ChatCompletion(context.Background(), []Message{{Role: "user", Content: "hi"}})
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("err = %v, want ErrMissingAPIKey", err)
	}
}

func TestChatCompletionProviderError(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":"rate limited"}`))
	})

	_, err := client.ChatCompletion(context.Background(), []Message{{Role: "user", Content: "hi"}})
	var provErr *ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("err = %v, want *ProviderError", err)
	}
	if provErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", provErr.StatusCode)
	}
}

func TestChatCompletionTimeout(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
		w.Write([]byte(completionBody("too late")))
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.ChatCompletion(ctx, []Message{{Role: "user", Content: "hi"}})
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
	if !strings.Contains(err.Error(), "timed out") {
		t.Errorf("error message %q should mention the timeout", err.Error())
	}
}

func TestChatCompletionUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // the port now refuses connections

	client := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL})
	_, err := client.ChatCompletion(context.Background(), []Message{{Role: "user", Content: "hi"}})
	if !errors.Is(err, ErrProviderUnreachable) {
		t.Fatalf("err = %v, want ErrProviderUnreachable", err)
	}
}

func TestWithAPIKeySwapsCredentials(t *testing.T) {
	var gotAuth string
	_, base := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(completionBody("ok")))
	})

	userClient := base.WithAPIKey("user-key")
	if _, err := userClient.ChatCompletion(context.Background(), []Message{{Role: "user", Content: "hi"}}); err != nil {
		t.Fatalf("ChatCompletion with user key failed: %v", err)
	}
	if gotAuth != "Bearer user-key" {
		t.Errorf("Authorization = %q, want the user key", gotAuth)
	}

	// The original client keeps its own credentials
	if _, err := base.ChatCompletion(context.Background(), []Message{{Role: "user", Content: "hi"}}); err != nil {
		t.Fatalf("ChatCompletion with base key failed: %v", err)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("Authorization = %q, want the base key", gotAuth)
	}
}

func TestJSONCompletionSetsResponseFormat(t *testing.T) {
	var gotReq Request
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotReq)
		w.Write([]byte(completionBody(`{"ok":true}`)))
	})

	out, err := client.JSONCompletion(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("JSONCompletion failed: %v", err)
	}
	if out != `{"ok":true}` {
		t.Errorf("content = %q", out)
	}
	if gotReq.ResponseFormat == nil || gotReq.ResponseFormat.Type != "json_object" {
		t.Errorf("response_format = %+v, want json_object", gotReq.ResponseFormat)
	}
	if len(gotReq.Messages) == 0 || !strings.Contains(gotReq.Messages[0].Content, "valid JSON") {
		t.Errorf("system prompt should instruct JSON output")
	}
}

func TestSimpleCompletionEmptyChoices(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	})

	_, err := client.SimpleCompletion(context.Background(), "system", "user")
	if !errors.Is(err, ErrEmptyCompletion) {
		t.Fatalf("err = %v, want ErrEmptyCompletion", err)
	}
}
