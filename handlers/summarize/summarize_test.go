package summarize

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/quirra-app/quirra-api/services"
	"github.com/quirra-app/quirra-api/services/llm"
)

// TestSummarizeEmptyCompletionIsNotAnError exercises the full handler: a
// provider that answers with blank content yields a 200 envelope carrying
// "No summary generated", not a gateway error.
func TestSummarizeEmptyCompletionIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[{"message":{"content":"   "}}]}`))
	}))
	defer srv.Close()

	client := llm.NewClient(llm.Config{APIKey: "k", BaseURL: srv.URL})
	h := NewSummarizeHandler(services.NewMemoryService(nil, client, nil))

	app := fiber.New()
	app.Post("/summarize", func(c *fiber.Ctx) error {
		c.Locals("user_id", uint(1))
		return h.Summarize(c)
	})

	body := `{"messages_to_summarize":[{"role":"user","content":"hello"}]}`
	req := httptest.NewRequest("POST", "/summarize", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	raw, _ := io.ReadAll(resp.Body)
	var envelope struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		t.Fatalf("failed to decode body %s: %v", raw, err)
	}
	if !envelope.Success {
		t.Errorf("success = false, want true: %s", raw)
	}
	if envelope.Message != "No summary generated" {
		t.Errorf("message = %q, want %q", envelope.Message, "No summary generated")
	}
}

func TestMapSummarizeErrorStatuses(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"no messages", services.ErrNoMessages, http.StatusBadRequest},
		{"persist failure", fmt.Errorf("%w: pq: deadlock detected", services.ErrSnapshotPersist), http.StatusInternalServerError},
		{"missing key", llm.ErrMissingAPIKey, http.StatusServiceUnavailable},
		{"timeout", llm.ErrTimeout, http.StatusGatewayTimeout},
		{"unreachable", fmt.Errorf("%w: connection refused", llm.ErrProviderUnreachable), http.StatusServiceUnavailable},
		{"provider status", &llm.ProviderError{StatusCode: 500}, http.StatusBadGateway},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/t", func(c *fiber.Ctx) error {
				return mapSummarizeError(c, tc.err)
			})

			resp, err := app.Test(httptest.NewRequest("GET", "/t", nil))
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			if resp.StatusCode != tc.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tc.want)
			}
		})
	}
}
