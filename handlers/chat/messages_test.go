package chat

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/quirra-app/quirra-api/services"
	"github.com/quirra-app/quirra-api/services/llm"
)

func TestMapChatErrorStatuses(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"session not found", services.ErrSessionNotFound, http.StatusNotFound},
		{"session archived", services.ErrSessionArchived, http.StatusConflict},
		{"empty content", services.ErrEmptyContent, http.StatusBadRequest},
		{"missing key", llm.ErrMissingAPIKey, http.StatusServiceUnavailable},
		{"timeout", fmt.Errorf("failed to generate assistant reply: %w", llm.ErrTimeout), http.StatusGatewayTimeout},
		{"empty completion", llm.ErrEmptyCompletion, http.StatusBadGateway},
		{"unreachable", fmt.Errorf("%w: connection refused", llm.ErrProviderUnreachable), http.StatusServiceUnavailable},
		{"provider status", &llm.ProviderError{StatusCode: 429}, http.StatusBadGateway},
		{"persist failure", errors.New("failed to store user message: pq: deadlock detected"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/t", func(c *fiber.Ctx) error {
				return mapChatError(c, tc.err)
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
