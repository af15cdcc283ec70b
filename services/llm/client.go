package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

const (
	// OpenRouterBaseURL is the default OpenAI-compatible endpoint
	OpenRouterBaseURL = "https://openrouter.ai/api"
	// OpenAIBaseURL serves as the fallback provider endpoint
	OpenAIBaseURL = "https://api.openai.com"
	// DefaultTimeout bounds any single completion request
	DefaultTimeout = 60 * time.Second
	// DefaultModel is used when no model is configured
	DefaultModel = "openai/gpt-4o-mini"
)

var (
	// ErrMissingAPIKey is returned before any network activity when the
	// client was constructed without a provider key
	ErrMissingAPIKey = errors.New("llm: provider API key is not configured")
	// ErrTimeout is wrapped into errors caused by the outbound call timing out
	ErrTimeout = errors.New("llm: provider request timed out")
	// ErrEmptyCompletion is returned when the provider answered without choices
	ErrEmptyCompletion = errors.New("llm: no choices returned from provider")
	// ErrProviderUnreachable wraps transport failures that never produced
	// an HTTP response, DNS errors and refused connections included
	ErrProviderUnreachable = errors.New("llm: provider is unreachable")
)

// ProviderError is a non-2xx answer from the provider
type ProviderError struct {
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("llm: provider error (status %d): %s", e.StatusCode, e.Body)
}

// Client is an OpenAI-compatible chat-completions client. The same client
// talks to OpenRouter or OpenAI depending on the configured base URL.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	model      string
	appURL     string
	appName    string
}

// Config holds client construction parameters. All provider configuration
// is injected here; nothing is read from the environment at call time.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
	Model   string
	// OpenRouter attribution headers, optional
	AppURL  string
	AppName string
}

// NewClient creates a chat-completions client
func NewClient(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = OpenRouterBaseURL
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}
	if config.Model == "" {
		config.Model = DefaultModel
	}

	return &Client{
		apiKey:  config.APIKey,
		baseURL: config.BaseURL,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		model:   config.Model,
		appURL:  config.AppURL,
		appName: config.AppName,
	}
}

// WithAPIKey returns a copy of the client authenticating with a different
// key. The HTTP client, base URL and attribution headers are shared, so a
// user-supplied key rides the same transport as the server key.
func (c *Client) WithAPIKey(apiKey string) *Client {
	clone := *c
	clone.apiKey = apiKey
	return &clone
}

// HasAPIKey reports whether the client can make calls at all
func (c *Client) HasAPIKey() bool {
	return c.apiKey != ""
}

// Model returns the configured default model name
func (c *Client) Model() string {
	return c.model
}

// Message represents a single turn in a chat completion request
type Message struct {
	Role    string `json:"role"` // "system", "user", "assistant"
	Content string `json:"content"`
}

// ResponseFormat requests a specific output shape from the provider
type ResponseFormat struct {
	Type string `json:"type"` // "text" or "json_object"
}

// Request is an OpenAI-compatible chat completion request
type Request struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	Temperature    float64         `json:"temperature,omitempty"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	TopP           float64         `json:"top_p,omitempty"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
}

// Choice is one candidate completion
type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

// Usage reports token consumption
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is the provider's answer to a chat completion request
type Response struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

// ExtractContent returns the first choice's content, or "" when empty
func (r *Response) ExtractContent() string {
	if len(r.Choices) == 0 {
		return ""
	}
	return r.Choices[0].Message.Content
}

// Option mutates the outgoing request
type Option func(*Request)

// WithTemperature sets the sampling temperature
func WithTemperature(temp float64) Option {
	return func(req *Request) {
		req.Temperature = temp
	}
}

// WithMaxTokens caps the completion length
func WithMaxTokens(tokens int) Option {
	return func(req *Request) {
		req.MaxTokens = tokens
	}
}

// WithModel overrides the default model for one request
func WithModel(model string) Option {
	return func(req *Request) {
		req.Model = model
	}
}

// WithJSONResponse asks the provider for a JSON object completion
func WithJSONResponse() Option {
	return func(req *Request) {
		req.ResponseFormat = &ResponseFormat{Type: "json_object"}
	}
}

// ChatCompletion sends a chat completion request
func (c *Client) ChatCompletion(ctx context.Context, messages []Message, options ...Option) (*Response, error) {
	if !c.HasAPIKey() {
		return nil, ErrMissingAPIKey
	}

	req := Request{
		Model:       c.model,
		Messages:    messages,
		Temperature: 0.3,
		MaxTokens:   1024,
	}

	for _, opt := range options {
		opt(&req)
	}

	return c.sendChatCompletion(ctx, req)
}

func (c *Client) sendChatCompletion(ctx context.Context, req Request) (*Response, error) {
	jsonData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.baseURL + "/v1/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	// OpenRouter ranks traffic by these optional headers
	if c.appURL != "" {
		httpReq.Header.Set("HTTP-Referer", c.appURL)
	}
	if c.appName != "" {
		httpReq.Header.Set("X-Title", c.appName)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("provider request timed out after client deadline: %w", ErrTimeout)
		}
		return nil, fmt.Errorf("%w: %v", ErrProviderUnreachable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &ProviderError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var result Response
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to decode provider response: %w", err)
	}

	return &result, nil
}

// isTimeout distinguishes deadline expiry from other transport failures
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// SimpleCompletion is a convenience method for single-turn completions
func (c *Client) SimpleCompletion(ctx context.Context, systemPrompt, userPrompt string, options ...Option) (string, error) {
	messages := []Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: userPrompt},
	}

	resp, err := c.ChatCompletion(ctx, messages, options...)
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}

	return resp.Choices[0].Message.Content, nil
}

// JSONCompletion requests a JSON object answer and reinforces that in the
// system prompt, since not every routed model honors response_format.
func (c *Client) JSONCompletion(ctx context.Context, systemPrompt, userPrompt string, options ...Option) (string, error) {
	enhancedSystemPrompt := systemPrompt + "\n\nYou MUST respond with valid JSON only. Do not include any markdown formatting, code blocks, or explanatory text. Output raw JSON only."

	options = append(options, WithJSONResponse())
	return c.SimpleCompletion(ctx, enhancedSystemPrompt, userPrompt, options...)
}
