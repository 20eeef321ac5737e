// Package llm talks to an OpenAI-compatible chat-completions API for the
// two model-assisted tasks in the service: structured article extraction
// from cleaned HTML, and source-schedule planning.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/openai/openai-go"
	"github.com/pkoukk/tiktoken-go"
)

const (
	// DefaultBaseURL is the default OpenAI API base URL.
	DefaultBaseURL = "https://api.openai.com/v1"

	// DefaultModel is used when no model is configured.
	DefaultModel = "gpt-4.1-mini"

	// DefaultMaxInputTokens bounds the HTML handed to the model. Oversized
	// documents are truncated by token count before the request.
	DefaultMaxInputTokens = 24000

	tokenEncoding = "cl100k_base"
)

// Client is a minimal chat-completions client. Message payloads are built
// with the OpenAI SDK's parameter types; transport is a plain HTTP POST so
// the client works against any OpenAI-compatible endpoint.
type Client struct {
	httpClient     *http.Client
	apiKey         string
	baseURL        string
	model          string
	maxInputTokens int
	log            *log.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithModel sets the model used for completions.
func WithModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithBaseURL points the client at a custom OpenAI-compatible endpoint.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = baseURL
		}
	}
}

// WithHTTPClient substitutes the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithMaxInputTokens changes the input token budget.
func WithMaxInputTokens(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxInputTokens = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.log = logger
		}
	}
}

// NewClient creates a client. An empty apiKey falls back to the
// OPENAI_API_KEY environment variable; OPENAI_BASE_URL overrides the base
// URL the same way.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required (provide via parameter or OPENAI_API_KEY environment variable)")
	}

	c := &Client{
		httpClient:     &http.Client{},
		apiKey:         apiKey,
		baseURL:        DefaultBaseURL,
		model:          DefaultModel,
		maxInputTokens: DefaultMaxInputTokens,
		log:            log.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.baseURL == DefaultBaseURL {
		if envBaseURL := os.Getenv("OPENAI_BASE_URL"); envBaseURL != "" {
			c.baseURL = envBaseURL
		}
	}
	c.log = c.log.With("component", "llm")

	return c, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatChoice struct {
	FinishReason string      `json:"finish_reason"`
	Index        int         `json:"index"`
	Message      chatMessage `json:"message"`
}

type chatResponse struct {
	Choices []chatChoice `json:"choices"`
}

// complete sends one system+user exchange and returns the assistant message
// content. The response is requested as a JSON object.
func (c *Client) complete(ctx context.Context, system, user string, temperature float64, maxTokens int) (string, error) {
	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(system),
		openai.UserMessage(user),
	}

	reqBody := map[string]interface{}{
		"model":           c.model,
		"messages":        messages,
		"temperature":     temperature,
		"max_tokens":      maxTokens,
		"response_format": map[string]string{"type": "json_object"},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.baseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("response contained no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

// truncateToBudget cuts s down to the configured token budget. When the
// tokenizer is unavailable it falls back to a coarse rune cut at roughly
// four characters per token.
func (c *Client) truncateToBudget(s string) string {
	enc, err := tiktoken.GetEncoding(tokenEncoding)
	if err != nil {
		c.log.Warn("tokenizer unavailable, using character budget", "err", err)
		runes := []rune(s)
		limit := c.maxInputTokens * 4
		if len(runes) <= limit {
			return s
		}
		return string(runes[:limit])
	}

	tokens := enc.Encode(s, nil, nil)
	if len(tokens) <= c.maxInputTokens {
		return s
	}
	c.log.Info("truncating model input", "tokens", len(tokens), "budget", c.maxInputTokens)
	return enc.Decode(tokens[:c.maxInputTokens])
}
