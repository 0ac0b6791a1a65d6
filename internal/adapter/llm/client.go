// Package llm provides the text-completion provider adapter. It speaks the
// OpenAI-compatible chat completions API and parses the model's reply into
// the structured category/summary form the scorer consumes.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/promptarena/promptarena/internal/port/provider"
	"github.com/promptarena/promptarena/internal/resilience"
)

// Client calls an OpenAI-compatible chat completions endpoint.
// It never retries: a failed call is the variant's result.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	breaker    *resilience.Breaker
}

// NewClient creates a provider client for the given endpoint. No client-level
// timeout is set; callers bound each call through the request context.
func NewClient(baseURL, apiKey, model string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{},
	}
}

// SetBreaker attaches a circuit breaker to all outgoing calls.
func (c *Client) SetBreaker(b *resilience.Breaker) {
	c.breaker = b
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Complete sends the prompt and parses the reply. Implements provider.Completer.
func (c *Client) Complete(ctx context.Context, prompt string, temperature float64) (provider.Completion, error) {
	content, err := c.chat(ctx, prompt, temperature)
	if err != nil {
		return provider.Completion{}, err
	}
	return Parse(content), nil
}

func (c *Client) chat(ctx context.Context, prompt string, temperature float64) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	var content string
	call := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("http request: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}
		if resp.StatusCode >= 400 {
			return fmt.Errorf("provider API error %d: %s", resp.StatusCode, string(data))
		}

		var parsed chatResponse
		if err := json.Unmarshal(data, &parsed); err != nil {
			return fmt.Errorf("unmarshal chat response: %w", err)
		}
		if len(parsed.Choices) == 0 {
			return fmt.Errorf("provider returned no choices")
		}
		content = parsed.Choices[0].Message.Content
		return nil
	}

	if c.breaker != nil {
		if err := c.breaker.Execute(call); err != nil {
			return "", err
		}
		return content, nil
	}
	if err := call(); err != nil {
		return "", err
	}
	return content, nil
}

// Parse extracts the "Category:" and "Summary:" lines from raw model output.
// Matching is case-insensitive and values are whitespace-trimmed; a missing
// line leaves the corresponding field empty for the scorer to penalize.
func Parse(raw string) provider.Completion {
	var out provider.Completion
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		lower := strings.ToLower(line)
		switch {
		case strings.HasPrefix(lower, "category:") && out.Category == "":
			out.Category = strings.TrimSpace(line[len("category:"):])
		case strings.HasPrefix(lower, "summary:") && out.Summary == "":
			out.Summary = strings.TrimSpace(line[len("summary:"):])
		}
	}
	return out
}
