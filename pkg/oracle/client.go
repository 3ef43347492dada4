package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

// Completer is a chat-completion client. Implementations wrap one hosted
// model endpoint; the LLM adapter builds prompts on top of it.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
	Name() string
}

// RetryPolicy bounds retries on transient provider errors.
type RetryPolicy struct {
	MaxRetries int
	Backoff    time.Duration
}

// ClientConfig configures an LLM HTTP client.
type ClientConfig struct {
	Provider    string // "gemini" or "openai" (OpenAI-compatible: Groq, DeepSeek, ...)
	Model       string
	APIKey      string
	BaseURL     string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
	RetryPolicy RetryPolicy
}

// DefaultGeminiConfig is the primary oracle endpoint.
var DefaultGeminiConfig = ClientConfig{
	Provider:    "gemini",
	Model:       "gemini-2.5-flash",
	BaseURL:     "https://generativelanguage.googleapis.com/v1beta",
	MaxTokens:   4096,
	Temperature: 0.3,
	Timeout:     60 * time.Second,
	RetryPolicy: RetryPolicy{MaxRetries: 2, Backoff: 5 * time.Second},
}

// DefaultGroqConfig is the fallback oracle endpoint.
var DefaultGroqConfig = ClientConfig{
	Provider:    "openai",
	Model:       "llama-3.3-70b-versatile",
	BaseURL:     "https://api.groq.com/openai/v1",
	MaxTokens:   4096,
	Temperature: 0.3,
	Timeout:     60 * time.Second,
	RetryPolicy: RetryPolicy{MaxRetries: 2, Backoff: 5 * time.Second},
}

// Client is an HTTP chat-completion client with pooled connections and a
// bounded retry loop. Model endpoints can be slow; the transport allows
// long response-header waits while keeping connect timeouts tight.
type Client struct {
	config ClientConfig
	http   *http.Client
}

// NewClient creates a client for the configured provider.
func NewClient(config ClientConfig) *Client {
	transport := &http.Transport{
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   15 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		TLSHandshakeTimeout:   15 * time.Second,
		ResponseHeaderTimeout: 120 * time.Second,
	}

	return &Client{
		config: config,
		http: &http.Client{
			Transport: transport,
			Timeout:   config.Timeout,
		},
	}
}

// Name implements Completer.
func (c *Client) Name() string {
	return c.config.Provider + "/" + c.config.Model
}

// Complete implements Completer. Transient failures (5xx, 429, network)
// are retried per the policy with fixed backoff; exhausted retries and
// quota errors surface wrapped in ErrUnavailable.
func (c *Client) Complete(ctx context.Context, system, prompt string) (string, error) {
	maxAttempts := c.config.RetryPolicy.MaxRetries + 1

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(c.config.RetryPolicy.Backoff):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		var (
			text string
			err  error
		)
		switch c.config.Provider {
		case "gemini":
			text, err = c.callGemini(ctx, system, prompt)
		case "openai":
			text, err = c.callOpenAI(ctx, system, prompt)
		default:
			return "", fmt.Errorf("unknown provider: %s", c.config.Provider)
		}

		if err == nil {
			return text, nil
		}
		lastErr = err
		if !retriable(err) {
			break
		}
	}

	return "", fmt.Errorf("%w: %s: %v", ErrUnavailable, c.Name(), lastErr)
}

// statusError carries the upstream HTTP status for retry decisions.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.code, e.body)
}

func retriable(err error) bool {
	if se, ok := err.(*statusError); ok {
		return se.code == http.StatusTooManyRequests || se.code >= 500
	}
	// Network-level errors are worth one more try.
	return true
}

// --- Gemini ---

type geminiRequest struct {
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
	Contents          []geminiContent `json:"contents"`
	GenerationConfig  struct {
		Temperature     float64 `json:"temperature"`
		MaxOutputTokens int     `json:"maxOutputTokens"`
	} `json:"generationConfig"`
}

type geminiContent struct {
	Parts []struct {
		Text string `json:"text"`
	} `json:"parts"`
}

func geminiText(text string) geminiContent {
	var c geminiContent
	c.Parts = []struct {
		Text string `json:"text"`
	}{{Text: text}}
	return c
}

func (c *Client) callGemini(ctx context.Context, system, prompt string) (string, error) {
	reqBody := geminiRequest{
		Contents: []geminiContent{geminiText(prompt)},
	}
	if system != "" {
		sys := geminiText(system)
		reqBody.SystemInstruction = &sys
	}
	reqBody.GenerationConfig.Temperature = c.config.Temperature
	reqBody.GenerationConfig.MaxOutputTokens = c.config.MaxTokens

	url := fmt.Sprintf("%s/models/%s:generateContent", c.config.BaseURL, c.config.Model)

	var resp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := c.post(ctx, url, map[string]string{"x-goog-api-key": c.config.APIKey}, reqBody, &resp); err != nil {
		return "", err
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty completion")
	}
	return resp.Candidates[0].Content.Parts[0].Text, nil
}

// --- OpenAI-compatible (Groq, DeepSeek, OpenRouter, ...) ---

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (c *Client) callOpenAI(ctx context.Context, system, prompt string) (string, error) {
	messages := make([]chatMessage, 0, 2)
	if system != "" {
		messages = append(messages, chatMessage{Role: "system", Content: system})
	}
	messages = append(messages, chatMessage{Role: "user", Content: prompt})

	reqBody := map[string]any{
		"model":       c.config.Model,
		"messages":    messages,
		"max_tokens":  c.config.MaxTokens,
		"temperature": c.config.Temperature,
	}

	var resp struct {
		Choices []struct {
			Message chatMessage `json:"message"`
		} `json:"choices"`
	}
	headers := map[string]string{"Authorization": "Bearer " + c.config.APIKey}
	if err := c.post(ctx, c.config.BaseURL+"/chat/completions", headers, reqBody, &resp); err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty completion")
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *Client) post(ctx context.Context, url string, headers map[string]string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		msg := string(raw)
		if len(msg) > 200 {
			msg = msg[:200]
		}
		return &statusError{code: resp.StatusCode, body: msg}
	}

	return json.Unmarshal(raw, out)
}
