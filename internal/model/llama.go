// Package model provides a llama.cpp server client for local inference.
// The server exposes an OpenAI-compatible API on the loopback interface.
package model

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/wayfarer-app/wayfarer/internal/errors"
)

// LlamaConfig configures the llama.cpp client.
type LlamaConfig struct {
	Enabled       bool
	BaseURL       string // Default: http://127.0.0.1:8080
	Model         string // e.g., "qwen2.5-3b-instruct-q4_k_m"
	Timeout       time.Duration
	HealthTimeout time.Duration
	MaxTokens     int
	Temperature   float64
}

// DefaultLlamaConfig returns default configuration for a local llama.cpp server.
func DefaultLlamaConfig() *LlamaConfig {
	return &LlamaConfig{
		Enabled:       true,
		BaseURL:       "http://127.0.0.1:8080",
		Model:         "qwen2.5-3b-instruct",
		Timeout:       120 * time.Second,
		HealthTimeout: 2 * time.Second,
		MaxTokens:     2048,
		Temperature:   0.7,
	}
}

// Open returns the resource described by cfg.
// A nil config or an empty base URL yields Absent.
func Open(cfg *LlamaConfig) Resource {
	if cfg == nil || strings.TrimSpace(cfg.BaseURL) == "" {
		return Absent{}
	}
	return NewLlamaClient(cfg)
}

// LlamaClient implements Resource on top of a llama.cpp server.
type LlamaClient struct {
	cfg    *LlamaConfig
	client *http.Client

	// is64Bit reports whether the platform can host the model.
	is64Bit func() bool
}

// NewLlamaClient creates a new llama.cpp client.
func NewLlamaClient(cfg *LlamaConfig) *LlamaClient {
	if cfg == nil {
		cfg = DefaultLlamaConfig()
	}
	if cfg.HealthTimeout <= 0 {
		cfg.HealthTimeout = 2 * time.Second
	}
	return &LlamaClient{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		is64Bit: func() bool { return strconv.IntSize == 64 },
	}
}

// Name returns the model name.
func (c *LlamaClient) Name() string {
	if c.cfg.Model != "" {
		return c.cfg.Model
	}
	return "llama.cpp"
}

// Status probes the server health endpoint.
func (c *LlamaClient) Status(ctx context.Context) Status {
	if !c.cfg.Enabled {
		return StatusDisabled
	}
	if !c.is64Bit() {
		return StatusIneligible
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.HealthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/health", nil)
	if err != nil {
		return StatusError
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return StatusOffline
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch resp.StatusCode {
	case http.StatusOK:
		return StatusReady
	case http.StatusServiceUnavailable:
		return StatusLoading
	default:
		return StatusError
	}
}

// NewSession opens a session bound to systemPrompt.
func (c *LlamaClient) NewSession(systemPrompt string) (Session, error) {
	if !c.cfg.Enabled {
		return nil, errors.Unavailable(errors.ReasonNotEnabled)
	}
	return &llamaSession{client: c, system: systemPrompt}, nil
}

// llamaSession keeps the system prompt; the server caches its KV state.
type llamaSession struct {
	client *LlamaClient
	system string
}

// Respond sends a chat completion constrained to req.Format.
func (s *llamaSession) Respond(ctx context.Context, req *Request) (*Response, error) {
	c := s.client
	start := time.Now()

	body := map[string]any{
		"model": c.cfg.Model,
		"messages": []map[string]string{
			{"role": "system", "content": s.system},
			{"role": "user", "content": req.Prompt},
		},
		"cache_prompt": true,
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.cfg.MaxTokens
	}
	if maxTokens > 0 {
		body["max_tokens"] = maxTokens
	}

	temperature := req.Temperature
	if temperature <= 0 {
		temperature = c.cfg.Temperature
	}
	body["temperature"] = temperature

	if req.Format != nil {
		body["response_format"] = map[string]any{
			"type": "json_schema",
			"json_schema": map[string]any{
				"name":   req.Format.Name,
				"schema": req.Format.Schema,
				"strict": true,
			},
		}
	}

	respBody, err := c.post(ctx, "/v1/chat/completions", body)
	if err != nil {
		return nil, err
	}

	var chat chatResponse
	if err := json.Unmarshal(respBody, &chat); err != nil {
		return nil, errors.GenerationFailed(fmt.Errorf("parse response: %w", err))
	}
	if len(chat.Choices) == 0 {
		return nil, errors.GenerationFailed(fmt.Errorf("response contained no choices"))
	}

	choice := chat.Choices[0]
	switch choice.FinishReason {
	case "content_filter":
		return nil, errors.PolicyViolation(fmt.Errorf("output withheld by content filter"))
	case "length":
		return nil, errors.GenerationFailed(fmt.Errorf("output truncated at %d tokens", maxTokens))
	}

	return &Response{
		Text:       choice.Message.Content,
		TokensUsed: chat.Usage.TotalTokens,
		Model:      chat.Model,
		DurationMs: time.Since(start).Milliseconds(),
	}, nil
}

// Prewarm evaluates the system prompt so the first real request skips it.
func (s *llamaSession) Prewarm(ctx context.Context) error {
	_, err := s.client.post(ctx, "/completion", map[string]any{
		"prompt":       s.system,
		"n_predict":    0,
		"cache_prompt": true,
	})
	return err
}

func (c *LlamaClient) post(ctx context.Context, path string, body map[string]any) ([]byte, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, errors.GenerationFailed(fmt.Errorf("marshal request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, errors.GenerationFailed(fmt.Errorf("create request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")

	r, err := c.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		// The runtime went away between the probe and the call.
		return nil, &errors.Error{Kind: errors.KindResourceUnavailable, Reason: errors.ReasonNotReady, Inner: err}
	}
	defer r.Body.Close()

	b, err := io.ReadAll(r.Body)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.GenerationFailed(fmt.Errorf("read response: %w", err))
	}

	if r.StatusCode == http.StatusOK {
		return b, nil
	}
	return nil, classifyHTTP(r.StatusCode, b)
}

// classifyHTTP maps a llama.cpp error response to an error kind.
func classifyHTTP(status int, body []byte) error {
	var apiErr struct {
		Error struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
			Type    string `json:"type"`
		} `json:"error"`
	}
	_ = json.Unmarshal(body, &apiErr)

	msg := apiErr.Error.Message
	if msg == "" {
		msg = strings.TrimSpace(string(body))
	}
	cause := fmt.Errorf("llama.cpp status %d: %s", status, msg)
	lower := strings.ToLower(msg)

	switch {
	case apiErr.Error.Type == "exceed_context_size_error" || strings.Contains(lower, "context size"):
		return errors.ContextTooLarge(cause)
	case strings.Contains(lower, "unsupported language"):
		return errors.UnsupportedLanguage(cause)
	case status == http.StatusServiceUnavailable:
		return &errors.Error{Kind: errors.KindResourceUnavailable, Reason: errors.ReasonNotReady, Inner: cause}
	default:
		return errors.GenerationFailed(cause)
	}
}

// ============================================================
// llama.cpp API Types (OpenAI-compatible)
// ============================================================

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}
