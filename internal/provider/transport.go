// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/jeranaias/npchat-tui/internal/config"
)

// MaxResponseSize caps provider response bodies to prevent memory
// exhaustion from a misbehaving endpoint.
const MaxResponseSize = 10 * 1024 * 1024 // 10MB

// Request carries the per-call generation parameters. The prompt is the
// fully assembled text; transports that speak a message-oriented API wrap
// it into a single user message.
type Request struct {
	Model       string
	Prompt      string
	Temperature float64
	MaxTokens   int
}

// transport performs one completion call against a provider endpoint.
// Implementations return the raw text; normalization is the dispatcher's
// job.
type transport interface {
	complete(ctx context.Context, p *config.Provider, req Request) (string, error)
}

// =============================================================================
// Chat transport (OpenAI-compatible HTTP)
// =============================================================================

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Stream      bool          `json:"stream"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// chatTransport posts to any /chat/completions-style endpoint with Bearer
// auth. OpenRouter, Together, and local servers in OpenAI mode all speak
// this shape.
type chatTransport struct {
	client *http.Client
}

func (t *chatTransport) complete(ctx context.Context, p *config.Provider, req Request) (string, error) {
	body := chatRequest{
		Model:       req.Model,
		Messages:    []chatMessage{{Role: "user", Content: req.Prompt}},
		Stream:      false,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	raw, err := postJSON(ctx, t.client, p, body)
	if err != nil {
		return "", err
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", &TransportError{Provider: p.Name, Cause: fmt.Errorf("malformed response body: %w", err)}
	}
	if parsed.Error != nil {
		return "", &TransportError{Provider: p.Name, Cause: fmt.Errorf("API error: %s", parsed.Error.Message)}
	}
	if len(parsed.Choices) == 0 {
		return "", &ResponseShapeError{Provider: p.Name, Field: "choices[0]"}
	}
	return parsed.Choices[0].Message.Content, nil
}

// =============================================================================
// SDK transport (go-openai)
// =============================================================================

// sdkTransport drives providers through the go-openai client. The base
// URL is taken from the provider entry, so it also covers self-hosted
// endpoints that implement the OpenAI API.
type sdkTransport struct{}

func (t *sdkTransport) complete(ctx context.Context, p *config.Provider, req Request) (string, error) {
	cfg := openai.DefaultConfig(p.Key)
	if p.APIURL != "" {
		cfg.BaseURL = p.APIURL
	}
	client := openai.NewClientWithConfig(cfg)

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleUser, Content: req.Prompt}},
		Temperature: float32(req.Temperature),
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return "", &TransportError{Provider: p.Name, Cause: err}
	}
	// The SDK already validated the response shape; no choices means the
	// provider genuinely produced nothing.
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("provider %s: %w", p.Name, ErrEmptyResponse)
	}
	return resp.Choices[0].Message.Content, nil
}

// =============================================================================
// Generate transport (prompt-in, text-out)
// =============================================================================

type generateRequest struct {
	Model   string           `json:"model"`
	Prompt  string           `json:"prompt"`
	Stream  bool             `json:"stream"`
	Options *generateOptions `json:"options,omitempty"`
}

type generateOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

// generateTransport speaks the Ollama /api/generate shape: one prompt
// string in, one completed text out. Local servers usually run without a
// key, so the Authorization header is only sent when one is configured.
type generateTransport struct {
	client *http.Client
}

func (t *generateTransport) complete(ctx context.Context, p *config.Provider, req Request) (string, error) {
	body := generateRequest{
		Model:  req.Model,
		Prompt: req.Prompt,
		Stream: false,
		Options: &generateOptions{
			Temperature: req.Temperature,
			NumPredict:  req.MaxTokens,
		},
	}
	raw, err := postJSON(ctx, t.client, p, body)
	if err != nil {
		return "", err
	}

	var parsed generateResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", &TransportError{Provider: p.Name, Cause: fmt.Errorf("malformed response body: %w", err)}
	}
	if parsed.Error != "" {
		return "", &TransportError{Provider: p.Name, Cause: fmt.Errorf("API error: %s", parsed.Error)}
	}
	return parsed.Response, nil
}

// =============================================================================
// HTTP helpers
// =============================================================================

// postJSON marshals body, posts it to the provider URL, and returns the
// size-limited response bytes. Non-2xx statuses become TransportErrors.
func postJSON(ctx context.Context, client *http.Client, p *config.Provider, body any) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, &TransportError{Provider: p.Name, Cause: fmt.Errorf("marshal request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.APIURL, bytes.NewReader(payload))
	if err != nil {
		return nil, &TransportError{Provider: p.Name, Cause: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	if p.Key != "" {
		req.Header.Set("Authorization", "Bearer "+p.Key)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &TransportError{Provider: p.Name, Cause: err}
	}
	defer resp.Body.Close()

	raw, err := readResponse(resp)
	if err != nil {
		return nil, &TransportError{Provider: p.Name, Status: resp.StatusCode, Cause: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &TransportError{
			Provider: p.Name,
			Status:   resp.StatusCode,
			Cause:    fmt.Errorf("request failed: %s", summarizeBody(raw)),
		}
	}
	return raw, nil
}

// readResponse reads the body with a hard size cap.
func readResponse(resp *http.Response) ([]byte, error) {
	limited := io.LimitReader(resp.Body, MaxResponseSize)
	raw, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if int64(len(raw)) == MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return raw, nil
}

// summarizeBody trims an error body to something safe to embed in a chat
// bubble.
func summarizeBody(raw []byte) string {
	const max = 200
	s := string(bytes.TrimSpace(raw))
	if len(s) > max {
		s = s[:max] + "..."
	}
	if s == "" {
		s = "no response body"
	}
	return s
}

// newHTTPClient builds the shared client used by the HTTP transports.
func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 2,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}
