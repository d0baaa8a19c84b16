// Package openai implements the provider contract against the OpenAI
// chat-completions wire format. One implementation serves OpenAI directly,
// Google through its OpenAI-compatible endpoint, and a local Ollama runtime,
// parameterized by base URL and credential.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bkyoung/report-generator/internal/adapter/llm"
	llmhttp "github.com/bkyoung/report-generator/internal/adapter/llm/http"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	googleBaseURL  = "https://generativelanguage.googleapis.com/v1beta/openai"
	defaultTimeout = 120 * time.Second
)

// Client is an HTTP client for an OpenAI-compatible chat-completions API.
type Client struct {
	name    string
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewClient creates a provider for the OpenAI API.
func NewClient(apiKey string) *Client {
	return newClient("openai", apiKey, defaultBaseURL)
}

// NewGoogleClient creates a provider for Google served through its
// OpenAI-compatible endpoint. The logical provider name stays "google"; the
// adapter never learns it is speaking a borrowed wire format.
func NewGoogleClient(apiKey string) *Client {
	return newClient("google", apiKey, googleBaseURL)
}

// NewOllamaClient creates a provider for a local Ollama runtime. Ollama
// ignores credentials but the wire format requires one, hence the
// placeholder key.
func NewOllamaClient(baseURL string) *Client {
	return newClient("ollama", "ollama", strings.TrimSuffix(baseURL, "/")+"/v1")
}

func newClient(name, apiKey, baseURL string) *Client {
	return &Client{
		name:    name,
		apiKey:  apiKey,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: defaultTimeout},
	}
}

// SetBaseURL sets a custom base URL (for testing).
func (c *Client) SetBaseURL(url string) {
	c.baseURL = strings.TrimSuffix(url, "/")
}

// Name returns the logical provider name.
func (c *Client) Name() string {
	return c.name
}

// Generate makes a chat-completions request and normalizes the response.
// Exactly one user message plus an optional system message. CostUSD and
// Provider are left for the client layer to fill in.
func (c *Client) Generate(ctx context.Context, req llm.GenerateRequest) (llm.GenerateResponse, error) {
	messages := make([]chatMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.Prompt})

	body := chatRequest{
		Model:       req.Model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return llm.GenerateResponse{}, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return llm.GenerateResponse{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return llm.GenerateResponse{}, c.transportError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return llm.GenerateResponse{}, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		return llm.GenerateResponse{}, c.errorFromBody(resp.StatusCode, raw)
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return llm.GenerateResponse{}, fmt.Errorf("parse response: %w", err)
	}

	var content, finishReason string
	if len(parsed.Choices) > 0 {
		content = parsed.Choices[0].Message.Content
		finishReason = strings.ToLower(parsed.Choices[0].FinishReason)
	}

	return llm.GenerateResponse{
		Content:      content,
		Model:        parsed.Model,
		InputTokens:  parsed.Usage.PromptTokens,
		OutputTokens: parsed.Usage.CompletionTokens,
		FinishReason: finishReason,
	}, nil
}

func (c *Client) errorFromBody(statusCode int, body []byte) error {
	message := strings.TrimSpace(string(body))
	var envelope errorResponse
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		message = envelope.Error.Message
	}
	return llmhttp.FromStatus(c.name, statusCode, message)
}

func (c *Client) transportError(err error) error {
	errType := llmhttp.ErrTypeNetwork
	if strings.Contains(err.Error(), "deadline exceeded") || strings.Contains(err.Error(), "Timeout") {
		errType = llmhttp.ErrTypeTimeout
	}
	return &llmhttp.Error{
		Type:      errType,
		Message:   err.Error(),
		Retryable: true,
		Provider:  c.name,
	}
}
