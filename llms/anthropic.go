package llms

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/plandrive/engine/config"
)

// ============================================================================
// ANTHROPIC PROVIDER IMPLEMENTATION
// ============================================================================

// AnthropicProvider implements LLMProvider against the Anthropic Messages API.
// It only ever sends a single user turn — the pre-built prompt llm.generate
// hands it — so it carries none of the multi-turn/tool-calling request shape
// a chat-style client would need.
type AnthropicProvider struct {
	config     *config.LLMProviderConfig
	client     *http.Client
	maxRetries int
	retryDelay time.Duration
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	Messages    []anthropicMessage `json:"messages"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature,omitempty"`
	Stream      bool               `json:"stream"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []anthropicContent `json:"content"`
	Usage   anthropicUsage     `json:"usage"`
	Error   *anthropicError    `json:"error,omitempty"`
}

type anthropicStreamResponse struct {
	Type  string          `json:"type"`
	Delta *anthropicDelta `json:"delta,omitempty"`
	Usage *anthropicUsage `json:"usage,omitempty"`
}

type anthropicContent struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type anthropicDelta struct {
	Text string `json:"text,omitempty"`
}

type anthropicUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type anthropicError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// NewAnthropicProvider creates a new Anthropic provider with hand-picked
// defaults; config.LLMProviderConfig.SetDefaults then fills only the fields
// they leave unset (retry).
func NewAnthropicProvider(apiKey string, model string) *AnthropicProvider {
	cfg := &config.LLMProviderConfig{
		Type:        "anthropic",
		Model:       model,
		APIKey:      apiKey,
		Host:        "https://api.anthropic.com",
		Temperature: 1.0, // Claude default
		MaxTokens:   4096,
		Timeout:     120,
	}
	provider, _ := NewAnthropicProviderFromConfig(cfg)
	return provider
}

// NewAnthropicProviderFromConfig creates a new Anthropic provider from config.
func NewAnthropicProviderFromConfig(cfg *config.LLMProviderConfig) (*AnthropicProvider, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required for Anthropic")
	}
	maxRetries, retryDelay := retryPolicyFor(cfg.Retry)
	return &AnthropicProvider{
		config:     cfg,
		client:     &http.Client{Timeout: time.Duration(cfg.Timeout) * time.Second},
		maxRetries: maxRetries,
		retryDelay: retryDelay,
	}, nil
}

func (p *AnthropicProvider) GetModelName() string     { return p.config.Model }
func (p *AnthropicProvider) GetMaxTokens() int        { return p.config.MaxTokens }
func (p *AnthropicProvider) GetTemperature() float64  { return p.config.Temperature }
func (p *AnthropicProvider) Close() error             { return nil }

// Generate implements LLMProvider.Generate.
func (p *AnthropicProvider) Generate(prompt string) (string, int, error) {
	request := p.buildRequest(prompt, false)

	response, err := p.makeRequestWithRetry(request)
	if err != nil {
		return "", 0, err
	}
	if response.Error != nil {
		return "", 0, fmt.Errorf("Anthropic API error: %s", response.Error.Message)
	}

	var text string
	for _, content := range response.Content {
		if content.Type == "text" {
			text += content.Text
		}
	}
	tokensUsed := response.Usage.InputTokens + response.Usage.OutputTokens
	return text, tokensUsed, nil
}

// GenerateStreaming implements LLMProvider.GenerateStreaming.
func (p *AnthropicProvider) GenerateStreaming(prompt string) (<-chan string, error) {
	request := p.buildRequest(prompt, true)
	ch := make(chan string)

	go func() {
		defer close(ch)
		if err := p.makeStreamingRequest(request, ch); err != nil {
			ch <- "Error: " + err.Error()
		}
	}()

	return ch, nil
}

func (p *AnthropicProvider) buildRequest(prompt string, stream bool) anthropicRequest {
	return anthropicRequest{
		Model:       p.config.Model,
		Messages:    []anthropicMessage{{Role: "user", Content: prompt}},
		MaxTokens:   p.config.MaxTokens,
		Temperature: p.config.Temperature,
		Stream:      stream,
	}
}

// makeRequestWithRetry retries transient failures (429/5xx) with exponential
// backoff, bounded by p.maxRetries.
func (p *AnthropicProvider) makeRequestWithRetry(request anthropicRequest) (*anthropicResponse, error) {
	var lastErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		response, statusCode, err := p.attemptRequest(request)
		if err == nil {
			return response, nil
		}
		lastErr = err
		if !isRetryableStatus(statusCode) || attempt == p.maxRetries {
			return nil, err
		}
		delay := time.Duration(1<<uint(attempt)) * p.retryDelay
		time.Sleep(delay)
	}
	return nil, lastErr
}

func (p *AnthropicProvider) attemptRequest(request anthropicRequest) (*anthropicResponse, int, error) {
	jsonData, err := json.Marshal(request)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequest("POST", p.config.Host+"/v1/messages", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", p.config.APIKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var response anthropicResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
	}
	return &response, resp.StatusCode, nil
}

func isRetryableStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusRequestTimeout, http.StatusTooManyRequests,
		http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// makeStreamingRequest reads the Messages API's SSE stream and forwards each
// text delta on ch.
func (p *AnthropicProvider) makeStreamingRequest(request anthropicRequest, ch chan<- string) error {
	jsonData, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequest("POST", p.config.Host+"/v1/messages", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", p.config.APIKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, ":") || !strings.HasPrefix(line, "data: ") {
			continue
		}
		jsonData := strings.TrimPrefix(line, "data: ")

		var streamResp anthropicStreamResponse
		if err := json.Unmarshal([]byte(jsonData), &streamResp); err != nil {
			return fmt.Errorf("failed to decode streaming response: %w, data: %s", err, jsonData)
		}

		switch streamResp.Type {
		case "content_block_delta":
			if streamResp.Delta != nil && streamResp.Delta.Text != "" {
				ch <- streamResp.Delta.Text
			}
		case "message_stop":
			return nil
		}
	}
	return scanner.Err()
}

// retryPolicyFor maps the config's coarse retry knob ("default"/"none") to a
// bounded attempt count and base backoff.
func retryPolicyFor(retry string) (maxRetries int, baseDelay time.Duration) {
	if retry == "none" {
		return 0, 0
	}
	return 3, 500 * time.Millisecond
}
