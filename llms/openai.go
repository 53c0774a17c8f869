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
// OPENAI PROVIDER IMPLEMENTATION
// ============================================================================

// OpenAIProvider implements LLMProvider against the Chat Completions API,
// sending the pre-built prompt as the sole user turn.
type OpenAIProvider struct {
	config     *config.LLMProviderConfig
	client     *http.Client
	maxRetries int
	retryDelay time.Duration
}

type openAIRequest struct {
	Model               string          `json:"model"`
	Messages            []openAIMessage `json:"messages"`
	MaxTokens           int             `json:"max_tokens,omitempty"`
	MaxCompletionTokens int             `json:"max_completion_tokens,omitempty"`
	Temperature         float64         `json:"temperature"`
	Stream              bool            `json:"stream"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponse struct {
	Choices []openAIChoice `json:"choices"`
	Usage   openAIUsage    `json:"usage"`
	Error   *openAIError   `json:"error,omitempty"`
}

type openAIStreamResponse struct {
	Choices []openAIStreamChoice `json:"choices"`
	Usage   *openAIUsage         `json:"usage,omitempty"`
	Error   *openAIError         `json:"error,omitempty"`
}

type openAIChoice struct {
	Message      openAIMessage `json:"message"`
	FinishReason string        `json:"finish_reason"`
}

type openAIStreamChoice struct {
	Delta        openAIDelta `json:"delta"`
	FinishReason string      `json:"finish_reason"`
}

type openAIDelta struct {
	Content string `json:"content,omitempty"`
}

type openAIUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type openAIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code"`
}

// NewOpenAIProvider creates a new OpenAI provider with hand-picked defaults.
func NewOpenAIProvider(apiKey string, model string) *OpenAIProvider {
	cfg := &config.LLMProviderConfig{
		Type:        "openai",
		Model:       model,
		APIKey:      apiKey,
		Host:        "https://api.openai.com/v1",
		Temperature: 0.7,
		MaxTokens:   1000,
		Timeout:     60,
	}
	provider, _ := NewOpenAIProviderFromConfig(cfg)
	return provider
}

// NewOpenAIProviderFromConfig creates a new OpenAI provider from config.
func NewOpenAIProviderFromConfig(cfg *config.LLMProviderConfig) (*OpenAIProvider, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	maxRetries, retryDelay := retryPolicyFor(cfg.Retry)
	return &OpenAIProvider{
		config:     cfg,
		client:     &http.Client{Timeout: time.Duration(cfg.Timeout) * time.Second},
		maxRetries: maxRetries,
		retryDelay: retryDelay,
	}, nil
}

func (p *OpenAIProvider) GetModelName() string    { return p.config.Model }
func (p *OpenAIProvider) GetMaxTokens() int       { return p.config.MaxTokens }
func (p *OpenAIProvider) GetTemperature() float64 { return p.config.Temperature }
func (p *OpenAIProvider) Close() error            { return nil }

// Generate implements LLMProvider.Generate.
func (p *OpenAIProvider) Generate(prompt string) (string, int, error) {
	request := p.buildRequest(prompt, false)

	response, err := p.makeRequestWithRetry(request)
	if err != nil {
		return "", 0, err
	}
	if response.Error != nil {
		return "", 0, fmt.Errorf("OpenAI API error: %s", response.Error.Message)
	}
	if len(response.Choices) == 0 {
		return "", 0, fmt.Errorf("no response choices returned")
	}
	return response.Choices[0].Message.Content, response.Usage.TotalTokens, nil
}

// GenerateStreaming implements LLMProvider.GenerateStreaming.
func (p *OpenAIProvider) GenerateStreaming(prompt string) (<-chan string, error) {
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

func (p *OpenAIProvider) buildRequest(prompt string, stream bool) openAIRequest {
	request := openAIRequest{
		Model:       p.config.Model,
		Messages:    []openAIMessage{{Role: "user", Content: prompt}},
		Temperature: p.config.Temperature,
		Stream:      stream,
	}
	// o1/o3 reasoning models reject max_tokens in favor of max_completion_tokens.
	if strings.HasPrefix(p.config.Model, "o1-") || strings.HasPrefix(p.config.Model, "o3-") {
		request.MaxCompletionTokens = p.config.MaxTokens
	} else {
		request.MaxTokens = p.config.MaxTokens
	}
	return request
}

// makeRequestWithRetry retries transient failures (429/5xx) with exponential
// backoff, bounded by p.maxRetries.
func (p *OpenAIProvider) makeRequestWithRetry(request openAIRequest) (*openAIResponse, error) {
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
		time.Sleep(time.Duration(1<<uint(attempt)) * p.retryDelay)
	}
	return nil, lastErr
}

func (p *OpenAIProvider) attemptRequest(request openAIRequest) (*openAIResponse, int, error) {
	requestBody, err := json.Marshal(request)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequest("POST", p.config.Host+"/chat/completions", bytes.NewBuffer(requestBody))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.config.APIKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var response openAIResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return &response, resp.StatusCode, nil
}

// makeStreamingRequest reads the Chat Completions API's SSE stream and
// forwards each text delta on ch.
func (p *OpenAIProvider) makeStreamingRequest(request openAIRequest, ch chan<- string) error {
	requestBody, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequest("POST", p.config.Host+"/chat/completions", bytes.NewBuffer(requestBody))
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.config.APIKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	reader := bufio.NewReader(resp.Body)
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			if err == io.EOF {
				break
			}
			return fmt.Errorf("failed to read stream: %w", err)
		}

		line = bytes.TrimSpace(line)
		if len(line) == 0 || !bytes.HasPrefix(line, []byte("data: ")) {
			continue
		}
		line = line[len("data: "):]
		if bytes.Equal(line, []byte("[DONE]")) {
			break
		}

		var streamResp openAIStreamResponse
		if err := json.Unmarshal(line, &streamResp); err != nil {
			continue
		}
		if streamResp.Error != nil {
			return fmt.Errorf("API error: %s", streamResp.Error.Message)
		}
		if len(streamResp.Choices) == 0 {
			continue
		}
		if content := streamResp.Choices[0].Delta.Content; content != "" {
			ch <- content
		}
		if streamResp.Choices[0].FinishReason == "stop" {
			break
		}
	}
	return nil
}
