package llms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/plandrive/engine/config"
)

// ============================================================================
// OLLAMA LLM PROVIDER IMPLEMENTATION
// ============================================================================

// OllamaProvider implements LLMProvider for Ollama
type OllamaProvider struct {
	config *config.LLMProviderConfig // Hold the config object
	client *http.Client
	host   string
}

// NewOllamaProvider creates a new Ollama LLM provider
func NewOllamaProvider(model string) *OllamaProvider {
	config := &config.LLMProviderConfig{
		Type:        "ollama",
		Model:       model,
		Host:        "http://localhost:11434",
		Temperature: 0.7,
		MaxTokens:   1000,
		Timeout:     60,
	}

	provider, _ := NewOllamaProviderFromConfig(config)
	return provider
}

// NewOllamaProviderFromConfig creates a new Ollama provider from config
func NewOllamaProviderFromConfig(config *config.LLMProviderConfig) (*OllamaProvider, error) {
	config.SetDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &OllamaProvider{
		config: config,
		client: &http.Client{Timeout: time.Duration(config.Timeout) * time.Second},
		host:   config.Host,
	}, nil
}

// WithBaseURL sets the Ollama base URL
func (o *OllamaProvider) WithBaseURL(url string) *OllamaProvider {
	o.config.Host = url
	o.host = url
	return o
}

// WithTemperature sets the temperature
func (o *OllamaProvider) WithTemperature(temp float64) *OllamaProvider {
	o.config.Temperature = temp
	return o
}

// WithMaxTokens sets the maximum tokens
func (o *OllamaProvider) WithMaxTokens(tokens int) *OllamaProvider {
	o.config.MaxTokens = tokens
	return o
}

// Generate implements LLMProvider.Generate
func (o *OllamaProvider) Generate(prompt string) (string, int, error) {
	// Call Ollama API with the pre-built prompt
	response, err := o.callOllamaAPI(prompt)
	if err != nil {
		return "", 0, err
	}

	// Estimate token usage
	tokensUsed := estimateTokens(response)

	return response, tokensUsed, nil
}

// GenerateStreaming implements LLMProvider.GenerateStreaming
func (o *OllamaProvider) GenerateStreaming(prompt string) (<-chan string, error) {
	ch := make(chan string)

	go func() {
		defer close(ch)

		// Call Ollama streaming API with the pre-built prompt
		err := o.callOllamaStreamingAPI(prompt, ch)
		if err != nil {
			ch <- "Error: " + err.Error()
		}
	}()

	return ch, nil
}

// GetModelName implements LLMProvider.GetModelName
func (o *OllamaProvider) GetModelName() string {
	return o.config.Model
}

// GetMaxTokens implements LLMProvider.GetMaxTokens
func (o *OllamaProvider) GetMaxTokens() int {
	return o.config.MaxTokens
}

// GetTemperature implements LLMProvider.GetTemperature
func (o *OllamaProvider) GetTemperature() float64 {
	return o.config.Temperature
}

// Close implements LLMProvider.Close
func (o *OllamaProvider) Close() error {
	// Ollama doesn't require explicit closing
	return nil
}

// callOllamaAPI calls the Ollama API for generation
func (o *OllamaProvider) callOllamaAPI(prompt string) (string, error) {
	// Prepare the request payload
	payload := map[string]interface{}{
		"model":  o.config.Model,
		"prompt": prompt,
		"stream": false,
		"options": map[string]interface{}{
			"temperature": o.config.Temperature,
			"num_predict": o.config.MaxTokens,
		},
	}

	resp, err := o.post(context.Background(), payload)
	if err != nil {
		return "", fmt.Errorf("failed to call Ollama API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("Ollama API error (status %d): %s", resp.StatusCode, string(body))
	}

	// Parse the response
	var response struct {
		Response string `json:"response"`
		Done     bool   `json:"done"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	return response.Response, nil
}

// callOllamaStreamingAPI calls the Ollama streaming API
func (o *OllamaProvider) callOllamaStreamingAPI(prompt string, ch chan<- string) error {
	// Prepare the request payload
	payload := map[string]interface{}{
		"model":  o.config.Model,
		"prompt": prompt,
		"stream": true,
		"options": map[string]interface{}{
			"temperature": o.config.Temperature,
			"num_predict": o.config.MaxTokens,
		},
	}

	resp, err := o.post(context.Background(), payload)
	if err != nil {
		return fmt.Errorf("failed to call Ollama API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("Ollama API error (status %d): %s", resp.StatusCode, string(body))
	}

	// Stream the response
	decoder := json.NewDecoder(resp.Body)
	for {
		var response struct {
			Response string `json:"response"`
			Done     bool   `json:"done"`
		}

		if err := decoder.Decode(&response); err != nil {
			if err == io.EOF {
				break
			}
			return fmt.Errorf("failed to decode streaming response: %w", err)
		}

		if response.Response != "" {
			ch <- response.Response
		}

		if response.Done {
			break
		}
	}

	return nil
}

// post issues a JSON POST to host's /api/generate endpoint.
func (o *OllamaProvider) post(ctx context.Context, payload map[string]interface{}) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, "POST", o.host+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return o.client.Do(req)
}

// estimateTokens approximates token count from character length, the rough
// ratio OpenAI's tokenizer averages for English text.
func estimateTokens(text string) int {
	return len(text) / 4
}
