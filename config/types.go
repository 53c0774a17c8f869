// Package config provides the layered YAML configuration for the deployment
// server and CLI: provider credentials, sandboxing, checkpoint policy, and
// logging/performance tuning.
package config

import (
	"fmt"
	"time"
)

// ============================================================================
// PROVIDER CONFIGURATIONS
// ============================================================================

// ProviderConfigs contains all provider configurations available to a Body.
type ProviderConfigs struct {
	LLMs      map[string]LLMProviderConfig      `yaml:"llms,omitempty"`
	Databases map[string]DatabaseProviderConfig `yaml:"databases,omitempty"`
	Embedders map[string]EmbedderProviderConfig `yaml:"embedders,omitempty"`
}

func (c *ProviderConfigs) Validate() error {
	for name, llm := range c.LLMs {
		if err := llm.Validate(); err != nil {
			return fmt.Errorf("LLM provider '%s' validation failed: %w", name, err)
		}
	}
	for name, db := range c.Databases {
		if err := db.Validate(); err != nil {
			return fmt.Errorf("database provider '%s' validation failed: %w", name, err)
		}
	}
	for name, embedder := range c.Embedders {
		if err := embedder.Validate(); err != nil {
			return fmt.Errorf("embedder provider '%s' validation failed: %w", name, err)
		}
	}
	return nil
}

func (c *ProviderConfigs) SetDefaults() {
	for name := range c.LLMs {
		llm := c.LLMs[name]
		llm.SetDefaults()
		c.LLMs[name] = llm
	}
	for name := range c.Databases {
		db := c.Databases[name]
		db.SetDefaults()
		c.Databases[name] = db
	}
	for name := range c.Embedders {
		embedder := c.Embedders[name]
		embedder.SetDefaults()
		c.Embedders[name] = embedder
	}
}

// LLMProviderConfig configures one named LLM provider bound to the Body's
// llm.generate capability.
type LLMProviderConfig struct {
	Type        string  `yaml:"type"` // "anthropic", "openai", "ollama"
	Model       string  `yaml:"model"`
	APIKey      string  `yaml:"api_key"`
	Host        string  `yaml:"host"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	Timeout     int     `yaml:"timeout"` // seconds
	Retry       string  `yaml:"retry"`   // "default" or "none"
}

func (c *LLMProviderConfig) Validate() error {
	if c.Type == "" {
		return fmt.Errorf("type is required")
	}
	if c.Model == "" {
		return fmt.Errorf("model is required")
	}
	if c.Host == "" {
		return fmt.Errorf("host is required")
	}
	if (c.Type == "openai" || c.Type == "anthropic") && c.APIKey == "" {
		return fmt.Errorf("api_key is required for %s", c.Type)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2")
	}
	if c.MaxTokens < 0 {
		return fmt.Errorf("max_tokens must be non-negative")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must be non-negative")
	}
	return nil
}

func (c *LLMProviderConfig) SetDefaults() {
	if c.Type == "" {
		c.Type = "anthropic"
	}
	if c.Host == "" {
		switch c.Type {
		case "openai":
			c.Host = "https://api.openai.com/v1"
		case "anthropic":
			c.Host = "https://api.anthropic.com"
		case "ollama":
			c.Host = "http://localhost:11434"
		default:
			c.Host = "http://localhost:11434"
		}
	}
	if c.Temperature == 0 {
		c.Temperature = 0.7
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = 2000
	}
	if c.Timeout == 0 {
		c.Timeout = 60
	}
	if c.Retry == "" {
		c.Retry = "default"
	}
}

// DatabaseProviderConfig configures an optional vector store (qdrant) backing
// the Body's memorized-value capability.
type DatabaseProviderConfig struct {
	Type     string `yaml:"type"` // "qdrant"
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	APIKey   string `yaml:"api_key"`
	Timeout  int    `yaml:"timeout"`
	UseTLS   bool   `yaml:"use_tls"`
	Insecure bool   `yaml:"insecure"`
}

func (c *DatabaseProviderConfig) Validate() error {
	if c.Type == "" {
		return fmt.Errorf("type is required")
	}
	if c.Host == "" {
		return fmt.Errorf("host is required")
	}
	if c.Port <= 0 {
		return fmt.Errorf("port must be positive")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must be non-negative")
	}
	return nil
}

func (c *DatabaseProviderConfig) SetDefaults() {
	if c.Type == "" {
		c.Type = "qdrant"
	}
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 6333
	}
	if c.Timeout == 0 {
		c.Timeout = 30
	}
}

// EmbedderProviderConfig configures an embedder used by the optional
// vector-backed memorized-value store.
type EmbedderProviderConfig struct {
	Type       string `yaml:"type"`
	Model      string `yaml:"model"`
	Host       string `yaml:"host"`
	Dimension  int    `yaml:"dimension"`
	Timeout    int    `yaml:"timeout"`
	MaxRetries int    `yaml:"max_retries"`
}

func (c *EmbedderProviderConfig) Validate() error {
	if c.Type == "" {
		return fmt.Errorf("type is required")
	}
	if c.Model == "" {
		return fmt.Errorf("model is required")
	}
	if c.Host == "" {
		return fmt.Errorf("host is required")
	}
	if c.Dimension <= 0 {
		return fmt.Errorf("dimension must be positive")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must be non-negative")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be non-negative")
	}
	return nil
}

func (c *EmbedderProviderConfig) SetDefaults() {
	if c.Type == "" {
		c.Type = "ollama"
	}
	if c.Model == "" {
		c.Model = "nomic-embed-text"
	}
	if c.Host == "" {
		c.Host = "http://localhost:11434"
	}
	if c.Dimension == 0 {
		c.Dimension = 768
	}
	if c.Timeout == 0 {
		c.Timeout = 30
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
}

// ============================================================================
// RUNTIME CONFIGURATIONS
// ============================================================================

// RetryPolicy configures the orchestrator's bounded exponential-backoff
// retry of failed inferences.
type RetryPolicy struct {
	MaxRetries int           `yaml:"max_retries"`
	BaseDelay  time.Duration `yaml:"base_delay"`
	MaxDelay   time.Duration `yaml:"max_delay"`
}

func (c *RetryPolicy) Validate() error {
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be non-negative")
	}
	if c.BaseDelay < 0 || c.MaxDelay < 0 {
		return fmt.Errorf("delays must be non-negative")
	}
	return nil
}

func (c *RetryPolicy) SetDefaults() {
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.BaseDelay == 0 {
		c.BaseDelay = 250 * time.Millisecond
	}
	if c.MaxDelay == 0 {
		c.MaxDelay = 8 * time.Second
	}
}

// SandboxConfig bounds filesystem and script-execution access granted to a
// run's Body.
type SandboxConfig struct {
	RootDir           string        `yaml:"root_dir"`
	PythonInterpreter string        `yaml:"python_interpreter"`
	ScriptTimeout     time.Duration `yaml:"script_timeout"`
}

func (c *SandboxConfig) Validate() error {
	if c.RootDir == "" {
		return fmt.Errorf("root_dir is required")
	}
	if c.ScriptTimeout < 0 {
		return fmt.Errorf("script_timeout must be non-negative")
	}
	return nil
}

func (c *SandboxConfig) SetDefaults() {
	if c.RootDir == "" {
		c.RootDir = "./sandboxes"
	}
	if c.PythonInterpreter == "" {
		c.PythonInterpreter = "python3"
	}
	if c.ScriptTimeout == 0 {
		c.ScriptTimeout = 30 * time.Second
	}
}

// CheckpointConfig configures the Run Host's per-cycle checkpoint policy.
type CheckpointConfig struct {
	Dir              string        `yaml:"dir"`
	EveryNCycles     int           `yaml:"every_n_cycles"`
	EveryNInferences int           `yaml:"every_n_inferences"`
	ResumeExpiry     time.Duration `yaml:"resume_expiry"`
}

func (c *CheckpointConfig) Validate() error {
	if c.Dir == "" {
		return fmt.Errorf("dir is required")
	}
	if c.EveryNCycles < 0 || c.EveryNInferences < 0 {
		return fmt.Errorf("checkpoint frequency must be non-negative")
	}
	return nil
}

func (c *CheckpointConfig) SetDefaults() {
	if c.Dir == "" {
		c.Dir = "./runs"
	}
	if c.EveryNCycles == 0 {
		c.EveryNCycles = 1
	}
	if c.ResumeExpiry == 0 {
		c.ResumeExpiry = 24 * time.Hour
	}
}

// RunDefaults configures orchestrator-loop defaults applied to every run
// unless overridden by the plan manifest or the run request.
type RunDefaults struct {
	MaxCycles         int           `yaml:"max_cycles"`
	WorkerPoolSize    int           `yaml:"worker_pool_size"`
	InferenceTimeout  time.Duration `yaml:"inference_timeout"`
	Retry             RetryPolicy   `yaml:"retry"`
}

func (c *RunDefaults) Validate() error {
	if c.MaxCycles <= 0 {
		return fmt.Errorf("max_cycles must be positive")
	}
	if c.WorkerPoolSize <= 0 {
		return fmt.Errorf("worker_pool_size must be positive")
	}
	if c.InferenceTimeout < 0 {
		return fmt.Errorf("inference_timeout must be non-negative")
	}
	return c.Retry.Validate()
}

func (c *RunDefaults) SetDefaults() {
	if c.MaxCycles == 0 {
		c.MaxCycles = 10000
	}
	if c.WorkerPoolSize == 0 {
		c.WorkerPoolSize = 1
	}
	if c.InferenceTimeout == 0 {
		c.InferenceTimeout = 2 * time.Minute
	}
	c.Retry.SetDefaults()
}

// ============================================================================
// SERVER CONFIGURATIONS
// ============================================================================

// LoggingConfig holds the logging settings. The config hot-reload watcher
// applies Level; Format and Output are validated but no logger setup reads
// them.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
	Output string `yaml:"output"` // "stdout", "stderr", "file"
}

func (c *LoggingConfig) Validate() error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Level] {
		return fmt.Errorf("invalid log level: %s", c.Level)
	}
	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[c.Format] {
		return fmt.Errorf("invalid log format: %s", c.Format)
	}
	validOutputs := map[string]bool{"stdout": true, "stderr": true, "file": true}
	if !validOutputs[c.Output] {
		return fmt.Errorf("invalid output destination: %s", c.Output)
	}
	return nil
}

func (c *LoggingConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "text"
	}
	if c.Output == "" {
		c.Output = "stdout"
	}
}

// PerformanceConfig holds server tuning settings. They are validated and
// defaulted with the rest of the config; no server or metrics code reads
// them.
type PerformanceConfig struct {
	MaxConcurrentRuns int           `yaml:"max_concurrent_runs"`
	RequestTimeout    time.Duration `yaml:"request_timeout"`
}

func (c *PerformanceConfig) Validate() error {
	if c.MaxConcurrentRuns <= 0 {
		return fmt.Errorf("max_concurrent_runs must be positive")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive")
	}
	return nil
}

func (c *PerformanceConfig) SetDefaults() {
	if c.MaxConcurrentRuns == 0 {
		c.MaxConcurrentRuns = 64
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = 30 * time.Second
	}
}

// GlobalSettings groups settings shared across every run hosted by the
// server.
type GlobalSettings struct {
	Logging     LoggingConfig     `yaml:"logging,omitempty"`
	Performance PerformanceConfig `yaml:"performance,omitempty"`
}

func (c *GlobalSettings) Validate() error {
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if err := c.Performance.Validate(); err != nil {
		return fmt.Errorf("performance: %w", err)
	}
	return nil
}

func (c *GlobalSettings) SetDefaults() {
	c.Logging.SetDefaults()
	c.Performance.SetDefaults()
}
