// Package config handles benchmark configuration: YAML parsing, defaults,
// and validation.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Modes accepted for the submission trigger. Chat runs the full LLM+TTS
// pipeline; echo skips the LLM and synthesizes the prompt directly.
const (
	ModeChat = "chat"
	ModeEcho = "echo"
)

// Config holds every knob of a benchmark run. Immutable once the run starts.
type Config struct {
	BaseURL            string        `yaml:"baseURL"`
	Concurrency        int           `yaml:"concurrency"`
	RequestsPerSession int           `yaml:"requestsPerSession"`
	Mode               string        `yaml:"mode"`
	Prompts            []string      `yaml:"prompts"`
	RequestTimeout     time.Duration `yaml:"requestTimeout"`
	RequestInterval    time.Duration `yaml:"requestInterval"`
	OutputCSV          string        `yaml:"outputCSV"`
	RPS                int           `yaml:"rps"` // 0 = no global rate cap
}

// Default returns a config with the standard defaults applied.
func Default() *Config {
	return &Config{
		BaseURL:            "http://localhost:8010",
		Concurrency:        5,
		RequestsPerSession: 10,
		Mode:               ModeChat,
		Prompts: []string{
			"Hello, nice to meet you",
			"How is the weather today",
			"Can you tell me a joke",
			"What is your favorite color",
			"Recommend a good book",
		},
		RequestTimeout:  15 * time.Second,
		RequestInterval: time.Second,
		OutputCSV:       "results.csv",
	}
}

// Load reads and parses a YAML configuration file. Fields absent from the
// file keep their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return cfg, nil
}

// Validate checks the run invariants.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("baseURL is required")
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be >= 1, got %d", c.Concurrency)
	}
	if c.RequestsPerSession < 1 {
		return fmt.Errorf("requestsPerSession must be >= 1, got %d", c.RequestsPerSession)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("requestTimeout must be > 0, got %v", c.RequestTimeout)
	}
	if c.RequestInterval < 0 {
		return fmt.Errorf("requestInterval must be >= 0, got %v", c.RequestInterval)
	}
	if c.Mode != ModeChat && c.Mode != ModeEcho {
		return fmt.Errorf("mode must be %q or %q, got %q", ModeChat, ModeEcho, c.Mode)
	}
	if len(c.Prompts) == 0 {
		return fmt.Errorf("at least one prompt is required")
	}
	if c.RPS < 0 {
		return fmt.Errorf("rps must be >= 0, got %d", c.RPS)
	}
	return nil
}

// Prompt returns the prompt for the i-th request, cycling through the pool.
func (c *Config) Prompt(i int) string {
	return c.Prompts[i%len(c.Prompts)]
}
