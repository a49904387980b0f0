// ABOUTME: YAML configuration parsing, defaults, and validation
// ABOUTME: Defines structure for the player's API, retry, and UI settings
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultBaseURL   = "https://azura.theindiebeat.fm/api"
	DefaultUserAgent = "TIBR Simple Player/1.0"
)

type Config struct {
	API      APIConfig      `yaml:"api"`
	Retry    RetryConfig    `yaml:"retry"`
	Executor ExecutorConfig `yaml:"executor"`
	Polling  PollingConfig  `yaml:"polling"`
	Player   PlayerConfig   `yaml:"player"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type APIConfig struct {
	BaseURL          string `yaml:"base_url"`
	UserAgent        string `yaml:"user_agent"`
	RequestTimeoutMs int    `yaml:"request_timeout_ms"`
}

type RetryConfig struct {
	MaxAttempts int `yaml:"max_attempts"`
	BaseDelayMs int `yaml:"base_delay_ms"`
}

type ExecutorConfig struct {
	SubmitTimeoutMs int `yaml:"submit_timeout_ms"`
}

type PollingConfig struct {
	PollMs int `yaml:"poll_ms"`
}

type PlayerConfig struct {
	Command          string   `yaml:"command"`
	Args             []string `yaml:"args"`
	Volume           float64  `yaml:"volume"`
	ConnectTimeoutMs int      `yaml:"connect_timeout_ms"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
	File  string `yaml:"file"`
}

// Default returns the configuration used when no file is supplied.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:          DefaultBaseURL,
			UserAgent:        DefaultUserAgent,
			RequestTimeoutMs: 10000,
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			BaseDelayMs: 5000,
		},
		Executor: ExecutorConfig{
			SubmitTimeoutMs: 10000,
		},
		Polling: PollingConfig{
			PollMs: 30000,
		},
		Player: PlayerConfig{
			Command:          "mpv",
			Volume:           0.5,
			ConnectTimeoutMs: 5000,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads a YAML config file over the defaults, so absent fields keep
// their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url must not be empty")
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be >= 1, got %d", c.Retry.MaxAttempts)
	}
	if c.Polling.PollMs <= 0 {
		return fmt.Errorf("polling.poll_ms must be > 0, got %d", c.Polling.PollMs)
	}
	if c.Executor.SubmitTimeoutMs <= 0 {
		return fmt.Errorf("executor.submit_timeout_ms must be > 0, got %d", c.Executor.SubmitTimeoutMs)
	}
	return nil
}
