// Package config provides configuration for the outreach service.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the service configuration.
// Precedence: defaults < YAML file < environment (including .env).
type Config struct {
	// Server settings
	HTTPPort        int    `yaml:"http_port"`
	VerificationKey string `yaml:"verification_key"`

	// Database
	DatabaseDriver   string `yaml:"database_driver"`
	DatabaseURL      string `yaml:"database_url"`
	ResolveRetries   int    `yaml:"resolve_retries"`
	ResolveBackoffMS int    `yaml:"resolve_backoff_ms"`

	// Model collaborator
	LLMProvider    string  `yaml:"llm_provider"`
	LLMBaseURL     string  `yaml:"llm_base_url"`
	LLMAPIKey      string  `yaml:"llm_api_key"`
	LLMModel       string  `yaml:"llm_model"`
	LLMTimeoutMS   int     `yaml:"llm_timeout_ms"`
	LLMTemperature float64 `yaml:"llm_temperature"`

	// Pricing per 1K tokens; zero leaves cost_usd unset.
	PriceInputPer1K  float64 `yaml:"price_input_per_1k"`
	PriceOutputPer1K float64 `yaml:"price_output_per_1k"`

	// Content policy
	PolicyFile string `yaml:"policy_file"`

	// Logging
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		HTTPPort:         8080,
		DatabaseDriver:   "sqlite3",
		DatabaseURL:      "outreach.db",
		ResolveRetries:   5,
		ResolveBackoffMS: 25,
		LLMProvider:      "openai",
		LLMBaseURL:       "https://api.openai.com",
		LLMModel:         "gpt-4o-mini",
		LLMTimeoutMS:     60000,
		LLMTemperature:   0.7,
		LogLevel:         "info",
		LogFormat:        "json",
	}
}

// Load reads an optional .env, then the YAML file at path (skipped when path is empty),
// then environment overrides, and validates the result.
func Load(path string) (*Config, error) {
	_ = godotenv.Load() // optional

	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	cfg.HTTPPort = getEnvInt("HTTP_PORT", cfg.HTTPPort)
	cfg.VerificationKey = getEnv("VERIFICATION_KEY", cfg.VerificationKey)
	cfg.DatabaseDriver = getEnv("DATABASE_DRIVER", cfg.DatabaseDriver)
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.ResolveRetries = getEnvInt("RESOLVE_RETRIES", cfg.ResolveRetries)
	cfg.ResolveBackoffMS = getEnvInt("RESOLVE_BACKOFF_MS", cfg.ResolveBackoffMS)
	cfg.LLMProvider = getEnv("LLM_PROVIDER", cfg.LLMProvider)
	cfg.LLMBaseURL = getEnv("LLM_BASE_URL", cfg.LLMBaseURL)
	cfg.LLMAPIKey = getEnv("LLM_API_KEY", cfg.LLMAPIKey)
	cfg.LLMModel = getEnv("LLM_MODEL", cfg.LLMModel)
	cfg.LLMTimeoutMS = getEnvInt("LLM_TIMEOUT_MS", cfg.LLMTimeoutMS)
	cfg.LLMTemperature = getEnvFloat("LLM_TEMPERATURE", cfg.LLMTemperature)
	cfg.PriceInputPer1K = getEnvFloat("PRICE_INPUT_PER_1K", cfg.PriceInputPer1K)
	cfg.PriceOutputPer1K = getEnvFloat("PRICE_OUTPUT_PER_1K", cfg.PriceOutputPer1K)
	cfg.PolicyFile = getEnv("POLICY_FILE", cfg.PolicyFile)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnv("LOG_FORMAT", cfg.LogFormat)
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("http_port must be within 1..65535, got %d", c.HTTPPort)
	}
	switch c.DatabaseDriver {
	case "sqlite3", "sqlite":
	default:
		return fmt.Errorf("database_driver must be sqlite3 or sqlite, got %q", c.DatabaseDriver)
	}
	if c.DatabaseURL == "" {
		return errors.New("database_url is required")
	}
	if c.ResolveRetries < 0 || c.ResolveBackoffMS < 0 {
		return errors.New("resolve_retries and resolve_backoff_ms must be >= 0")
	}
	switch strings.ToLower(c.LLMProvider) {
	case "openai", "gemini", "mock":
	default:
		return fmt.Errorf("llm_provider must be openai, gemini or mock, got %q", c.LLMProvider)
	}
	if c.LLMModel == "" {
		return errors.New("llm_model is required")
	}
	if c.LLMTimeoutMS <= 0 {
		return errors.New("llm_timeout_ms must be > 0")
	}
	if c.LLMTemperature < 0 || c.LLMTemperature > 2 {
		return fmt.Errorf("llm_temperature must be within 0..2, got %v", c.LLMTemperature)
	}
	if c.PriceInputPer1K < 0 || c.PriceOutputPer1K < 0 {
		return errors.New("token prices must be >= 0")
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("log_format must be json or console, got %q", c.LogFormat)
	}
	return nil
}

// LLMTimeout is the per-call model timeout.
func (c *Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLMTimeoutMS) * time.Millisecond
}

// ResolveBackoff is the base delay between reference lookups after a lost insert race.
func (c *Config) ResolveBackoff() time.Duration {
	return time.Duration(c.ResolveBackoffMS) * time.Millisecond
}

// PricingConfigured reports whether cost_usd can be computed.
func (c *Config) PricingConfigured() bool {
	return c.PriceInputPer1K > 0 && c.PriceOutputPer1K > 0
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
