package llm

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	// EnvGogoMode is the environment variable name for mode selection.
	EnvGogoMode = "GOGO_MODE"
	// ModeMock indicates mock mode should be used.
	ModeMock = "MOCK"
)

// Config selects and configures a model backend.
type Config struct {
	Provider string
	BaseURL  string
	APIKey   string
	Timeout  time.Duration
}

// NewLLMClient creates an LLM client for cfg.Provider. GOGO_MODE=MOCK forces the mock client.
func NewLLMClient(ctx context.Context, cfg Config, logger *zap.Logger) (LLMClient, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	provider := strings.ToLower(cfg.Provider)
	if os.Getenv(EnvGogoMode) == ModeMock {
		logger.Info("GOGO_MODE=MOCK detected, using mock LLM client")
		provider = ProviderMock
	}

	switch provider {
	case ProviderMock:
		return NewMockClient(), nil
	case ProviderGemini:
		return NewGenAIClient(ctx, cfg.BaseURL, cfg.APIKey, cfg.Timeout)
	case ProviderOpenAI, "":
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("LLM base URL is required for provider %q", ProviderOpenAI)
		}
		return NewClient(cfg.BaseURL, cfg.APIKey, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider %q", cfg.Provider)
	}
}
