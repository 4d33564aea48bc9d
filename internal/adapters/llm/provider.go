package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/0xcro3dile/resume-intel/internal/adapters/retry"
	"github.com/0xcro3dile/resume-intel/internal/domain/ports"
)

// Provider names accepted by New.
const (
	ProviderOllama    = "ollama"
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Config selects and configures a generator.
type Config struct {
	Provider  string
	Model     string
	BaseURL   string
	APIKey    string
	MaxTokens int
	Retries   retry.Config
}

// New builds the generator named by cfg.Provider.
func New(ctx context.Context, cfg Config, log *zap.Logger) (ports.LLMService, error) {
	switch cfg.Provider {
	case ProviderOllama, "":
		return NewOllamaGenerator(cfg.BaseURL, cfg.Model, cfg.Retries, log), nil
	case ProviderGemini:
		return NewGeminiGenerator(ctx, cfg.APIKey, cfg.Model, cfg.BaseURL, cfg.Retries, log)
	case ProviderOpenAI:
		return NewOpenAIGenerator(cfg.APIKey, cfg.Model, cfg.BaseURL, cfg.MaxTokens, cfg.Retries, log)
	case ProviderAnthropic:
		return NewAnthropicGenerator(cfg.APIKey, cfg.Model, cfg.BaseURL, cfg.MaxTokens, cfg.Retries, log)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
