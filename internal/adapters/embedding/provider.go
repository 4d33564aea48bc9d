package embedding

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/0xcro3dile/resume-intel/internal/adapters/retry"
	"github.com/0xcro3dile/resume-intel/internal/domain/ports"
)

// Provider names accepted by New.
const (
	ProviderOllama = "ollama"
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Config selects and configures an embedder.
type Config struct {
	Provider string
	Model    string
	BaseURL  string
	APIKey   string
	Retries  retry.Config
}

// New builds the embedder named by cfg.Provider.
func New(ctx context.Context, cfg Config, log *zap.Logger) (ports.EmbeddingService, error) {
	switch cfg.Provider {
	case ProviderOllama, "":
		return NewOllamaEmbedder(cfg.BaseURL, cfg.Model, cfg.Retries, log), nil
	case ProviderGemini:
		return NewGeminiEmbedder(ctx, cfg.APIKey, cfg.Model, cfg.BaseURL, cfg.Retries, log)
	case ProviderOpenAI:
		return NewOpenAIEmbedder(cfg.APIKey, cfg.Model, cfg.BaseURL, cfg.Retries, log)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}
