// Package config holds the service configuration decoded by viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/0xcro3dile/resume-intel/internal/domain/usecases"
)

// App is the binary name; it also names the default config file.
const App = "resume-intel"

// EnvPrefix prefixes every environment override, e.g. RESUME_INTEL_LLM_PROVIDER.
const EnvPrefix = "RESUME_INTEL"

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Files     FilesConfig     `mapstructure:"files"`
	Extractor ExtractorConfig `mapstructure:"extractor"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	Retrieval RetrievalConfig `mapstructure:"retrieval"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	Feedback  FeedbackConfig  `mapstructure:"feedback"`
	Inbox     InboxConfig     `mapstructure:"inbox"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Addr        string `mapstructure:"addr"`
	BodyLimitMB int    `mapstructure:"body-limit-mb"`
	CORSOrigins string `mapstructure:"cors-origins"`
}

type StorageConfig struct {
	// Driver is sqlite, postgres or memory.
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type FilesConfig struct {
	Dir string `mapstructure:"dir"`
}

type ExtractorConfig struct {
	ServiceURL string        `mapstructure:"service-url"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type LLMConfig struct {
	Provider   string `mapstructure:"provider"`
	Model      string `mapstructure:"model"`
	BaseURL    string `mapstructure:"base-url"`
	APIKey     string `mapstructure:"api-key"`
	APIKeyFile string `mapstructure:"api-key-file"`
	MaxTokens  int    `mapstructure:"max-tokens"`
	MaxRetries int    `mapstructure:"max-retries"`
}

type EmbeddingConfig struct {
	Provider   string `mapstructure:"provider"`
	Model      string `mapstructure:"model"`
	BaseURL    string `mapstructure:"base-url"`
	APIKey     string `mapstructure:"api-key"`
	APIKeyFile string `mapstructure:"api-key-file"`
	MaxRetries int    `mapstructure:"max-retries"`
}

type RetrievalConfig struct {
	TopK            int     `mapstructure:"top-k"`
	MatchThreshold  float64 `mapstructure:"match-threshold"`
	YellowThreshold float64 `mapstructure:"yellow-threshold"`
	GreenThreshold  float64 `mapstructure:"green-threshold"`
}

// Thresholds converts the retrieval bounds for the classifier.
func (r RetrievalConfig) Thresholds() usecases.Thresholds {
	return usecases.Thresholds{Match: r.MatchThreshold, Yellow: r.YellowThreshold, Green: r.GreenThreshold}
}

type PipelineConfig struct {
	Workers                int     `mapstructure:"workers"`
	QueueSize              int     `mapstructure:"queue-size"`
	MaxAttempts            int     `mapstructure:"max-attempts"`
	StructuringTemperature float64 `mapstructure:"structuring-temperature"`
}

type FeedbackConfig struct {
	// HookURL enables the webhook learning hook; empty logs corrections only.
	HookURL     string        `mapstructure:"hook-url"`
	HookTimeout time.Duration `mapstructure:"hook-timeout"`
}

type InboxConfig struct {
	Dir        string   `mapstructure:"dir"`
	Extensions []string `mapstructure:"extensions"`
}

type LogConfig struct {
	MaxLength int `mapstructure:"max-length"`
}

// SetDefaults registers the default of every key on v.
func SetDefaults(v *viper.Viper) {
	th := usecases.DefaultThresholds()

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.body-limit-mb", 10)
	v.SetDefault("server.cors-origins", "*")
	v.SetDefault("storage.driver", "sqlite")
	v.SetDefault("storage.dsn", "resume-intel.db")
	v.SetDefault("files.dir", "./data/uploads")
	v.SetDefault("extractor.service-url", "http://localhost:8081")
	v.SetDefault("extractor.timeout", 60*time.Second)
	v.SetDefault("llm.provider", "ollama")
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.base-url", "")
	v.SetDefault("llm.api-key", "")
	v.SetDefault("llm.api-key-file", "")
	v.SetDefault("llm.max-tokens", 4096)
	v.SetDefault("llm.max-retries", 2)
	v.SetDefault("embedding.provider", "ollama")
	v.SetDefault("embedding.model", "")
	v.SetDefault("embedding.base-url", "")
	v.SetDefault("embedding.api-key", "")
	v.SetDefault("embedding.api-key-file", "")
	v.SetDefault("embedding.max-retries", 2)
	v.SetDefault("retrieval.top-k", 3)
	v.SetDefault("retrieval.match-threshold", th.Match)
	v.SetDefault("retrieval.yellow-threshold", th.Yellow)
	v.SetDefault("retrieval.green-threshold", th.Green)
	v.SetDefault("pipeline.workers", 2)
	v.SetDefault("pipeline.queue-size", 64)
	v.SetDefault("pipeline.max-attempts", 1)
	v.SetDefault("pipeline.structuring-temperature", 0.1)
	v.SetDefault("feedback.hook-url", "")
	v.SetDefault("feedback.hook-timeout", 30*time.Second)
	v.SetDefault("inbox.dir", "./inbox")
	v.SetDefault("inbox.extensions", []string{".pdf", ".docx", ".txt", ".md"})
	v.SetDefault("log.max-length", 500)
}

// BindEnv makes every key overridable through RESUME_INTEL_* variables.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
}

// Load decodes v and validates the result.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	var errs []error

	switch c.Storage.Driver {
	case "sqlite", "postgres":
		if c.Storage.DSN == "" {
			errs = append(errs, fmt.Errorf("storage.dsn is required for driver %q", c.Storage.Driver))
		}
	case "memory":
	default:
		errs = append(errs, fmt.Errorf("unknown storage.driver %q", c.Storage.Driver))
	}

	switch c.LLM.Provider {
	case "ollama", "gemini", "openai", "anthropic":
	default:
		errs = append(errs, fmt.Errorf("unknown llm.provider %q", c.LLM.Provider))
	}
	switch c.Embedding.Provider {
	case "ollama", "gemini", "openai":
	default:
		errs = append(errs, fmt.Errorf("unknown embedding.provider %q", c.Embedding.Provider))
	}

	if err := c.Retrieval.Thresholds().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("retrieval: %w", err))
	}
	if c.Retrieval.TopK <= 0 {
		errs = append(errs, errors.New("retrieval.top-k must be positive"))
	}
	if c.Pipeline.Workers <= 0 {
		errs = append(errs, errors.New("pipeline.workers must be positive"))
	}
	if c.Pipeline.QueueSize < 0 {
		errs = append(errs, errors.New("pipeline.queue-size must not be negative"))
	}
	if c.Pipeline.MaxAttempts < 1 {
		errs = append(errs, errors.New("pipeline.max-attempts must be at least 1"))
	}
	if c.Server.BodyLimitMB <= 0 {
		errs = append(errs, errors.New("server.body-limit-mb must be positive"))
	}

	return errors.Join(errs...)
}
