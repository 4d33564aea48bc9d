package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	BindEnv(v)
	return v
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(newViper())
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.Equal(t, 3, cfg.Retrieval.TopK)
	assert.Equal(t, 0.70, cfg.Retrieval.MatchThreshold)
	assert.Equal(t, 0.75, cfg.Retrieval.YellowThreshold)
	assert.Equal(t, 0.90, cfg.Retrieval.GreenThreshold)
	assert.Equal(t, 1, cfg.Pipeline.MaxAttempts)
	assert.Equal(t, 60*time.Second, cfg.Extractor.Timeout)
	assert.Equal(t, []string{".pdf", ".docx", ".txt", ".md"}, cfg.Inbox.Extensions)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resume-intel.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
llm:
  provider: anthropic
  model: claude-test
retrieval:
  green-threshold: 0.95
feedback:
  hook-timeout: 5s
inbox:
  extensions: [".pdf"]
`), 0o600))
	t.Setenv("RESUME_INTEL_LLM_MAX_TOKENS", "2048")
	t.Setenv("RESUME_INTEL_STORAGE_DRIVER", "memory")

	v := newViper()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.Equal(t, "claude-test", cfg.LLM.Model)
	assert.Equal(t, 2048, cfg.LLM.MaxTokens)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, 0.95, cfg.Retrieval.GreenThreshold)
	assert.Equal(t, 5*time.Second, cfg.Feedback.HookTimeout)
	assert.Equal(t, []string{".pdf"}, cfg.Inbox.Extensions)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(v *viper.Viper)
		want   string
	}{
		{"storage driver", func(v *viper.Viper) { v.Set("storage.driver", "mongo") }, "unknown storage.driver"},
		{"missing dsn", func(v *viper.Viper) { v.Set("storage.dsn", "") }, "storage.dsn is required"},
		{"llm provider", func(v *viper.Viper) { v.Set("llm.provider", "watson") }, "unknown llm.provider"},
		{"embedding provider", func(v *viper.Viper) { v.Set("embedding.provider", "anthropic") }, "unknown embedding.provider"},
		{"threshold order", func(v *viper.Viper) { v.Set("retrieval.yellow-threshold", 0.95) }, "match <= yellow <= green"},
		{"threshold range", func(v *viper.Viper) { v.Set("retrieval.green-threshold", 1.5) }, "within [-1, 1]"},
		{"top-k", func(v *viper.Viper) { v.Set("retrieval.top-k", 0) }, "top-k must be positive"},
		{"workers", func(v *viper.Viper) { v.Set("pipeline.workers", 0) }, "workers must be positive"},
		{"attempts", func(v *viper.Viper) { v.Set("pipeline.max-attempts", 0) }, "max-attempts"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newViper()
			tt.mutate(v)
			_, err := Load(v)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	v := newViper()
	v.Set("llm.provider", "x")
	v.Set("embedding.provider", "y")
	_, err := Load(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "llm.provider")
	assert.Contains(t, err.Error(), "embedding.provider")
}
