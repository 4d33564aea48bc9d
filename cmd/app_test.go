package cmd

import (
	"context"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/0xcro3dile/resume-intel/internal/config"
)

func TestBuildAppWithMemoryStore(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	config.SetDefaults(viper.GetViper())
	viper.Set("storage.driver", "memory")
	viper.Set("files.dir", t.TempDir())

	ctx := context.Background()
	app, err := buildApp(ctx, zaptest.NewLogger(t))
	require.NoError(t, err)

	_, err = app.resumes.Status(ctx, "nobody")
	assert.Error(t, err, "no resume uploaded yet")
	require.NoError(t, app.close(ctx))
}

func TestBuildAppRejectsBadConfig(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	config.SetDefaults(viper.GetViper())
	viper.Set("storage.driver", "memory")
	viper.Set("llm.provider", "openai")

	_, err := buildApp(context.Background(), zaptest.NewLogger(t))
	assert.ErrorContains(t, err, "openai", "openai without a key cannot start")
}
