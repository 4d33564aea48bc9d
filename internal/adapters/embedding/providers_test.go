package embedding

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestOpenAIEmbedder(t *testing.T) {
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/embeddings"), r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		// Out of order on purpose.
		io.WriteString(w, `{"object":"list","model":"emb-test","data":[
			{"object":"embedding","index":1,"embedding":[0,1]},
			{"object":"embedding","index":0,"embedding":[1,0]}],
			"usage":{"prompt_tokens":4,"total_tokens":4}}`)
	}))
	defer server.Close()

	e, err := NewOpenAIEmbedder("sk-test", "emb-test", server.URL, fastRetry, zaptest.NewLogger(t))
	require.NoError(t, err)

	out, err := e.EmbedBatch(context.Background(), []string{"Name: Jane", "Skills: Go"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 0}, {0, 1}}, out)
	assert.Equal(t, "emb-test", body["model"])
	assert.Equal(t, []any{"Name: Jane", "Skills: Go"}, body["input"])
}

func TestOpenAIEmbedderCountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"object":"list","model":"m","data":[],"usage":{"prompt_tokens":0,"total_tokens":0}}`)
	}))
	defer server.Close()

	e, err := NewOpenAIEmbedder("sk-test", "m", server.URL, fastRetry, nil)
	require.NoError(t, err)
	_, err = e.Embed(context.Background(), "x")
	assert.ErrorContains(t, err, "0 embeddings for 1 texts")
}

func TestGeminiEmbedder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "emb-test")
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"embeddings":[{"values":[0.5,0.5,0]}]}`)
	}))
	defer server.Close()

	e, err := NewGeminiEmbedder(context.Background(), "key", "emb-test", server.URL, fastRetry, zaptest.NewLogger(t))
	require.NoError(t, err)

	out, err := e.Embed(context.Background(), "Experience: Engineer at Acme")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.5, 0}, out)
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	e, err := New(ctx, Config{}, nil)
	require.NoError(t, err)
	assert.IsType(t, &OllamaEmbedder{}, e)

	_, err = New(ctx, Config{Provider: ProviderOpenAI}, nil)
	assert.Error(t, err, "openai needs a key")

	_, err = New(ctx, Config{Provider: "word2vec"}, nil)
	assert.ErrorContains(t, err, "unknown embedding provider")
}
