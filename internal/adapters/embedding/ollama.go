// Package embedding provides the vector embedding adapters.
// Each adapter implements ports.EmbeddingService for one provider.
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/0xcro3dile/resume-intel/internal/adapters/retry"
	"github.com/0xcro3dile/resume-intel/internal/logger"
)

// OllamaEmbedder implements ports.EmbeddingService using the Ollama API.
type OllamaEmbedder struct {
	baseURL string
	model   string
	client  *http.Client
	retries retry.Config
	logger  *zap.Logger
}

// NewOllamaEmbedder creates an embedder for a local Ollama server.
func NewOllamaEmbedder(baseURL, model string, retries retry.Config, log *zap.Logger) *OllamaEmbedder {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "nomic-embed-text"
	}
	return &OllamaEmbedder{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
		retries: retries,
		logger:  logger.WithCommonFields(log, "ollama", model),
	}
}

type ollamaEmbedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// Embed generates an embedding for a single text.
func (a *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	jsonData, err := json.Marshal(ollamaEmbedRequest{Model: a.model, Prompt: text})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	emb, err := retry.Do(ctx, a.retries, a.logger, func() ([]float32, error) {
		return a.do(ctx, jsonData)
	})
	if err != nil {
		return nil, err
	}
	a.logger.Debug("embedding generated", zap.Int("dims", len(emb)))
	return emb, nil
}

func (a *OllamaEmbedder) do(ctx context.Context, body []byte) ([]float32, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling ollama: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &retry.StatusError{Service: "ollama", Code: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	var embedResp ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&embedResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if len(embedResp.Embedding) == 0 {
		return nil, errors.New("ollama returned an empty embedding")
	}
	return embedResp.Embedding, nil
}

// EmbedBatch calls Embed once per text; the endpoint takes a single prompt.
func (a *OllamaEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		emb, err := a.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embedding text %d: %w", i, err)
		}
		embeddings[i] = emb
	}
	return embeddings, nil
}
