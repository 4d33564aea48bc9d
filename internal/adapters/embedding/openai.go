package embedding

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"

	"github.com/0xcro3dile/resume-intel/internal/adapters/retry"
	"github.com/0xcro3dile/resume-intel/internal/logger"
)

const defaultOpenAIModel = "text-embedding-3-small"

// OpenAIEmbedder implements ports.EmbeddingService with the embeddings API.
// BaseURL may point at any OpenAI compatible endpoint.
type OpenAIEmbedder struct {
	client  *openai.Client
	model   string
	retries retry.Config
	logger  *zap.Logger
}

func NewOpenAIEmbedder(apiKey, model, baseURL string, retries retry.Config, log *zap.Logger) (*OpenAIEmbedder, error) {
	if apiKey == "" {
		return nil, errors.New("api key is required for openai")
	}
	if model == "" {
		model = defaultOpenAIModel
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	client := openai.NewClient(opts...)

	return &OpenAIEmbedder{
		client:  &client,
		model:   model,
		retries: retries,
		logger:  logger.WithCommonFields(log, "openai", model),
	}, nil
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// EmbedBatch sends all texts in one request and orders results by index.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	params := openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model: openai.EmbeddingModel(e.model),
	}

	return retry.Do(ctx, e.retries, e.logger, func() ([][]float32, error) {
		resp, err := e.client.Embeddings.New(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("openai embeddings request failed: %w", err)
		}
		if len(resp.Data) != len(texts) {
			return nil, fmt.Errorf("openai returned %d embeddings for %d texts", len(resp.Data), len(texts))
		}

		out := make([][]float32, len(texts))
		for _, d := range resp.Data {
			if d.Index < 0 || int(d.Index) >= len(out) {
				return nil, fmt.Errorf("openai returned embedding index %d out of range", d.Index)
			}
			vec := make([]float32, len(d.Embedding))
			for j, v := range d.Embedding {
				vec[j] = float32(v)
			}
			out[d.Index] = vec
		}
		e.logger.Debug("embeddings generated",
			zap.Int("count", len(out)),
			zap.Int64("prompt_tokens", resp.Usage.PromptTokens))
		return out, nil
	})
}
