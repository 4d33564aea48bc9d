package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"go.uber.org/zap"

	"github.com/0xcro3dile/resume-intel/internal/adapters/retry"
	"github.com/0xcro3dile/resume-intel/internal/domain/ports"
	"github.com/0xcro3dile/resume-intel/internal/logger"
)

// OpenAIGenerator implements ports.LLMService with the chat completions API.
// BaseURL may point at any OpenAI compatible endpoint.
type OpenAIGenerator struct {
	client    *openai.Client
	model     string
	maxTokens int
	retries   retry.Config
	logger    *zap.Logger
}

func NewOpenAIGenerator(apiKey, model, baseURL string, maxTokens int, retries retry.Config, log *zap.Logger) (*OpenAIGenerator, error) {
	if apiKey == "" {
		return nil, errors.New("api key is required for openai")
	}
	if model == "" {
		return nil, errors.New("model is required for openai")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		// Retries are handled by retry.Do.
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	client := openai.NewClient(opts...)

	return &OpenAIGenerator{
		client:    &client,
		model:     model,
		maxTokens: maxTokens,
		retries:   retries,
		logger:    logger.WithCommonFields(log, "openai", model),
	}, nil
}

func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string, opts ports.GenerateOptions) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{openai.UserMessage(prompt)},
	}

	maxTokens := g.maxTokens
	if opts.MaxTokens > 0 {
		maxTokens = opts.MaxTokens
	}
	if maxTokens > 0 {
		params.MaxTokens = openai.Int(int64(maxTokens))
	}
	if opts.Temperature != nil {
		params.Temperature = openai.Float(*opts.Temperature)
	}
	if opts.JSON {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	return retry.Do(ctx, g.retries, g.logger, func() (string, error) {
		resp, err := g.client.Chat.Completions.New(ctx, params)
		if err != nil {
			return "", fmt.Errorf("openai request failed: %w", err)
		}
		if len(resp.Choices) == 0 {
			return "", errors.New("openai returned no choices")
		}
		g.logger.Debug("generation completed",
			zap.Int64("input_tokens", resp.Usage.PromptTokens),
			zap.Int64("output_tokens", resp.Usage.CompletionTokens))
		return strings.TrimSpace(resp.Choices[0].Message.Content), nil
	})
}
