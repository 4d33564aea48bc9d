package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"

	"github.com/0xcro3dile/resume-intel/internal/adapters/retry"
	"github.com/0xcro3dile/resume-intel/internal/domain/ports"
	"github.com/0xcro3dile/resume-intel/internal/logger"
)

const jsonOnlySystemPrompt = "Respond with a single JSON object and nothing else."

// AnthropicGenerator implements ports.LLMService with the messages API.
type AnthropicGenerator struct {
	client    *anthropic.Client
	model     string
	maxTokens int
	retries   retry.Config
	logger    *zap.Logger
}

func NewAnthropicGenerator(apiKey, model, baseURL string, maxTokens int, retries retry.Config, log *zap.Logger) (*AnthropicGenerator, error) {
	if apiKey == "" {
		return nil, errors.New("api key is required for anthropic")
	}
	if model == "" {
		return nil, errors.New("model is required for anthropic")
	}
	if maxTokens <= 0 {
		return nil, errors.New("max tokens is required for anthropic")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	client := anthropic.NewClient(opts...)

	return &AnthropicGenerator{
		client:    &client,
		model:     model,
		maxTokens: maxTokens,
		retries:   retries,
		logger:    logger.WithCommonFields(log, "anthropic", model),
	}, nil
}

// Generate has no native JSON mode; opts.JSON adds a system instruction instead.
func (g *AnthropicGenerator) Generate(ctx context.Context, prompt string, opts ports.GenerateOptions) (string, error) {
	maxTokens := int64(g.maxTokens)
	if opts.MaxTokens > 0 {
		maxTokens = int64(opts.MaxTokens)
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(g.model),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if opts.Temperature != nil {
		params.Temperature = anthropic.Float(*opts.Temperature)
	}
	if opts.JSON {
		params.System = []anthropic.TextBlockParam{{Text: jsonOnlySystemPrompt}}
	}

	return retry.Do(ctx, g.retries, g.logger, func() (string, error) {
		resp, err := g.client.Messages.New(ctx, params)
		if err != nil {
			return "", fmt.Errorf("anthropic request failed: %w", err)
		}

		var b strings.Builder
		for _, block := range resp.Content {
			if block.Type == "text" {
				b.WriteString(block.Text)
			}
		}
		g.logger.Debug("generation completed",
			zap.Int64("input_tokens", resp.Usage.InputTokens),
			zap.Int64("output_tokens", resp.Usage.OutputTokens),
			zap.String("stop_reason", string(resp.StopReason)))
		return strings.TrimSpace(b.String()), nil
	})
}
