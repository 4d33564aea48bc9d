package usecases

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/0xcro3dile/resume-intel/internal/domain/apperr"
)

const validInsights = `{
  "strengths": ["Clear progression"],
  "weaknesses": ["No metrics"],
  "suggestions": ["Quantify impact"],
  "keywordOptimization": ["Kubernetes", "Go"]
}`

func TestParseInsights(t *testing.T) {
	got, err := ParseInsights("```json\n" + validInsights + "\n```")
	require.NoError(t, err)
	assert.Equal(t, []string{"Clear progression"}, got.Strengths)
	assert.Equal(t, []string{"Kubernetes", "Go"}, got.KeywordOptimization)

	empty, err := ParseInsights(`{"strengths": [], "weaknesses": [], "suggestions": [], "keywordOptimization": []}`)
	require.NoError(t, err)
	assert.Empty(t, empty.Strengths)
}

func TestParseInsightsRejects(t *testing.T) {
	for name, raw := range map[string]string{
		"not json":        "Great resume!",
		"missing array":   `{"strengths": [], "weaknesses": [], "suggestions": []}`,
		"wrong item type": `{"strengths": [1], "weaknesses": [], "suggestions": [], "keywordOptimization": []}`,
	} {
		t.Run(name, func(t *testing.T) {
			got, err := ParseInsights(raw)
			assert.Nil(t, got)
			assert.True(t, apperr.Is(err, apperr.CodeInsightsFormat), "got %v", err)
		})
	}
}

func TestInsightsService(t *testing.T) {
	ctx := context.Background()
	llm := structuringLLM(janeResumeJSON, validInsights)
	h := newHarness(t, llm)
	svc := NewInsightsService(h.store, llm, zaptest.NewLogger(t))

	_, err := svc.Insights(ctx, "u1")
	assert.True(t, apperr.Is(err, apperr.CodeNoResume))

	h.upload(t, "u1")
	got, err := svc.Insights(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Quantify impact"}, got.Suggestions)

	prompt := llm.prompts[len(llm.prompts)-1]
	assert.True(t, strings.Contains(prompt, `"fullName":"Jane Doe"`), prompt)
}

func TestInsightsServiceRejectsPartialReply(t *testing.T) {
	llm := structuringLLM(janeResumeJSON, `{"strengths": ["x"]}`)
	h := newHarness(t, llm)
	h.upload(t, "u1")

	_, err := NewInsightsService(h.store, llm, zaptest.NewLogger(t)).Insights(context.Background(), "u1")
	assert.True(t, apperr.Is(err, apperr.CodeInsightsFormat))
}
