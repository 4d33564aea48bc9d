// Package usecases - insights.go reviews a processed resume.
package usecases

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/0xcro3dile/resume-intel/internal/domain/apperr"
	"github.com/0xcro3dile/resume-intel/internal/domain/entities"
	"github.com/0xcro3dile/resume-intel/internal/domain/ports"
	"github.com/0xcro3dile/resume-intel/internal/logger"
)

const insightsPrompt = `You are a career coach reviewing a resume.
Return ONLY a JSON object with these four arrays of strings, all of them present:
{"strengths": [], "weaknesses": [], "suggestions": [], "keywordOptimization": []}

Resume (JSON):
%s`

// InsightsService produces a review with one generation call.
type InsightsService struct {
	resumes ports.ResumeRepository
	llm     ports.LLMService
	logger  *zap.Logger
}

func NewInsightsService(resumes ports.ResumeRepository, llm ports.LLMService, log *zap.Logger) *InsightsService {
	return &InsightsService{
		resumes: resumes,
		llm:     llm,
		logger:  logger.WithFields(log, zap.String("component", "insights")),
	}
}

// Insights reviews the user's processed resume.
func (s *InsightsService) Insights(ctx context.Context, userID string) (*entities.Insights, error) {
	r, err := s.resumes.GetByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading resume: %w", err)
	}
	if err := requireProcessed(r); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(r.Structured)
	if err != nil {
		return nil, fmt.Errorf("encoding resume: %w", err)
	}

	out, err := s.llm.Generate(ctx, fmt.Sprintf(insightsPrompt, payload), ports.GenerateOptions{JSON: true})
	if err != nil {
		return nil, fmt.Errorf("generating insights: %w", err)
	}

	insights, err := ParseInsights(out)
	if err != nil {
		s.logger.Warn("insights output rejected", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return insights, nil
}

// ParseInsights requires all four arrays; missing ones are never defaulted.
func ParseInsights(raw string) (*entities.Insights, error) {
	doc, err := extractJSONObject(raw)
	if err != nil {
		return nil, apperr.InsightsFormat("insights output is not json", err)
	}

	var out entities.Insights
	if err := validateAndDecode(insightsValidator, doc, &out); err != nil {
		return nil, apperr.InsightsFormat("insights output is missing required arrays", err)
	}
	return &out, nil
}
