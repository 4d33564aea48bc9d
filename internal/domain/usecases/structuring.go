// Package usecases - structuring.go turns raw resume text into a typed record.
package usecases

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/0xcro3dile/resume-intel/internal/domain/apperr"
	"github.com/0xcro3dile/resume-intel/internal/domain/entities"
	"github.com/0xcro3dile/resume-intel/internal/domain/ports"
	"github.com/0xcro3dile/resume-intel/internal/logger"
)

const structuringPrompt = `You extract resume data into JSON.
Return ONLY a JSON object with exactly this shape. Use null for unknown values and [] for empty lists.
{
  "personalInfo": {"fullName": "", "email": "", "phone": "", "address": "", "linkedin": "", "github": "", "website": "", "summary": ""},
  "education": [{"institution": "", "degree": "", "field": "", "startDate": "", "endDate": "", "gpa": ""}],
  "experience": [{"company": "", "title": "", "location": "", "startDate": "", "endDate": "", "current": false, "description": "", "highlights": [""]}],
  "skills": [{"name": "", "category": ""}],
  "projects": [{"name": "", "description": "", "technologies": [""], "url": ""}],
  "certifications": [{"name": "", "issuer": "", "date": ""}],
  "languages": [{"name": "", "proficiency": ""}]
}
Dates use YYYY-MM. An ongoing role has "current": true and "endDate": "Present".
List experience from most recent to oldest.

Resume:
%s`

// Structurer issues the single structuring generation call.
type Structurer struct {
	llm         ports.LLMService
	temperature float64
	logger      *zap.Logger
	maxLog      int
}

func NewStructurer(llm ports.LLMService, temperature float64, log *zap.Logger) *Structurer {
	return &Structurer{
		llm:         llm,
		temperature: temperature,
		logger:      logger.WithFields(log, zap.String("component", "structurer")),
		maxLog:      500,
	}
}

// SetMaxLogLength caps how much of a model response is logged. n <= 0 keeps the default.
func (s *Structurer) SetMaxLogLength(n int) {
	if n > 0 {
		s.maxLog = n
	}
}

// Structure returns the typed record for rawText or an apperr parsing error.
func (s *Structurer) Structure(ctx context.Context, rawText string) (*entities.StructuredResume, error) {
	temp := s.temperature
	out, err := s.llm.Generate(ctx, fmt.Sprintf(structuringPrompt, strings.TrimSpace(rawText)), ports.GenerateOptions{
		Temperature: &temp,
		JSON:        true,
	})
	if err != nil {
		return nil, fmt.Errorf("structuring call: %w", err)
	}

	s.logger.Debug("structuring response received", zap.String("response", logger.TruncateForLog(out, s.maxLog)))

	structured, err := ParseStructured(out)
	if err != nil {
		s.logger.Warn("structuring output rejected",
			zap.Error(err),
			zap.String("response", logger.TruncateForLog(out, s.maxLog)))
		return nil, err
	}
	return structured, nil
}

// ParseStructured parses a model reply into a StructuredResume. The reply may
// be bare JSON, contain a fenced json block, or wrap one object in prose. The
// object must satisfy the resume schema.
func ParseStructured(raw string) (*entities.StructuredResume, error) {
	doc, err := extractJSONObject(raw)
	if err != nil {
		return nil, apperr.Parsing("structuring output is not json", err)
	}

	var out entities.StructuredResume
	if err := validateAndDecode(structuredResumeValidator, doc, &out); err != nil {
		return nil, apperr.Parsing("structuring output does not match schema", err)
	}
	return &out, nil
}
