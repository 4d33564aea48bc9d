// Package usecases - suggest.go answers form field queries.
package usecases

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/0xcro3dile/resume-intel/internal/domain/apperr"
	"github.com/0xcro3dile/resume-intel/internal/domain/entities"
	"github.com/0xcro3dile/resume-intel/internal/domain/ports"
	"github.com/0xcro3dile/resume-intel/internal/logger"
)

const suggestConcurrency = 4

// SuggestRequest is a batch of fields from one application form.
type SuggestRequest struct {
	URL    string                    `json:"url"`
	Title  string                    `json:"title"`
	Fields []entities.FormFieldQuery `json:"fields"`
}

// SuggestionService combines retrieval, synthesis and the direct matcher.
type SuggestionService struct {
	resumes    ports.ResumeRepository
	apps       ports.ApplicationRepository
	retriever  *Retriever
	synth      *Synthesizer
	matcher    *DirectMatcher
	classifier *Classifier
	logger     *zap.Logger
	now        func() time.Time
}

func NewSuggestionService(
	resumes ports.ResumeRepository,
	apps ports.ApplicationRepository,
	retriever *Retriever,
	synth *Synthesizer,
	matcher *DirectMatcher,
	classifier *Classifier,
	log *zap.Logger,
) *SuggestionService {
	return &SuggestionService{
		resumes:    resumes,
		apps:       apps,
		retriever:  retriever,
		synth:      synth,
		matcher:    matcher,
		classifier: classifier,
		logger:     logger.WithFields(log, zap.String("component", "suggestions")),
		now:        time.Now,
	}
}

// SuggestBatch returns one suggestion per field, in request order.
func (s *SuggestionService) SuggestBatch(ctx context.Context, userID string, req SuggestRequest) ([]entities.Suggestion, error) {
	r, err := s.readyResume(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]entities.Suggestion, len(req.Fields))
	sem := make(chan struct{}, suggestConcurrency)
	var wg sync.WaitGroup
	for i, f := range req.Fields {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, f entities.FormFieldQuery) {
			defer wg.Done()
			defer func() { <-sem }()
			out[i] = s.suggest(ctx, r, f)
		}(i, f)
	}
	wg.Wait()

	s.persist(ctx, userID, req, out)
	return out, nil
}

// SuggestField answers a single field.
func (s *SuggestionService) SuggestField(ctx context.Context, userID, url, title string, f entities.FormFieldQuery) (*entities.Suggestion, error) {
	r, err := s.readyResume(ctx, userID)
	if err != nil {
		return nil, err
	}

	sug := s.suggest(ctx, r, f)
	s.persist(ctx, userID, SuggestRequest{URL: url, Title: title, Fields: []entities.FormFieldQuery{f}}, []entities.Suggestion{sug})
	return &sug, nil
}

func (s *SuggestionService) readyResume(ctx context.Context, userID string) (*entities.Resume, error) {
	r, err := s.resumes.GetByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading resume: %w", err)
	}
	if err := requireProcessed(r); err != nil {
		return nil, err
	}
	return r, nil
}

// suggest never fails: retrieval and synthesis errors fall back to the direct matcher.
func (s *SuggestionService) suggest(ctx context.Context, r *entities.Resume, f entities.FormFieldQuery) entities.Suggestion {
	log := s.logger.With(zap.String("user_id", r.UserID), zap.String("field_id", f.FieldID))

	hits, err := s.retriever.Retrieve(ctx, r.UserID, r.ActiveVersion, FieldQueryText(f))
	if err != nil {
		log.Warn("retrieval failed, using direct match", zap.Error(err))
		return s.fallback(r, f)
	}
	if s.classifier.UseFallback(hits) {
		return s.fallback(r, f)
	}

	value, err := s.synth.Synthesize(ctx, f, hits)
	if err != nil {
		log.Warn("synthesis failed, using direct match", zap.Error(err))
		return s.fallback(r, f)
	}

	best := hits[0].Score
	log.Debug("semantic suggestion",
		zap.Float64("similarity", best),
		zap.String("segment", hits[0].Segment.SegmentID))

	return entities.Suggestion{
		FieldID:    f.FieldID,
		Value:      value,
		Confidence: s.classifier.Semantic(best),
		Source:     entities.SourceSemantic,
		Similarity: best,
	}
}

func (s *SuggestionService) fallback(r *entities.Resume, f entities.FormFieldQuery) entities.Suggestion {
	value, matched := s.matcher.Match(f, r.Structured)
	return entities.Suggestion{
		FieldID:    f.FieldID,
		Value:      value,
		Confidence: s.classifier.Fallback(matched),
		Source:     entities.SourceFallback,
	}
}

// persist stores the results on the application aggregate. Failures are logged only.
func (s *SuggestionService) persist(ctx context.Context, userID string, req SuggestRequest, results []entities.Suggestion) {
	if strings.TrimSpace(req.URL) == "" || len(results) == 0 {
		return
	}

	fields := make([]entities.FormField, len(req.Fields))
	for i, f := range req.Fields {
		fields[i] = entities.FormField{
			FieldID:     f.FieldID,
			FieldName:   f.FieldName,
			FieldType:   f.FieldType,
			Label:       f.Label,
			Placeholder: f.Placeholder,
			Required:    f.Required,
			Value:       results[i].Value,
			Confidence:  results[i].Confidence,
		}
	}

	now := s.now()
	app := &entities.Application{
		UserID:    userID,
		URL:       req.URL,
		Title:     req.Title,
		Fields:    fields,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.apps.UpsertFields(ctx, app); err != nil {
		s.logger.Warn("persisting suggestions", zap.String("user_id", userID), zap.String("url", req.URL), zap.Error(err))
	}
}

// ApplicationFor returns the stored application for url.
func (s *SuggestionService) ApplicationFor(ctx context.Context, userID, url string) (*entities.Application, error) {
	app, err := s.apps.GetByURL(ctx, userID, url)
	if err != nil {
		return nil, fmt.Errorf("loading application: %w", err)
	}
	if app == nil {
		return nil, apperr.NotFound("application")
	}
	return app, nil
}
