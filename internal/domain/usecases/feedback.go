// Package usecases - feedback.go records corrections and feeds the learning hook.
package usecases

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/0xcro3dile/resume-intel/internal/domain/apperr"
	"github.com/0xcro3dile/resume-intel/internal/domain/entities"
	"github.com/0xcro3dile/resume-intel/internal/domain/ports"
	"github.com/0xcro3dile/resume-intel/internal/logger"
)

// FeedbackRecorder persists corrections before anything else can fail.
type FeedbackRecorder struct {
	feedback    ports.FeedbackRepository
	apps        ports.ApplicationRepository
	hook        ports.LearningHook
	hookTimeout time.Duration
	logger      *zap.Logger
	now         func() time.Time

	wg sync.WaitGroup
}

func NewFeedbackRecorder(
	feedback ports.FeedbackRepository,
	apps ports.ApplicationRepository,
	hook ports.LearningHook,
	hookTimeout time.Duration,
	log *zap.Logger,
) *FeedbackRecorder {
	if hookTimeout <= 0 {
		hookTimeout = 30 * time.Second
	}
	return &FeedbackRecorder{
		feedback:    feedback,
		apps:        apps,
		hook:        hook,
		hookTimeout: hookTimeout,
		logger:      logger.WithFields(log, zap.String("component", "feedback")),
		now:         time.Now,
	}
}

// Record stores fb, updates the matching application field when one exists,
// then notifies the learning hook in the background.
func (r *FeedbackRecorder) Record(ctx context.Context, fb entities.Feedback) (*entities.Feedback, error) {
	if strings.TrimSpace(fb.UserID) == "" {
		return nil, apperr.Validation("user id is required")
	}
	if strings.TrimSpace(fb.FieldName) == "" && strings.TrimSpace(fb.FieldID) == "" {
		return nil, apperr.Validation("fieldId or fieldName is required")
	}

	fb.ID = uuid.NewString()
	fb.Incorporated = false
	fb.CreatedAt = r.now()

	// 1. Persist the record
	if err := r.feedback.Save(ctx, &fb); err != nil {
		return nil, fmt.Errorf("saving feedback: %w", err)
	}

	log := r.logger.With(zap.String("feedback_id", fb.ID), zap.String("user_id", fb.UserID))

	// 2. Best-effort update of the application aggregate
	r.applyCorrection(ctx, fb, log)

	// 3. Detached learning hook
	if r.hook != nil {
		r.wg.Add(1)
		go r.learn(fb, log)
	}

	return &fb, nil
}

func (r *FeedbackRecorder) applyCorrection(ctx context.Context, fb entities.Feedback, log *zap.Logger) {
	if fb.URL == "" {
		return
	}
	app, err := r.apps.GetByURL(ctx, fb.UserID, fb.URL)
	if err != nil {
		log.Warn("loading application for correction", zap.Error(err))
		return
	}
	if app == nil {
		return
	}

	fieldID := fb.FieldID
	if fieldID == "" {
		for _, f := range app.Fields {
			if f.FieldName == fb.FieldName {
				fieldID = f.FieldID
				break
			}
		}
	}
	if fieldID == "" {
		return
	}

	ok, err := r.apps.SetCorrection(ctx, app.ID, fieldID, fb.UserCorrection)
	if err != nil {
		log.Warn("updating field correction", zap.Error(err))
		return
	}
	if !ok {
		log.Debug("no matching field for correction", zap.String("field_id", fieldID))
	}
}

func (r *FeedbackRecorder) learn(fb entities.Feedback, log *zap.Logger) {
	defer r.wg.Done()

	ctx, cancel := context.WithTimeout(context.Background(), r.hookTimeout)
	defer cancel()

	if err := r.hook.Learn(ctx, fb); err != nil {
		log.Warn("learning hook failed", zap.Error(err))
		return
	}
	if err := r.feedback.MarkIncorporated(ctx, fb.ID); err != nil {
		log.Warn("marking feedback incorporated", zap.Error(err))
		return
	}
	log.Debug("feedback incorporated")
}

// Drain waits for running hooks or ctx to end.
func (r *FeedbackRecorder) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// List returns the user's feedback, optionally filtered by url.
func (r *FeedbackRecorder) List(ctx context.Context, userID, url string) ([]entities.Feedback, error) {
	return r.feedback.List(ctx, userID, url)
}
