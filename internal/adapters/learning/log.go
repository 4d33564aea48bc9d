// Package learning provides the hooks notified of user corrections.
package learning

import (
	"context"

	"go.uber.org/zap"

	"github.com/0xcro3dile/resume-intel/internal/domain/entities"
)

// LogHook records corrections in the log and always succeeds.
type LogHook struct {
	logger *zap.Logger
}

func NewLogHook(log *zap.Logger) *LogHook {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogHook{logger: log.With(zap.String("hook", "log"))}
}

func (h *LogHook) Learn(_ context.Context, fb entities.Feedback) error {
	h.logger.Info("correction received",
		zap.String("feedback_id", fb.ID),
		zap.String("user_id", fb.UserID),
		zap.String("field_name", fb.FieldName),
		zap.String("confidence", string(fb.Confidence)))
	return nil
}
