// Package usecases - resume.go handles upload, status polling and deletion.
package usecases

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/0xcro3dile/resume-intel/internal/domain/apperr"
	"github.com/0xcro3dile/resume-intel/internal/domain/entities"
	"github.com/0xcro3dile/resume-intel/internal/domain/ports"
	"github.com/0xcro3dile/resume-intel/internal/logger"
)

// Scheduler accepts pipeline jobs.
type Scheduler interface {
	Submit(job Job) error
	Cancel(userID string)
}

// UploadResult acknowledges an upload.
type UploadResult struct {
	ResumeID     string `json:"resumeId"`
	IsProcessing bool   `json:"isProcessing"`
}

// ResumeStatus is the polled processing state.
type ResumeStatus struct {
	IsProcessed     bool    `json:"isProcessed"`
	ProcessingError *string `json:"processingError"`
}

// ResumeService owns the resume lifecycle.
type ResumeService struct {
	extractor  ports.TextExtractor
	files      ports.FileStorage
	resumes    ports.ResumeRepository
	embeddings ports.EmbeddingStore
	users      ports.UserRepository
	scheduler  Scheduler
	logger     *zap.Logger
	now        func() time.Time
}

func NewResumeService(
	extractor ports.TextExtractor,
	files ports.FileStorage,
	resumes ports.ResumeRepository,
	embeddings ports.EmbeddingStore,
	users ports.UserRepository,
	scheduler Scheduler,
	log *zap.Logger,
) *ResumeService {
	return &ResumeService{
		extractor:  extractor,
		files:      files,
		resumes:    resumes,
		embeddings: embeddings,
		users:      users,
		scheduler:  scheduler,
		logger:     logger.WithFields(log, zap.String("component", "resumes")),
		now:        time.Now,
	}
}

// Upload extracts text synchronously, replaces the user's resume and schedules
// processing. Extraction failures leave any existing resume untouched.
func (s *ResumeService) Upload(ctx context.Context, userID, fileName, mimeType string, data []byte) (*UploadResult, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apperr.Validation("user id is required")
	}
	if len(data) == 0 {
		return nil, apperr.Validation("file is empty")
	}

	// 1. Extract text
	text, err := s.extractor.Extract(ctx, data, mimeType)
	if err != nil {
		if apperr.Is(err, apperr.CodeExtraction) {
			return nil, err
		}
		return nil, apperr.Extraction("extracting resume text", err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, apperr.Extraction("no text could be extracted from the file", nil)
	}

	// 2. Keep the file
	path, err := s.files.Save(ctx, userID, fileName, data)
	if err != nil {
		return nil, fmt.Errorf("saving file: %w", err)
	}

	prev, err := s.resumes.GetByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading previous resume: %w", err)
	}

	// 3. Replace the resume row under a fresh version
	now := s.now()
	r := &entities.Resume{
		ID:        uuid.NewString(),
		UserID:    userID,
		RawText:   text,
		Status:    entities.StatusProcessing,
		FileName:  fileName,
		FilePath:  path,
		MimeType:  mimeType,
		Version:   uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.resumes.Replace(ctx, r); err != nil {
		return nil, fmt.Errorf("saving resume: %w", err)
	}
	if err := s.users.SetHasResume(ctx, userID, true); err != nil {
		s.logger.Warn("setting has_resume flag", zap.String("user_id", userID), zap.Error(err))
	}

	if prev != nil && prev.FilePath != "" && prev.FilePath != path {
		if err := s.files.Delete(ctx, prev.FilePath); err != nil {
			s.logger.Warn("deleting previous resume file", zap.String("path", prev.FilePath), zap.Error(err))
		}
	}

	// 4. Hand off to the background pipeline
	job := Job{UserID: userID, ResumeID: r.ID, Version: r.Version, RawText: text}
	if err := s.scheduler.Submit(job); err != nil {
		msg := "could not schedule processing: " + err.Error()
		if markErr := s.resumes.MarkFailed(ctx, r.ID, r.Version, msg); markErr != nil {
			s.logger.Error("marking unscheduled resume failed", zap.Error(markErr))
		}
		return nil, fmt.Errorf("scheduling resume processing: %w", err)
	}

	s.logger.Info("resume uploaded",
		zap.String("user_id", userID),
		zap.String("resume_id", r.ID),
		zap.String("version", r.Version),
		zap.Int("text_length", len(text)))

	return &UploadResult{ResumeID: r.ID, IsProcessing: true}, nil
}

// Status is cheap, read-only and idempotent.
func (s *ResumeService) Status(ctx context.Context, userID string) (*ResumeStatus, error) {
	r, err := s.resumes.GetByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading resume: %w", err)
	}
	if r == nil {
		return nil, apperr.NoResume()
	}

	st := &ResumeStatus{IsProcessed: r.Status == entities.StatusProcessed}
	if r.Status == entities.StatusError {
		msg := r.Error
		if msg == "" {
			msg = "processing failed"
		}
		st.ProcessingError = &msg
	}
	return st, nil
}

// Get returns the user's resume.
func (s *ResumeService) Get(ctx context.Context, userID string) (*entities.Resume, error) {
	r, err := s.resumes.GetByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading resume: %w", err)
	}
	if r == nil {
		return nil, apperr.NoResume()
	}
	return r, nil
}

// Delete removes the file, the resume row, its embeddings and the has_resume flag.
func (s *ResumeService) Delete(ctx context.Context, userID string) error {
	r, err := s.resumes.GetByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("loading resume: %w", err)
	}
	if r == nil {
		return apperr.NoResume()
	}

	s.scheduler.Cancel(userID)

	if r.FilePath != "" {
		if err := s.files.Delete(ctx, r.FilePath); err != nil {
			s.logger.Warn("deleting resume file", zap.String("path", r.FilePath), zap.Error(err))
		}
	}
	if err := s.resumes.Delete(ctx, userID); err != nil {
		return fmt.Errorf("deleting resume: %w", err)
	}
	if err := s.embeddings.DeleteByUser(ctx, userID); err != nil {
		return fmt.Errorf("deleting embeddings: %w", err)
	}
	if err := s.users.SetHasResume(ctx, userID, false); err != nil {
		return fmt.Errorf("clearing has_resume flag: %w", err)
	}

	s.logger.Info("resume deleted", zap.String("user_id", userID), zap.String("resume_id", r.ID))
	return nil
}

// Reindex re-embeds the processed resume under a new version. The current
// embeddings stay visible until the new version is activated.
func (s *ResumeService) Reindex(ctx context.Context, userID string) (*UploadResult, error) {
	r, err := s.resumes.GetByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading resume: %w", err)
	}
	if err := requireProcessed(r); err != nil {
		return nil, err
	}

	version := uuid.NewString()
	if err := s.resumes.PrepareVersion(ctx, r.ID, version); err != nil {
		return nil, fmt.Errorf("preparing version: %w", err)
	}
	if err := s.scheduler.Submit(Job{UserID: userID, ResumeID: r.ID, Version: version, Reindex: true}); err != nil {
		return nil, fmt.Errorf("scheduling reindex: %w", err)
	}

	s.logger.Info("resume reindex scheduled", zap.String("user_id", userID), zap.String("version", version))
	return &UploadResult{ResumeID: r.ID, IsProcessing: false}, nil
}

// requireProcessed maps a resume that cannot serve reads to its typed error.
func requireProcessed(r *entities.Resume) error {
	switch {
	case r == nil:
		return apperr.NoResume()
	case r.Status == entities.StatusProcessing:
		return apperr.StillProcessing()
	case r.Status == entities.StatusError:
		return apperr.ResumeFailed(r.Error)
	case r.Structured == nil:
		return apperr.StillProcessing()
	}
	return nil
}
