// Package usecases contains application business rules.
// Usecases orchestrate entities and depend only on port interfaces.
package usecases

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/0xcro3dile/resume-intel/internal/domain/apperr"
	"github.com/0xcro3dile/resume-intel/internal/domain/entities"
	"github.com/0xcro3dile/resume-intel/internal/domain/ports"
	"github.com/0xcro3dile/resume-intel/internal/logger"
)

// Job is one processing run of a resume version.
type Job struct {
	UserID   string
	ResumeID string
	// Version is the supersede token. Every write checks it is still current.
	Version string
	RawText string
	// Reindex re-embeds the stored structured record without structuring again.
	Reindex bool
}

// IngestPipeline structures a resume, embeds its segments and publishes the
// new embedding version.
type IngestPipeline struct {
	structurer  *Structurer
	embedder    ports.EmbeddingService
	resumes     ports.ResumeRepository
	embeddings  ports.EmbeddingStore
	maxAttempts int
	logger      *zap.Logger
}

// NewIngestPipeline creates the pipeline. maxAttempts below 1 means a single attempt.
func NewIngestPipeline(
	structurer *Structurer,
	embedder ports.EmbeddingService,
	resumes ports.ResumeRepository,
	embeddings ports.EmbeddingStore,
	maxAttempts int,
	log *zap.Logger,
) *IngestPipeline {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &IngestPipeline{
		structurer:  structurer,
		embedder:    embedder,
		resumes:     resumes,
		embeddings:  embeddings,
		maxAttempts: maxAttempts,
		logger:      logger.WithFields(log, zap.String("component", "pipeline")),
	}
}

// Run processes job. A superseded job cleans up its own embeddings and
// returns an apperr superseded error without touching the resume row.
func (p *IngestPipeline) Run(ctx context.Context, job Job) error {
	log := p.logger.With(
		zap.String("user_id", job.UserID),
		zap.String("resume_id", job.ResumeID),
		zap.String("version", job.Version),
		zap.Bool("reindex", job.Reindex))

	var err error
	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		err = p.process(ctx, job, log)
		if err == nil || !retryable(ctx, err) || attempt == p.maxAttempts {
			break
		}
		log.Warn("pipeline attempt failed, retrying", zap.Int("attempt", attempt), zap.Error(err))
	}

	switch {
	case err == nil:
		log.Info("resume processed")
		return nil
	case apperr.Is(err, apperr.CodeSuperseded) || ctx.Err() != nil:
		p.discard(job, log)
		return apperr.Superseded()
	case job.Reindex:
		// The previous active version stays visible.
		p.discard(job, log)
		log.Error("reindex failed", zap.Error(err))
		return err
	default:
		log.Error("resume processing failed", zap.Error(err))
		if markErr := p.resumes.MarkFailed(context.WithoutCancel(ctx), job.ResumeID, job.Version, err.Error()); markErr != nil {
			if apperr.Is(markErr, apperr.CodeSuperseded) {
				p.discard(job, log)
				return apperr.Superseded()
			}
			log.Error("marking resume failed", zap.Error(markErr))
		}
		// The failed upload replaced the previous resume, so its versions go too.
		if gcErr := p.embeddings.DeleteInactive(context.WithoutCancel(ctx), job.UserID, job.Version); gcErr != nil {
			log.Warn("garbage collecting replaced embeddings", zap.Error(gcErr))
		}
		p.discard(job, log)
		return err
	}
}

func (p *IngestPipeline) process(ctx context.Context, job Job, log *zap.Logger) error {
	// 1. Structure the raw text, or reuse the stored record on reindex
	structured, err := p.structured(ctx, job)
	if err != nil {
		return err
	}

	// 2. Build and embed one segment per semantic unit
	segments := BuildSegments(job.UserID, job.ResumeID, job.Version, structured)
	dims := 0
	if len(segments) > 0 {
		texts := make([]string, len(segments))
		for i := range segments {
			texts[i] = segments[i].Text
		}
		vectors, err := p.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return apperr.Embedding("embedding resume segments", err)
		}
		if len(vectors) != len(segments) {
			return apperr.Embedding("embedding resume segments",
				fmt.Errorf("got %d vectors for %d segments", len(vectors), len(segments)))
		}
		dims = len(vectors[0])
		for i, vec := range vectors {
			if len(vec) == 0 || len(vec) != dims {
				return apperr.Embedding(fmt.Sprintf("embedding segment %s", segments[i].SegmentID),
					fmt.Errorf("unexpected dimensionality %d", len(vec)))
			}
			segments[i].Vector = vec
		}
	}
	log.Debug("segments embedded", zap.Int("segments", len(segments)), zap.Int("dims", dims))

	// 3. Write the new version next to the active one
	if len(segments) > 0 {
		if err := p.embeddings.WriteVersion(ctx, segments); err != nil {
			return fmt.Errorf("writing embeddings: %w", err)
		}
	}

	// 4. Flip the active version; fails when a newer upload owns the resume
	if err := p.resumes.Activate(ctx, job.ResumeID, job.Version); err != nil {
		return err
	}

	// 5. Collect the versions nobody can read anymore
	if err := p.embeddings.DeleteInactive(context.WithoutCancel(ctx), job.UserID, job.Version); err != nil {
		log.Warn("garbage collecting old embeddings", zap.Error(err))
	}
	return nil
}

func (p *IngestPipeline) structured(ctx context.Context, job Job) (*entities.StructuredResume, error) {
	if job.Reindex {
		r, err := p.resumes.GetByUser(ctx, job.UserID)
		if err != nil {
			return nil, fmt.Errorf("loading resume: %w", err)
		}
		if r == nil || r.ID != job.ResumeID || r.Version != job.Version {
			return nil, apperr.Superseded()
		}
		if r.Structured == nil {
			return nil, apperr.Parsing("resume has no structured data", nil)
		}
		return r.Structured, nil
	}

	structured, err := p.structurer.Structure(ctx, job.RawText)
	if err != nil {
		return nil, err
	}
	if err := p.resumes.SaveStructured(ctx, job.ResumeID, job.Version, structured); err != nil {
		return nil, err
	}
	return structured, nil
}

// discard removes whatever this job wrote under its version.
func (p *IngestPipeline) discard(job Job, log *zap.Logger) {
	if err := p.embeddings.DeleteVersion(context.Background(), job.UserID, job.Version); err != nil {
		log.Warn("discarding embeddings", zap.Error(err))
	}
}

// retryable limits extra attempts to parsing and embedding failures.
func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return false
	}
	code := apperr.CodeOf(err)
	return code == apperr.CodeParsing || code == apperr.CodeEmbedding
}
