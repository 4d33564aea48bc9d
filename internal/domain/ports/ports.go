// Package ports defines interfaces for external dependencies.
// Usecases depend on these abstractions; adapters implement them.
package ports

import (
	"context"

	"github.com/0xcro3dile/resume-intel/internal/domain/entities"
)

// EmbeddingService generates vector embeddings for text.
// All vectors returned by one deployment have the same dimensionality.
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// GenerateOptions tunes a single generation call.
type GenerateOptions struct {
	// Temperature is left to the provider default when nil.
	Temperature *float64
	// JSON asks the provider for a JSON-only response where supported.
	JSON      bool
	MaxTokens int
}

// LLMService generates text from a language model.
type LLMService interface {
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
}

// TextExtractor turns uploaded document bytes into plain text.
// Unsupported formats and extraction failures are reported as apperr extraction errors.
type TextExtractor interface {
	Extract(ctx context.Context, data []byte, mimeType string) (string, error)

	// SupportedFormats returns the mime types this extractor handles.
	SupportedFormats() []string
}

// ResumeRepository persists the single resume row of each user.
// Writes that carry a version only apply while that version is still the
// resume's current version and fail with apperr.CodeSuperseded otherwise.
type ResumeRepository interface {
	// GetByUser returns nil, nil when the user has no resume.
	GetByUser(ctx context.Context, userID string) (*entities.Resume, error)

	// Replace stores r as the user's resume, discarding any previous row.
	Replace(ctx context.Context, r *entities.Resume) error

	// SaveStructured stores the structured record produced for version.
	SaveStructured(ctx context.Context, resumeID, version string, s *entities.StructuredResume) error

	// Activate flips the active embedding version and marks the resume processed.
	Activate(ctx context.Context, resumeID, version string) error

	// MarkFailed sets status=error with msg.
	MarkFailed(ctx context.Context, resumeID, version, msg string) error

	// PrepareVersion starts a new processing version on an existing resume.
	PrepareVersion(ctx context.Context, resumeID, version string) error

	// Delete removes the user's resume row.
	Delete(ctx context.Context, userID string) error
}

// EmbeddingStore persists segment embeddings under copy-on-write versions.
type EmbeddingStore interface {
	// WriteVersion inserts segments, which all share one resume and version.
	WriteVersion(ctx context.Context, segments []entities.SegmentEmbedding) error

	// ListVersion returns the user's embeddings of one version.
	ListVersion(ctx context.Context, userID, version string) ([]entities.SegmentEmbedding, error)

	// DeleteVersion removes one version of the user's embeddings.
	DeleteVersion(ctx context.Context, userID, version string) error

	// DeleteInactive removes the user's embeddings of every version other than
	// keep and the version currently owned by the user's resume row.
	DeleteInactive(ctx context.Context, userID, keep string) error

	// DeleteByUser removes all embeddings owned by the user.
	DeleteByUser(ctx context.Context, userID string) error
}

// FeedbackRepository persists user corrections.
type FeedbackRepository interface {
	Save(ctx context.Context, fb *entities.Feedback) error
	MarkIncorporated(ctx context.Context, id string) error
	// List returns the user's feedback, filtered by url when url is non-empty.
	List(ctx context.Context, userID, url string) ([]entities.Feedback, error)
}

// ApplicationRepository persists application forms and their suggested values.
type ApplicationRepository interface {
	// GetByURL returns nil, nil when no application exists.
	GetByURL(ctx context.Context, userID, url string) (*entities.Application, error)

	// UpsertFields creates the application when missing and upserts its fields by field id.
	UpsertFields(ctx context.Context, app *entities.Application) error

	// SetCorrection records a correction on one field. Reports false when the field is unknown.
	SetCorrection(ctx context.Context, applicationID, fieldID, correction string) (bool, error)
}

// UserRepository tracks per-user flags.
type UserRepository interface {
	SetHasResume(ctx context.Context, userID string, has bool) error
	HasResume(ctx context.Context, userID string) (bool, error)
}

// FileStorage keeps uploaded resume files.
type FileStorage interface {
	// Save writes data and returns the storage path.
	Save(ctx context.Context, userID, name string, data []byte) (string, error)
	Read(ctx context.Context, path string) ([]byte, error)
	Delete(ctx context.Context, path string) error
}

// LearningHook is notified of corrections outside the request cycle.
type LearningHook interface {
	Learn(ctx context.Context, fb entities.Feedback) error
}

// FileWatcher monitors a directory for changes.
type FileWatcher interface {
	// Watch starts monitoring the directory and emits events.
	Watch(ctx context.Context, dir string) (<-chan FileEvent, error)

	// Stop stops the watcher.
	Stop() error
}

// FileEvent represents a file system change.
type FileEvent struct {
	Path      string
	Operation FileOperation
}

// FileOperation is the type of file change.
type FileOperation int

const (
	FileCreated FileOperation = iota
	FileModified
	FileDeleted
)
