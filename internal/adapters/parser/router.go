package parser

import (
	"context"
	"mime"
	"path/filepath"
	"sort"
	"strings"

	"github.com/0xcro3dile/resume-intel/internal/domain/apperr"
	"github.com/0xcro3dile/resume-intel/internal/domain/ports"
)

// Router dispatches to the extractor registered for a mime type.
type Router struct {
	extractors map[string]ports.TextExtractor
}

// NewRouter registers every extractor under each of its SupportedFormats.
// Later extractors win on overlap.
func NewRouter(extractors ...ports.TextExtractor) *Router {
	r := &Router{extractors: make(map[string]ports.TextExtractor)}
	for _, e := range extractors {
		for _, f := range e.SupportedFormats() {
			r.extractors[f] = e
		}
	}
	return r
}

// Extract rejects mime types no extractor handles.
func (r *Router) Extract(ctx context.Context, data []byte, mimeType string) (string, error) {
	mt := baseMimeType(mimeType)
	e, ok := r.extractors[mt]
	if !ok {
		return "", apperr.Extraction("unsupported file type "+mimeType, nil).WithMeta("mimeType", mimeType)
	}
	return e.Extract(ctx, data, mt)
}

func (r *Router) SupportedFormats() []string {
	formats := make([]string, 0, len(r.extractors))
	for f := range r.extractors {
		formats = append(formats, f)
	}
	sort.Strings(formats)
	return formats
}

var extensionTypes = map[string]string{
	".pdf":      MimePDF,
	".docx":     MimeDOCX,
	".doc":      MimeDOC,
	".txt":      MimeText,
	".md":       MimeMarkdown,
	".markdown": MimeMarkdown,
}

// MimeTypeFor guesses a mime type from a file name, falling back to the
// system table and then application/octet-stream.
func MimeTypeFor(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if mt, ok := extensionTypes[ext]; ok {
		return mt
	}
	if mt := mime.TypeByExtension(ext); mt != "" {
		return baseMimeType(mt)
	}
	return "application/octet-stream"
}

// baseMimeType strips parameters such as charset.
func baseMimeType(mt string) string {
	if parsed, _, err := mime.ParseMediaType(mt); err == nil {
		return parsed
	}
	return strings.ToLower(strings.TrimSpace(mt))
}
