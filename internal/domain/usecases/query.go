// Package usecases - query.go handles semantic retrieval and value synthesis for one field.
package usecases

import (
	"context"
	"fmt"
	"strings"

	"github.com/0xcro3dile/resume-intel/internal/domain/entities"
	"github.com/0xcro3dile/resume-intel/internal/domain/ports"
)

// Retriever ranks the user's active segment embeddings against a field query.
type Retriever struct {
	embedder ports.EmbeddingService
	store    ports.EmbeddingStore
	topK     int
}

// NewRetriever creates a Retriever with injected dependencies.
func NewRetriever(embedder ports.EmbeddingService, store ports.EmbeddingStore, topK int) *Retriever {
	if topK <= 0 {
		topK = 3
	}
	return &Retriever{embedder: embedder, store: store, topK: topK}
}

// FieldQueryText joins the non-empty field name, label and placeholder.
func FieldQueryText(f entities.FormFieldQuery) string {
	return joinParts(" ", f.FieldName, f.Label, f.Placeholder)
}

// Retrieve returns the topK segments of the given embedding version, best first.
func (r *Retriever) Retrieve(ctx context.Context, userID, version, query string) ([]entities.ScoredSegment, error) {
	if strings.TrimSpace(query) == "" || version == "" {
		return nil, nil
	}

	// 1. Embed the query
	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	// 2. Load the active snapshot
	segments, err := r.store.ListVersion(ctx, userID, version)
	if err != nil {
		return nil, fmt.Errorf("loading embeddings: %w", err)
	}

	// 3. Rank
	return RankSegments(vec, segments, r.topK), nil
}

const synthesisPrompt = `You fill in a job application form using the candidate's resume.

Field name: %s
Field label: %s
Field placeholder: %s
Field type: %s

Relevant resume sections:
%s

Reply with ONLY the literal value to put in the field, with no explanation, labels or quotes.
If the resume does not contain an appropriate value, reply with an empty string.`

// Synthesizer produces a literal field value from retrieved segments.
type Synthesizer struct {
	llm ports.LLMService
}

func NewSynthesizer(llm ports.LLMService) *Synthesizer {
	return &Synthesizer{llm: llm}
}

// Synthesize asks the model for the field value.
func (s *Synthesizer) Synthesize(ctx context.Context, f entities.FormFieldQuery, hits []entities.ScoredSegment) (string, error) {
	sections := make([]string, len(hits))
	for i, h := range hits {
		sections[i] = fmt.Sprintf("[%d] %s", i+1, h.Segment.Text)
	}

	prompt := fmt.Sprintf(synthesisPrompt,
		orNone(f.FieldName), orNone(f.Label), orNone(f.Placeholder), orNone(f.FieldType),
		strings.Join(sections, "\n"))

	zero := 0.0
	out, err := s.llm.Generate(ctx, prompt, ports.GenerateOptions{Temperature: &zero, MaxTokens: 256})
	if err != nil {
		return "", fmt.Errorf("generating field value: %w", err)
	}
	return cleanFieldValue(out), nil
}

// cleanFieldValue trims whitespace and surrounding quotes; a bare "" means empty.
func cleanFieldValue(s string) string {
	s = strings.TrimSpace(s)
	for len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') || (first == '`' && last == '`') {
			s = strings.TrimSpace(s[1 : len(s)-1])
			continue
		}
		break
	}
	return s
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(none)"
	}
	return s
}
