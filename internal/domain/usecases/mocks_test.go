package usecases

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/0xcro3dile/resume-intel/internal/adapters/storage/memstore"
	"github.com/0xcro3dile/resume-intel/internal/domain/apperr"
	"github.com/0xcro3dile/resume-intel/internal/domain/entities"
	"github.com/0xcro3dile/resume-intel/internal/domain/ports"
)

// mockLLM implements ports.LLMService with a scripted reply function.
type mockLLM struct {
	mu      sync.Mutex
	prompts []string
	reply   func(prompt string) (string, error)
}

func (m *mockLLM) Generate(_ context.Context, prompt string, _ ports.GenerateOptions) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()
	if m.reply == nil {
		return "", nil
	}
	return m.reply(prompt)
}

func (m *mockLLM) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

// mockEmbedder implements ports.EmbeddingService. Texts without a fixture
// share one default vector.
type mockEmbedder struct {
	mu      sync.Mutex
	vectors func(text string) []float32
	err     error
	calls   int
	batches int
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if m.vectors != nil {
		if v := m.vectors(text); v != nil {
			return v, nil
		}
	}
	return []float32{0, 0, 1, 0}, nil
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.batches++
	m.mu.Unlock()
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := m.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// topicVectors embeds texts by keyword so similarities are predictable.
func topicVectors(text string) []float32 {
	switch {
	case strings.Contains(text, "Most Recent Employer"):
		return []float32{0.95, 0.3122499, 0, 0}
	case strings.Contains(text, " at Acme"):
		return []float32{1, 0, 0, 0}
	case strings.HasPrefix(text, "Name:"):
		return []float32{0, 1, 0, 0}
	case strings.Contains(text, "Email Address"), strings.Contains(text, "Spirit Animal"):
		return []float32{0, 0, 0, 1}
	case strings.Contains(text, "Favorite Color"):
		return []float32{0.72, 0, 0.6939741, 0}
	}
	return nil
}

type mockExtractor struct {
	text string
	err  error
}

func (m *mockExtractor) Extract(_ context.Context, _ []byte, mimeType string) (string, error) {
	if mimeType == "application/x-unknown" {
		return "", apperr.Extraction("unsupported format "+mimeType, nil)
	}
	return m.text, m.err
}

func (m *mockExtractor) SupportedFormats() []string { return []string{"text/plain"} }

type mockFiles struct {
	mu    sync.Mutex
	files map[string][]byte
}

func newMockFiles() *mockFiles { return &mockFiles{files: map[string][]byte{}} }

func (m *mockFiles) Save(_ context.Context, userID, name string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := userID + "/" + name
	m.files[p] = data
	return p, nil
}

func (m *mockFiles) Read(_ context.Context, path string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.files[path]
	if !ok {
		return nil, errors.New("not found")
	}
	return d, nil
}

func (m *mockFiles) Delete(_ context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, path)
	return nil
}

func (m *mockFiles) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.files)
}

// syncScheduler runs jobs inline so tests observe the final state.
type syncScheduler struct {
	runner    JobRunner
	submitted []Job
	canceled  []string
	err       error
}

func (s *syncScheduler) Submit(job Job) error {
	if s.err != nil {
		return s.err
	}
	s.submitted = append(s.submitted, job)
	if s.runner != nil {
		_ = s.runner.Run(context.Background(), job)
	}
	return nil
}

func (s *syncScheduler) Cancel(userID string) { s.canceled = append(s.canceled, userID) }

type mockHook struct {
	err  error
	mu   sync.Mutex
	seen []entities.Feedback
}

func (m *mockHook) Learn(_ context.Context, fb entities.Feedback) error {
	m.mu.Lock()
	m.seen = append(m.seen, fb)
	m.mu.Unlock()
	return m.err
}

const janeResumeJSON = `{
  "personalInfo": {"fullName": "Jane Doe", "email": "jane@x.com", "phone": "+1 555 0100", "address": "Berlin", "linkedin": null},
  "education": [{"institution": "TU Berlin", "degree": "MSc", "field": "Computer Science", "startDate": "2014-10", "endDate": "2016-09", "gpa": 1.3}],
  "experience": [
    {"company": "Acme", "title": "Senior Engineer", "startDate": "2020-01", "endDate": "Present", "current": true, "description": "Builds APIs", "highlights": ["Led migration"]},
    {"company": "Initech", "title": "Engineer", "startDate": "2016-10", "endDate": "2019-12", "current": false}
  ],
  "skills": [{"name": "Go", "category": "Languages"}, {"name": "SQL", "category": "Languages"}, {"name": "Kubernetes", "category": null}],
  "projects": [{"name": "resume-intel", "description": "Form filler", "technologies": ["Go"]}],
  "certifications": [],
  "languages": [{"name": "German", "proficiency": "native"}]
}`

// structuringLLM answers structuring prompts with reply and field prompts with field.
func structuringLLM(reply, field string) *mockLLM {
	return &mockLLM{reply: func(prompt string) (string, error) {
		if strings.HasPrefix(prompt, "You extract resume data") {
			return reply, nil
		}
		return field, nil
	}}
}

// harness wires the services over an in-memory store with inline scheduling.
type harness struct {
	store     *memstore.Store
	llm       *mockLLM
	embedder  *mockEmbedder
	files     *mockFiles
	scheduler *syncScheduler
	pipeline  *IngestPipeline
	resumes   *ResumeService
	suggest   *SuggestionService
}

func newHarness(t *testing.T, llm *mockLLM) *harness {
	t.Helper()
	log := zaptest.NewLogger(t)

	h := &harness{
		store:    memstore.New(),
		llm:      llm,
		embedder: &mockEmbedder{vectors: topicVectors},
		files:    newMockFiles(),
	}
	h.pipeline = NewIngestPipeline(NewStructurer(llm, 0, log), h.embedder, h.store, h.store, 1, log)
	h.scheduler = &syncScheduler{runner: h.pipeline}
	h.resumes = NewResumeService(&mockExtractor{text: "Jane Doe\nSenior Engineer at Acme"}, h.files,
		h.store, h.store, h.store, h.scheduler, log)

	matcher := NewDirectMatcher()
	matcher.now = fixedNow
	h.suggest = NewSuggestionService(h.store, h.store,
		NewRetriever(h.embedder, h.store, 3), NewSynthesizer(llm), matcher,
		NewClassifier(DefaultThresholds()), log)
	return h
}

func (h *harness) upload(t *testing.T, userID string) *UploadResult {
	t.Helper()
	res, err := h.resumes.Upload(context.Background(), userID, "cv.txt", "text/plain", []byte("Jane Doe"))
	require.NoError(t, err)
	return res
}

func fixedNow() time.Time { return time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC) }
