// Package memstore is an in-memory implementation of every persistence port.
// Used for the memory storage driver and in tests.
package memstore

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/0xcro3dile/resume-intel/internal/domain/apperr"
	"github.com/0xcro3dile/resume-intel/internal/domain/entities"
)

// Store keeps resumes, embeddings, feedback, applications and user flags in maps.
// Returned values are copies; callers cannot mutate stored state.
type Store struct {
	mu           sync.RWMutex
	resumes      map[string]entities.Resume // userID -> resume
	embeddings   map[string]entities.SegmentEmbedding
	feedback     map[string]entities.Feedback
	applications map[string]entities.Application // applicationID -> application
	users        map[string]bool
	now          func() time.Time
}

// New creates an empty store.
func New() *Store {
	return &Store{
		resumes:      make(map[string]entities.Resume),
		embeddings:   make(map[string]entities.SegmentEmbedding),
		feedback:     make(map[string]entities.Feedback),
		applications: make(map[string]entities.Application),
		users:        make(map[string]bool),
		now:          time.Now,
	}
}

// Close is a no-op so the store satisfies the same lifecycle as the SQL store.
func (s *Store) Close() error { return nil }

// --- resumes ---

func (s *Store) GetByUser(_ context.Context, userID string) (*entities.Resume, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.resumes[userID]
	if !ok {
		return nil, nil
	}
	out := copyResume(r)
	return &out, nil
}

func (s *Store) Replace(_ context.Context, r *entities.Resume) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.resumes[r.UserID] = copyResume(*r)
	return nil
}

// current returns the resume row owned by resumeID at version. Callers hold the lock.
func (s *Store) current(resumeID, version string) (entities.Resume, error) {
	for _, r := range s.resumes {
		if r.ID == resumeID {
			if r.Version != version {
				return r, apperr.Superseded()
			}
			return r, nil
		}
	}
	return entities.Resume{}, apperr.Superseded()
}

func (s *Store) SaveStructured(_ context.Context, resumeID, version string, st *entities.StructuredResume) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.current(resumeID, version)
	if err != nil {
		return err
	}
	r.Structured = copyStructured(st)
	r.UpdatedAt = s.now()
	s.resumes[r.UserID] = r
	return nil
}

func (s *Store) Activate(_ context.Context, resumeID, version string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.current(resumeID, version)
	if err != nil {
		return err
	}
	r.ActiveVersion = version
	r.Status = entities.StatusProcessed
	r.Error = ""
	r.UpdatedAt = s.now()
	s.resumes[r.UserID] = r
	return nil
}

func (s *Store) MarkFailed(_ context.Context, resumeID, version, msg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.current(resumeID, version)
	if err != nil {
		return err
	}
	r.Status = entities.StatusError
	r.Error = msg
	r.UpdatedAt = s.now()
	s.resumes[r.UserID] = r
	return nil
}

func (s *Store) PrepareVersion(_ context.Context, resumeID, version string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for userID, r := range s.resumes {
		if r.ID == resumeID {
			r.Version = version
			r.UpdatedAt = s.now()
			s.resumes[userID] = r
			return nil
		}
	}
	return apperr.NotFound("resume")
}

func (s *Store) Delete(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.resumes, userID)
	return nil
}

// --- embeddings ---

func (s *Store) WriteVersion(_ context.Context, segments []entities.SegmentEmbedding) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, seg := range segments {
		seg.Vector = append([]float32(nil), seg.Vector...)
		if seg.CreatedAt.IsZero() {
			seg.CreatedAt = s.now()
		}
		s.embeddings[seg.ID] = seg
	}
	return nil
}

func (s *Store) ListVersion(_ context.Context, userID, version string) ([]entities.SegmentEmbedding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []entities.SegmentEmbedding
	for _, seg := range s.embeddings {
		if seg.UserID == userID && seg.Version == version {
			seg.Vector = append([]float32(nil), seg.Vector...)
			out = append(out, seg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SegmentID < out[j].SegmentID })
	return out, nil
}

func (s *Store) DeleteVersion(_ context.Context, userID, version string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, seg := range s.embeddings {
		if seg.UserID == userID && seg.Version == version {
			delete(s.embeddings, id)
		}
	}
	return nil
}

func (s *Store) DeleteInactive(_ context.Context, userID, keep string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	owned := ""
	if r, ok := s.resumes[userID]; ok {
		owned = r.Version
	}
	for id, seg := range s.embeddings {
		if seg.UserID == userID && seg.Version != keep && seg.Version != owned {
			delete(s.embeddings, id)
		}
	}
	return nil
}

func (s *Store) DeleteByUser(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, seg := range s.embeddings {
		if seg.UserID == userID {
			delete(s.embeddings, id)
		}
	}
	return nil
}

// CountVersion reports how many embeddings a version holds.
func (s *Store) CountVersion(userID, version string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, seg := range s.embeddings {
		if seg.UserID == userID && seg.Version == version {
			n++
		}
	}
	return n
}

// CountUser reports how many embeddings the user owns across versions.
func (s *Store) CountUser(userID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, seg := range s.embeddings {
		if seg.UserID == userID {
			n++
		}
	}
	return n
}

// --- feedback ---

func (s *Store) Save(_ context.Context, fb *entities.Feedback) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if fb.ID == "" {
		fb.ID = uuid.NewString()
	}
	s.feedback[fb.ID] = *fb
	return nil
}

func (s *Store) MarkIncorporated(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fb, ok := s.feedback[id]
	if !ok {
		return apperr.NotFound("feedback")
	}
	fb.Incorporated = true
	s.feedback[id] = fb
	return nil
}

func (s *Store) List(_ context.Context, userID, url string) ([]entities.Feedback, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []entities.Feedback
	for _, fb := range s.feedback {
		if fb.UserID == userID && (url == "" || fb.URL == url) {
			out = append(out, fb)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// --- applications ---

func (s *Store) GetByURL(_ context.Context, userID, url string) (*entities.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if app, ok := s.findApplication(userID, url); ok {
		out := copyApplication(app)
		return &out, nil
	}
	return nil, nil
}

func (s *Store) findApplication(userID, url string) (entities.Application, bool) {
	for _, app := range s.applications {
		if app.UserID == userID && app.URL == url {
			return app, true
		}
	}
	return entities.Application{}, false
}

func (s *Store) UpsertFields(_ context.Context, in *entities.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	app, ok := s.findApplication(in.UserID, in.URL)
	if !ok {
		app = entities.Application{
			ID:        uuid.NewString(),
			UserID:    in.UserID,
			URL:       in.URL,
			CreatedAt: s.now(),
		}
	}
	if in.Title != "" {
		app.Title = in.Title
	}
	app.UpdatedAt = s.now()

	app = copyApplication(app)
	for _, f := range in.Fields {
		f.ApplicationID = app.ID
		replaced := false
		for i := range app.Fields {
			if app.Fields[i].FieldID == f.FieldID {
				f.Correction = app.Fields[i].Correction
				app.Fields[i] = f
				replaced = true
				break
			}
		}
		if !replaced {
			app.Fields = append(app.Fields, f)
		}
	}

	s.applications[app.ID] = app
	in.ID = app.ID
	return nil
}

func (s *Store) SetCorrection(_ context.Context, applicationID, fieldID, correction string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	app, ok := s.applications[applicationID]
	if !ok {
		return false, nil
	}
	app = copyApplication(app)
	for i := range app.Fields {
		if app.Fields[i].FieldID == fieldID {
			c := correction
			app.Fields[i].Correction = &c
			app.UpdatedAt = s.now()
			s.applications[applicationID] = app
			return true, nil
		}
	}
	return false, nil
}

// --- users ---

func (s *Store) SetHasResume(_ context.Context, userID string, has bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users[userID] = has
	return nil
}

func (s *Store) HasResume(_ context.Context, userID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.users[userID], nil
}

func copyResume(r entities.Resume) entities.Resume {
	r.Structured = copyStructured(r.Structured)
	return r
}

func copyStructured(st *entities.StructuredResume) *entities.StructuredResume {
	if st == nil {
		return nil
	}
	data, err := json.Marshal(st)
	if err != nil {
		return st
	}
	var out entities.StructuredResume
	if err := json.Unmarshal(data, &out); err != nil {
		return st
	}
	return &out
}

func copyApplication(app entities.Application) entities.Application {
	fields := make([]entities.FormField, len(app.Fields))
	copy(fields, app.Fields)
	app.Fields = fields
	return app
}
