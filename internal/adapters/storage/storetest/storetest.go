// Package storetest holds behaviour tests shared by every storage driver.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xcro3dile/resume-intel/internal/domain/apperr"
	"github.com/0xcro3dile/resume-intel/internal/domain/entities"
	"github.com/0xcro3dile/resume-intel/internal/domain/ports"
)

// Store is the union of the persistence ports.
type Store interface {
	ports.ResumeRepository
	ports.EmbeddingStore
	ports.FeedbackRepository
	ports.ApplicationRepository
	ports.UserRepository
}

// Run exercises s. newStore must return an empty store per call.
func Run(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("resume versioned writes", func(t *testing.T) { testResumeVersioning(t, newStore(t)) })
	t.Run("embedding versions", func(t *testing.T) { testEmbeddingVersions(t, newStore(t)) })
	t.Run("feedback", func(t *testing.T) { testFeedback(t, newStore(t)) })
	t.Run("applications", func(t *testing.T) { testApplications(t, newStore(t)) })
	t.Run("user flags", func(t *testing.T) { testUsers(t, newStore(t)) })
}

func newResume(userID, id, version string) *entities.Resume {
	now := time.Now().UTC().Truncate(time.Second)
	return &entities.Resume{
		ID:        id,
		UserID:    userID,
		RawText:   "Jane Doe",
		Status:    entities.StatusProcessing,
		FileName:  "cv.txt",
		FilePath:  "u1/cv.txt",
		MimeType:  "text/plain",
		Version:   version,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func testResumeVersioning(t *testing.T, s Store) {
	ctx := context.Background()

	got, err := s.GetByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, s.Replace(ctx, newResume("u1", "r1", "v1")))
	st := &entities.StructuredResume{PersonalInfo: entities.PersonalInfo{FullName: "Jane Doe", Email: "jane@x.com"}}
	require.NoError(t, s.SaveStructured(ctx, "r1", "v1", st))

	// A second upload replaces the row; writes from the first job are rejected.
	require.NoError(t, s.Replace(ctx, newResume("u1", "r2", "v2")))
	assert.True(t, apperr.Is(s.SaveStructured(ctx, "r1", "v1", st), apperr.CodeSuperseded))
	assert.True(t, apperr.Is(s.Activate(ctx, "r1", "v1"), apperr.CodeSuperseded))
	assert.True(t, apperr.Is(s.MarkFailed(ctx, "r1", "v1", "boom"), apperr.CodeSuperseded))

	got, err = s.GetByUser(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "r2", got.ID)
	assert.Nil(t, got.Structured)
	assert.Equal(t, entities.StatusProcessing, got.Status)

	require.NoError(t, s.SaveStructured(ctx, "r2", "v2", st))
	require.NoError(t, s.Activate(ctx, "r2", "v2"))

	got, err = s.GetByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, entities.StatusProcessed, got.Status)
	assert.Equal(t, "v2", got.ActiveVersion)
	require.NotNil(t, got.Structured)
	assert.Equal(t, "jane@x.com", got.Structured.PersonalInfo.Email)

	// Reindex keeps the active version until the new one is activated.
	require.NoError(t, s.PrepareVersion(ctx, "r2", "v3"))
	got, err = s.GetByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "v3", got.Version)
	assert.Equal(t, "v2", got.ActiveVersion)
	assert.True(t, apperr.Is(s.Activate(ctx, "r2", "v2"), apperr.CodeSuperseded))

	require.NoError(t, s.MarkFailed(ctx, "r2", "v3", "parse failed"))
	got, err = s.GetByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, entities.StatusError, got.Status)
	assert.Equal(t, "parse failed", got.Error)

	require.NoError(t, s.Delete(ctx, "u1"))
	got, err = s.GetByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func segments(userID, resumeID, version string, ids ...string) []entities.SegmentEmbedding {
	out := make([]entities.SegmentEmbedding, len(ids))
	for i, id := range ids {
		out[i] = entities.SegmentEmbedding{
			ID:          version + "-" + id,
			UserID:      userID,
			ResumeID:    resumeID,
			Version:     version,
			SegmentType: entities.SegmentExperience,
			SegmentID:   id,
			Text:        "text " + id,
			Vector:      []float32{float32(i + 1), 0.5},
			Metadata:    map[string]any{"company": "Acme"},
		}
	}
	return out
}

func testEmbeddingVersions(t *testing.T, s Store) {
	ctx := context.Background()

	require.NoError(t, s.Replace(ctx, newResume("u1", "r1", "v1")))
	require.NoError(t, s.WriteVersion(ctx, segments("u1", "r1", "v1", "experience-0", "experience-1")))
	require.NoError(t, s.Activate(ctx, "r1", "v1"))

	// The next version is written beside the active one.
	require.NoError(t, s.Replace(ctx, newResume("u1", "r2", "v2")))
	require.NoError(t, s.WriteVersion(ctx, segments("u1", "r2", "v2", "personal")))

	v1, err := s.ListVersion(ctx, "u1", "v1")
	require.NoError(t, err)
	assert.Len(t, v1, 2)
	assert.Equal(t, "experience-0", v1[0].SegmentID)
	assert.Equal(t, []float32{1, 0.5}, v1[0].Vector)
	assert.Equal(t, "Acme", v1[0].Metadata["company"])

	// A third upload starts before v2 is collected; its rows must survive.
	require.NoError(t, s.Activate(ctx, "r2", "v2"))
	require.NoError(t, s.Replace(ctx, newResume("u1", "r3", "v3")))
	require.NoError(t, s.WriteVersion(ctx, segments("u1", "r3", "v3", "skills-general")))
	require.NoError(t, s.DeleteInactive(ctx, "u1", "v2"))

	v1, err = s.ListVersion(ctx, "u1", "v1")
	require.NoError(t, err)
	assert.Empty(t, v1)
	v2, err := s.ListVersion(ctx, "u1", "v2")
	require.NoError(t, err)
	assert.Len(t, v2, 1)
	v3, err := s.ListVersion(ctx, "u1", "v3")
	require.NoError(t, err)
	assert.Len(t, v3, 1)

	require.NoError(t, s.DeleteVersion(ctx, "u1", "v3"))
	v3, err = s.ListVersion(ctx, "u1", "v3")
	require.NoError(t, err)
	assert.Empty(t, v3)

	require.NoError(t, s.WriteVersion(ctx, segments("u2", "rx", "vx", "personal")))
	require.NoError(t, s.DeleteByUser(ctx, "u1"))
	v2, err = s.ListVersion(ctx, "u1", "v2")
	require.NoError(t, err)
	assert.Empty(t, v2)
	other, err := s.ListVersion(ctx, "u2", "vx")
	require.NoError(t, err)
	assert.Len(t, other, 1)
}

func testFeedback(t *testing.T, s Store) {
	ctx := context.Background()

	fb := &entities.Feedback{
		ID:                 "f1",
		UserID:             "u1",
		URL:                "https://jobs.example.com/1",
		FieldID:            "email",
		FieldName:          "email",
		OriginalSuggestion: "jane@x.com",
		UserCorrection:     "jane@y.com",
		Confidence:         entities.ConfidenceYellow,
		CreatedAt:          time.Now().UTC(),
	}
	require.NoError(t, s.Save(ctx, fb))
	require.NoError(t, s.Save(ctx, &entities.Feedback{ID: "f2", UserID: "u1", URL: "https://other", FieldName: "phone", CreatedAt: time.Now().UTC()}))

	list, err := s.List(ctx, "u1", "https://jobs.example.com/1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.False(t, list[0].Incorporated)
	assert.Equal(t, entities.ConfidenceYellow, list[0].Confidence)

	require.NoError(t, s.MarkIncorporated(ctx, "f1"))
	list, err = s.List(ctx, "u1", "")
	require.NoError(t, err)
	require.Len(t, list, 2)
	for _, f := range list {
		assert.Equal(t, f.ID == "f1", f.Incorporated, f.ID)
	}
}

func testApplications(t *testing.T, s Store) {
	ctx := context.Background()
	url := "https://jobs.example.com/1"

	app, err := s.GetByURL(ctx, "u1", url)
	require.NoError(t, err)
	assert.Nil(t, app)

	in := &entities.Application{UserID: "u1", URL: url, Title: "Backend Engineer", Fields: []entities.FormField{
		{FieldID: "email", FieldName: "email", Value: "jane@x.com", Confidence: entities.ConfidenceYellow},
		{FieldID: "employer", FieldName: "employer", Value: "Acme", Confidence: entities.ConfidenceGreen},
	}}
	require.NoError(t, s.UpsertFields(ctx, in))
	require.NotEmpty(t, in.ID)

	ok, err := s.SetCorrection(ctx, in.ID, "email", "jane@y.com")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.SetCorrection(ctx, in.ID, "missing", "x")
	require.NoError(t, err)
	assert.False(t, ok)

	// Suggesting again updates the value and keeps the correction.
	require.NoError(t, s.UpsertFields(ctx, &entities.Application{UserID: "u1", URL: url, Fields: []entities.FormField{
		{FieldID: "email", FieldName: "email", Value: "jane@z.com", Confidence: entities.ConfidenceRed},
	}}))

	app, err = s.GetByURL(ctx, "u1", url)
	require.NoError(t, err)
	require.NotNil(t, app)
	assert.Equal(t, in.ID, app.ID)
	assert.Equal(t, "Backend Engineer", app.Title)
	require.Len(t, app.Fields, 2)

	byID := map[string]entities.FormField{}
	for _, f := range app.Fields {
		byID[f.FieldID] = f
	}
	assert.Equal(t, "jane@z.com", byID["email"].Value)
	require.NotNil(t, byID["email"].Correction)
	assert.Equal(t, "jane@y.com", *byID["email"].Correction)
	assert.Nil(t, byID["employer"].Correction)
}

func testUsers(t *testing.T, s Store) {
	ctx := context.Background()

	has, err := s.HasResume(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, s.SetHasResume(ctx, "u1", true))
	has, err = s.HasResume(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, has)

	require.NoError(t, s.SetHasResume(ctx, "u1", false))
	has, err = s.HasResume(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, has)
}
