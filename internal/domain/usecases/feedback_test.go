package usecases

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/0xcro3dile/resume-intel/internal/domain/apperr"
	"github.com/0xcro3dile/resume-intel/internal/domain/entities"
)

func drain(t *testing.T, r *FeedbackRecorder) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, r.Drain(ctx))
}

func TestFeedbackCorrectsApplicationField(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, structuringLLM(janeResumeJSON, "Acme"))
	h.upload(t, "u1")

	_, err := h.suggest.SuggestBatch(ctx, "u1", SuggestRequest{URL: jobURL, Fields: []entities.FormFieldQuery{
		employerField,
		{FieldID: "email", FieldName: "email", Label: "Email Address"},
	}})
	require.NoError(t, err)

	hook := &mockHook{}
	rec := NewFeedbackRecorder(h.store, h.store, hook, time.Second, zaptest.NewLogger(t))

	fb, err := rec.Record(ctx, entities.Feedback{
		UserID:             "u1",
		URL:                jobURL,
		FieldName:          "email",
		OriginalSuggestion: "jane@x.com",
		UserCorrection:     "jane@work.example",
		Confidence:         entities.ConfidenceYellow,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, fb.ID)
	assert.False(t, fb.Incorporated)
	drain(t, rec)

	app, err := h.suggest.ApplicationFor(ctx, "u1", jobURL)
	require.NoError(t, err)
	for _, f := range app.Fields {
		if f.FieldID == "email" {
			require.NotNil(t, f.Correction)
			assert.Equal(t, "jane@work.example", *f.Correction)
		} else {
			assert.Nil(t, f.Correction)
		}
	}

	list, err := rec.List(ctx, "u1", jobURL)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].Incorporated)
	require.Len(t, hook.seen, 1)
	assert.Equal(t, fb.ID, hook.seen[0].ID)
}

func TestFeedbackSurvivesHookFailure(t *testing.T) {
	ctx := context.Background()
	store := newHarness(t, nil).store
	rec := NewFeedbackRecorder(store, store, &mockHook{err: errors.New("webhook 500")}, time.Second, zaptest.NewLogger(t))

	_, err := rec.Record(ctx, entities.Feedback{UserID: "u1", URL: "https://unknown", FieldID: "phone", UserCorrection: "+49"})
	require.NoError(t, err)
	drain(t, rec)

	list, err := rec.List(ctx, "u1", "")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.False(t, list[0].Incorporated)
}

func TestFeedbackWithoutHook(t *testing.T) {
	store := newHarness(t, nil).store
	rec := NewFeedbackRecorder(store, store, nil, 0, zaptest.NewLogger(t))

	_, err := rec.Record(context.Background(), entities.Feedback{UserID: "u1", FieldName: "email"})
	require.NoError(t, err)
	drain(t, rec)
	assert.Equal(t, 30*time.Second, rec.hookTimeout)
}

func TestFeedbackValidation(t *testing.T) {
	store := newHarness(t, nil).store
	rec := NewFeedbackRecorder(store, store, nil, time.Second, zaptest.NewLogger(t))

	_, err := rec.Record(context.Background(), entities.Feedback{FieldName: "email"})
	assert.True(t, apperr.Is(err, apperr.CodeValidation))

	_, err = rec.Record(context.Background(), entities.Feedback{UserID: "u1"})
	assert.True(t, apperr.Is(err, apperr.CodeValidation))

	list, err := rec.List(context.Background(), "u1", "")
	require.NoError(t, err)
	assert.Empty(t, list)
}
