package learning

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/0xcro3dile/resume-intel/internal/adapters/retry"
	"github.com/0xcro3dile/resume-intel/internal/domain/entities"
)

var fastRetry = retry.Config{MaxRetries: 1, InitBackoff: time.Millisecond, MaxBackoff: time.Millisecond}

func sampleFeedback() entities.Feedback {
	return entities.Feedback{
		ID:                 "fb-1",
		UserID:             "user-1",
		URL:                "https://jobs.example.com/apply",
		FieldID:            "f1",
		FieldName:          "Current Employer",
		OriginalSuggestion: "Initech",
		UserCorrection:     "Acme",
		Confidence:         entities.ConfidenceRed,
	}
}

func TestLogHook(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	require.NoError(t, NewLogHook(zap.New(core)).Learn(context.Background(), sampleFeedback()))

	entries := logs.FilterMessage("correction received").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "Current Employer", entries[0].ContextMap()["field_name"])
}

func TestWebhookHook_Delivers(t *testing.T) {
	var got webhookPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	hook := NewWebhookHook(server.URL, time.Second, fastRetry, nil)
	require.NoError(t, hook.Learn(context.Background(), sampleFeedback()))
	assert.Equal(t, "feedback.created", got.Event)
	assert.Equal(t, "Acme", got.Feedback.UserCorrection)
}

func TestWebhookHook_RetriesThenFails(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	err := NewWebhookHook(server.URL, time.Second, fastRetry, nil).Learn(context.Background(), sampleFeedback())
	assert.ErrorContains(t, err, "status 502")
	assert.EqualValues(t, 2, calls.Load())
}

func TestWebhookHook_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	err := NewWebhookHook(server.URL, time.Second, fastRetry, nil).Learn(context.Background(), sampleFeedback())
	assert.Error(t, err)
	assert.EqualValues(t, 1, calls.Load())
}
