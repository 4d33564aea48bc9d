package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/0xcro3dile/resume-intel/internal/adapters/retry"
)

var fastRetry = retry.Config{MaxRetries: 2, InitBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond}

func TestOllamaEmbedder_Embed(t *testing.T) {
	var got ollamaEmbedRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embeddings" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"embedding": []float32{0.1, 0.2, 0.3},
		})
	}))
	defer server.Close()

	adapter := NewOllamaEmbedder(server.URL, "test-model", fastRetry, nil)
	emb, err := adapter.Embed(context.Background(), "Experience: Engineer at Acme")

	if err != nil {
		t.Fatalf("embed failed: %v", err)
	}
	if len(emb) != 3 {
		t.Errorf("expected 3 dims, got %d", len(emb))
	}
	if got.Model != "test-model" || got.Prompt != "Experience: Engineer at Acme" {
		t.Errorf("unexpected request: %+v", got)
	}
}

func TestOllamaEmbedder_EmbedBatch(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"embedding": []float32{float32(n) * 0.1},
		})
	}))
	defer server.Close()

	adapter := NewOllamaEmbedder(server.URL, "test-model", fastRetry, nil)
	results, err := adapter.EmbedBatch(context.Background(), []string{"a", "b", "c"})

	if err != nil {
		t.Fatalf("batch failed: %v", err)
	}
	if len(results) != 3 {
		t.Errorf("expected 3 results, got %d", len(results))
	}
}

func TestOllamaEmbedder_RetriesServerError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	adapter := NewOllamaEmbedder(server.URL, "test", fastRetry, nil)
	_, err := adapter.Embed(context.Background(), "test")

	if err == nil {
		t.Error("should error on 500")
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", calls.Load())
	}
}

func TestOllamaEmbedder_EmptyEmbedding(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"embedding": []float32{}})
	}))
	defer server.Close()

	if _, err := NewOllamaEmbedder(server.URL, "m", fastRetry, nil).Embed(context.Background(), "x"); err == nil {
		t.Error("should reject an empty embedding")
	}
}

func TestOllamaEmbedder_DefaultValues(t *testing.T) {
	adapter := NewOllamaEmbedder("", "", retry.Config{}, nil)
	if adapter.baseURL != "http://localhost:11434" {
		t.Error("should default to localhost")
	}
	if adapter.model != "nomic-embed-text" {
		t.Error("should default to nomic-embed-text")
	}
}
