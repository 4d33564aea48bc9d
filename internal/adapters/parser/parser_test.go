package parser

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xcro3dile/resume-intel/internal/domain/apperr"
)

func TestServiceExtractor_Extract(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/parse", r.URL.Path)
		assert.Equal(t, MimePDF, r.Header.Get("Content-Type"))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"text":  "Jane Doe\r\nEngineer at Acme   \n",
			"pages": 1,
		})
	}))
	defer server.Close()

	text, err := NewServiceExtractor(server.URL, 0, nil).Extract(context.Background(), []byte("%PDF"), MimePDF)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe\nEngineer at Acme", text)
}

func TestServiceExtractor_ServiceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]interface{}{"error": "encrypted pdf", "text": ""})
	}))
	defer server.Close()

	_, err := NewServiceExtractor(server.URL, 0, nil).Extract(context.Background(), []byte("bad"), MimePDF)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeExtraction))
	assert.Contains(t, err.Error(), "encrypted pdf")
}

func TestServiceExtractor_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := NewServiceExtractor(url, 0, nil).Extract(context.Background(), []byte("x"), MimePDF)
	assert.True(t, apperr.Is(err, apperr.CodeExtraction))
}

func TestServiceExtractor_Healthy(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	assert.True(t, NewServiceExtractor(server.URL, 0, nil).Healthy(context.Background()))
}

func TestPlainTextExtractor(t *testing.T) {
	e := NewPlainTextExtractor()

	text, err := e.Extract(context.Background(), []byte("\xef\xbb\xbfName: Jane\x00 Doe\n"), MimeText)
	require.NoError(t, err)
	assert.Equal(t, "Name: Jane Doe", text)

	// UTF-16LE with BOM.
	utf16 := []byte{0xff, 0xfe, 'G', 0, 'o', 0}
	text, err = e.Extract(context.Background(), utf16, MimeText)
	require.NoError(t, err)
	assert.Equal(t, "Go", text)
}

func TestRouter(t *testing.T) {
	r := NewRouter(NewPlainTextExtractor(), NewServiceExtractor("http://127.0.0.1:1", 0, nil))

	text, err := r.Extract(context.Background(), []byte("Skills: Go"), "text/plain; charset=utf-8")
	require.NoError(t, err)
	assert.Equal(t, "Skills: Go", text)

	_, err = r.Extract(context.Background(), []byte{0x89, 'P', 'N', 'G'}, "image/png")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeExtraction))

	assert.Contains(t, r.SupportedFormats(), MimePDF)
	assert.Contains(t, r.SupportedFormats(), MimeMarkdown)
}

func TestMimeTypeFor(t *testing.T) {
	tests := map[string]string{
		"cv.PDF":       MimePDF,
		"resume.docx":  MimeDOCX,
		"notes.md":     MimeMarkdown,
		"resume.txt":   MimeText,
		"archive.zzz9": "application/octet-stream",
	}
	for name, want := range tests {
		assert.Equal(t, want, MimeTypeFor(name), name)
	}
}
