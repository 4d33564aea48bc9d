// Package parser provides the text extraction adapters.
// Binary documents are sent to an external extraction service; plain text is
// decoded locally. Router picks the extractor by mime type.
package parser

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/0xcro3dile/resume-intel/internal/domain/apperr"
)

// Mime types handled by the extraction service.
const (
	MimePDF  = "application/pdf"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MimeDOC  = "application/msword"
)

// ServiceExtractor implements ports.TextExtractor by posting the document to an
// HTTP extraction service (POST /parse, JSON {text, pages, error}).
type ServiceExtractor struct {
	serviceURL string
	client     *http.Client
	logger     *zap.Logger
}

// NewServiceExtractor creates an extractor for the service at serviceURL.
func NewServiceExtractor(serviceURL string, timeout time.Duration, log *zap.Logger) *ServiceExtractor {
	if serviceURL == "" {
		serviceURL = "http://localhost:8081"
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ServiceExtractor{
		serviceURL: strings.TrimRight(serviceURL, "/"),
		client:     &http.Client{Timeout: timeout},
		logger:     log.With(zap.String("extractor", "service")),
	}
}

type parseResponse struct {
	Text    string `json:"text"`
	Pages   int    `json:"pages"`
	Library string `json:"library,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Extract returns the document text. Every failure is an extraction error.
func (p *ServiceExtractor) Extract(ctx context.Context, data []byte, mimeType string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.serviceURL+"/parse", bytes.NewReader(data))
	if err != nil {
		return "", apperr.Extraction("creating extraction request", err)
	}
	req.Header.Set("Content-Type", mimeType)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", apperr.Extraction("calling extraction service", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", apperr.Extraction("reading extraction response", err)
	}

	var result parseResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", apperr.Extraction(fmt.Sprintf("extraction service returned status %d", resp.StatusCode), err)
	}
	if result.Error != "" {
		return "", apperr.Extraction("document could not be parsed: "+result.Error, nil)
	}
	if resp.StatusCode != http.StatusOK {
		return "", apperr.Extraction(fmt.Sprintf("extraction service returned status %d", resp.StatusCode), nil)
	}

	p.logger.Debug("document extracted",
		zap.String("mime_type", mimeType),
		zap.Int("pages", result.Pages),
		zap.String("library", result.Library),
		zap.Int("chars", len(result.Text)))
	return cleanContent(result.Text), nil
}

// SupportedFormats returns the mime types the service handles.
func (p *ServiceExtractor) SupportedFormats() []string {
	return []string{MimePDF, MimeDOCX, MimeDOC}
}

// Healthy reports whether the service answers GET /health.
func (p *ServiceExtractor) Healthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.serviceURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
