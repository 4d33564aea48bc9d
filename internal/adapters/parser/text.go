package parser

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	xunicode "golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/0xcro3dile/resume-intel/internal/domain/apperr"
)

// Mime types decoded locally.
const (
	MimeText     = "text/plain"
	MimeMarkdown = "text/markdown"
)

// PlainTextExtractor decodes text documents. UTF-16 files are recognised by
// their byte order mark.
type PlainTextExtractor struct{}

func NewPlainTextExtractor() *PlainTextExtractor {
	return &PlainTextExtractor{}
}

func (PlainTextExtractor) Extract(_ context.Context, data []byte, _ string) (string, error) {
	decoded, _, err := transform.Bytes(xunicode.BOMOverride(xunicode.UTF8.NewDecoder()), data)
	if err != nil {
		return "", apperr.Extraction("decoding text document", err)
	}
	if !utf8.Valid(decoded) {
		return "", apperr.Extraction("text document is not valid UTF-8", nil)
	}
	return cleanContent(string(decoded)), nil
}

func (PlainTextExtractor) SupportedFormats() []string {
	return []string{MimeText, MimeMarkdown}
}

// cleanContent drops control characters other than newlines and tabs, and
// trims trailing spaces from every line.
func cleanContent(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	var cleaned strings.Builder
	cleaned.Grow(len(content))
	for _, r := range content {
		if r == '\n' || r == '\t' || !unicode.IsControl(r) && r != utf8.RuneError {
			cleaned.WriteRune(r)
		}
	}
	lines := strings.Split(cleaned.String(), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
