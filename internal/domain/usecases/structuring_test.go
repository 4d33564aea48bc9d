package usecases

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/0xcro3dile/resume-intel/internal/domain/apperr"
)

func TestParseStructured(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"strict", janeResumeJSON},
		{"fenced", "Here you go:\n```json\n" + janeResumeJSON + "\n```\nAnything else?"},
		{"prose wrapped", "Sure! " + janeResumeJSON + " Hope this helps."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := ParseStructured(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, "Jane Doe", r.PersonalInfo.FullName)
			assert.Empty(t, r.PersonalInfo.LinkedIn)
			require.Len(t, r.Experience, 2)
			assert.True(t, r.Experience[0].Current)
			assert.Equal(t, []string{"Led migration"}, r.Experience[0].Highlights)
			assert.Equal(t, "1.3", r.Education[0].GPA)
			assert.Empty(t, r.Skills[2].Category)
		})
	}
}

func TestParseStructuredRejects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"not json", "I could not read this resume."},
		{"array", `[{"personalInfo": {}}]`},
		{"missing skills", `{"personalInfo": {}, "education": [], "experience": []}`},
		{"wrong type", `{"personalInfo": {}, "education": {}, "experience": [], "skills": []}`},
		{"skill without name", `{"personalInfo": {}, "education": [], "experience": [], "skills": [{"category": "x"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := ParseStructured(tt.raw)
			assert.Nil(t, r)
			assert.True(t, apperr.Is(err, apperr.CodeParsing), "got %v", err)
		})
	}
}

func TestStructurer(t *testing.T) {
	ctx := context.Background()
	log := zaptest.NewLogger(t)

	t.Run("parses reply", func(t *testing.T) {
		llm := structuringLLM("```json\n"+janeResumeJSON+"\n```", "")
		r, err := NewStructurer(llm, 0.1, log).Structure(ctx, "Jane Doe ...")
		require.NoError(t, err)
		assert.Equal(t, "jane@x.com", r.PersonalInfo.Email)
		assert.Contains(t, llm.prompts[0], "Jane Doe ...")
	})

	t.Run("call error is not a parsing error", func(t *testing.T) {
		llm := &mockLLM{reply: func(string) (string, error) { return "", errors.New("connection refused") }}
		_, err := NewStructurer(llm, 0.1, log).Structure(ctx, "text")
		require.Error(t, err)
		assert.False(t, apperr.Is(err, apperr.CodeParsing))
		assert.Contains(t, err.Error(), "connection refused")
	})

	t.Run("bad reply is a parsing error", func(t *testing.T) {
		llm := structuringLLM("no idea", "")
		_, err := NewStructurer(llm, 0.1, log).Structure(ctx, "text")
		assert.True(t, apperr.Is(err, apperr.CodeParsing))
	})
}
