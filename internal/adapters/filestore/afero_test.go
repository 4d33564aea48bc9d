package filestore

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_SaveReadDelete(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	s := New(fs, "/uploads")

	p, err := s.Save(ctx, "user-1", "Jane Doe CV.pdf", []byte("%PDF"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/uploads", "user-1"), filepath.Dir(p))
	assert.True(t, strings.HasSuffix(p, "-Jane_Doe_CV.pdf"), p)

	data, err := s.Read(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF"), data)

	require.NoError(t, s.Delete(ctx, p))
	exists, err := afero.Exists(fs, p)
	require.NoError(t, err)
	assert.False(t, exists)

	assert.NoError(t, s.Delete(ctx, p), "deleting twice is fine")
}

func TestStore_SameNameDoesNotOverwrite(t *testing.T) {
	ctx := context.Background()
	s := New(afero.NewMemMapFs(), "/uploads")

	first, err := s.Save(ctx, "u", "cv.txt", []byte("old"))
	require.NoError(t, err)
	second, err := s.Save(ctx, "u", "cv.txt", []byte("new"))
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	data, err := s.Read(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, "old", string(data))
}

func TestStore_RejectsEscapes(t *testing.T) {
	ctx := context.Background()
	s := New(afero.NewMemMapFs(), "/uploads")

	_, err := s.Save(ctx, "../etc", "x.txt", nil)
	assert.Error(t, err)

	p, err := s.Save(ctx, "u", "../../passwd", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/uploads", "u"), filepath.Dir(p))

	_, err = s.Read(ctx, "/etc/passwd")
	assert.Error(t, err)
	assert.Error(t, s.Delete(ctx, "/uploads/../secret"))
}
