// Package filestore keeps uploaded resume files on an afero filesystem.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// Store implements ports.FileStorage. Files live at <root>/<userID>/<id>-<name>
// so a re-upload under the same name never overwrites the file still owned by
// the previous resume row.
type Store struct {
	fs   afero.Fs
	root string
}

// New returns a store rooted at root on fs.
func New(fs afero.Fs, root string) *Store {
	return &Store{fs: fs, root: filepath.Clean(root)}
}

// NewOS returns a store on the local disk.
func NewOS(root string) *Store {
	return New(afero.NewOsFs(), root)
}

func (s *Store) Save(_ context.Context, userID, name string, data []byte) (string, error) {
	dir, err := s.userDir(userID)
	if err != nil {
		return "", err
	}
	if err := s.fs.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("creating upload dir: %w", err)
	}
	p := filepath.Join(dir, uuid.NewString()[:8]+"-"+safeName(name))
	if err := afero.WriteFile(s.fs, p, data, 0o640); err != nil {
		return "", fmt.Errorf("writing upload: %w", err)
	}
	return p, nil
}

func (s *Store) Read(_ context.Context, p string) ([]byte, error) {
	if err := s.contains(p); err != nil {
		return nil, err
	}
	return afero.ReadFile(s.fs, p)
}

// Delete is a no-op for missing files.
func (s *Store) Delete(_ context.Context, p string) error {
	if err := s.contains(p); err != nil {
		return err
	}
	if err := s.fs.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing upload: %w", err)
	}
	return nil
}

func (s *Store) userDir(userID string) (string, error) {
	if userID == "" || userID != safeName(userID) {
		return "", fmt.Errorf("invalid user id %q for file storage", userID)
	}
	return filepath.Join(s.root, userID), nil
}

func (s *Store) contains(p string) error {
	rel, err := filepath.Rel(s.root, filepath.Clean(p))
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return fmt.Errorf("path %q is outside the upload dir", p)
	}
	return nil
}

// safeName keeps the base name and replaces anything outside [A-Za-z0-9._-].
func safeName(name string) string {
	name = path.Base(filepath.ToSlash(name))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := strings.Trim(b.String(), ".")
	if out == "" {
		return "upload"
	}
	return out
}
