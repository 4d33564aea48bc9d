package filewatcher

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/0xcro3dile/resume-intel/internal/adapters/parser"
	"github.com/0xcro3dile/resume-intel/internal/domain/ports"
	"github.com/0xcro3dile/resume-intel/internal/domain/usecases"
)

type chanWatcher struct {
	events chan ports.FileEvent
}

func (w *chanWatcher) Watch(context.Context, string) (<-chan ports.FileEvent, error) {
	return w.events, nil
}

func (w *chanWatcher) Stop() error { return nil }

type upload struct {
	userID, name, mime, data string
}

type recordingUploader struct {
	mu      sync.Mutex
	uploads []upload
	done    chan struct{}
	err     error
}

func (u *recordingUploader) Upload(_ context.Context, userID, fileName, mimeType string, data []byte) (*usecases.UploadResult, error) {
	u.mu.Lock()
	u.uploads = append(u.uploads, upload{userID, fileName, mimeType, string(data)})
	u.mu.Unlock()
	u.done <- struct{}{}
	if u.err != nil {
		return nil, u.err
	}
	return &usecases.UploadResult{ResumeID: "r-1", IsProcessing: true}, nil
}

func newInboxHarness(t *testing.T) (*Inbox, *chanWatcher, *recordingUploader, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	w := &chanWatcher{events: make(chan ports.FileEvent, 10)}
	u := &recordingUploader{done: make(chan struct{}, 10)}
	in := NewInbox(w, fs, u, "/inbox", 20*time.Millisecond, zaptest.NewLogger(t))
	return in, w, u, fs
}

func run(t *testing.T, in *Inbox) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- in.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		assert.NoError(t, <-errc)
	})
	return cancel
}

func waitUpload(t *testing.T, u *recordingUploader) {
	t.Helper()
	select {
	case <-u.done:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for upload")
	}
}

func TestInbox_UploadsUserFile(t *testing.T) {
	in, w, u, fs := newInboxHarness(t)
	p := filepath.Join("/inbox", "user-1", "cv.txt")
	require.NoError(t, afero.WriteFile(fs, p, []byte("Name: Jane"), 0o644))
	run(t, in)

	w.events <- ports.FileEvent{Path: p, Operation: ports.FileCreated}
	w.events <- ports.FileEvent{Path: p, Operation: ports.FileModified}
	waitUpload(t, u)

	select {
	case <-u.done:
		t.Fatal("bursts of events should produce a single upload")
	case <-time.After(100 * time.Millisecond):
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	require.Len(t, u.uploads, 1)
	assert.Equal(t, upload{"user-1", "cv.txt", parser.MimeText, "Name: Jane"}, u.uploads[0])
}

func TestInbox_IgnoresFilesOutsideUserDirs(t *testing.T) {
	in, w, u, fs := newInboxHarness(t)
	top := filepath.Join("/inbox", "cv.txt")
	deep := filepath.Join("/inbox", "u", "nested", "cv.txt")
	require.NoError(t, afero.WriteFile(fs, top, []byte("x"), 0o644))
	require.NoError(t, afero.WriteFile(fs, deep, []byte("x"), 0o644))
	run(t, in)

	w.events <- ports.FileEvent{Path: top, Operation: ports.FileCreated}
	w.events <- ports.FileEvent{Path: deep, Operation: ports.FileCreated}

	select {
	case <-u.done:
		t.Fatal("no upload expected")
	case <-time.After(150 * time.Millisecond):
	}
}

func TestInbox_DeleteCancelsPendingUpload(t *testing.T) {
	in, w, u, _ := newInboxHarness(t)
	run(t, in)

	p := filepath.Join("/inbox", "u", "cv.txt")
	w.events <- ports.FileEvent{Path: p, Operation: ports.FileCreated}
	w.events <- ports.FileEvent{Path: p, Operation: ports.FileDeleted}

	select {
	case <-u.done:
		t.Fatal("no upload expected")
	case <-time.After(150 * time.Millisecond):
	}
}

func TestInbox_UploadErrorKeepsRunning(t *testing.T) {
	in, w, u, fs := newInboxHarness(t)
	u.err = errors.New("unsupported file type")
	a := filepath.Join("/inbox", "u", "a.txt")
	b := filepath.Join("/inbox", "u", "b.txt")
	require.NoError(t, afero.WriteFile(fs, a, []byte("a"), 0o644))
	require.NoError(t, afero.WriteFile(fs, b, []byte("b"), 0o644))
	run(t, in)

	w.events <- ports.FileEvent{Path: a, Operation: ports.FileCreated}
	waitUpload(t, u)
	w.events <- ports.FileEvent{Path: b, Operation: ports.FileCreated}
	waitUpload(t, u)
}

func TestInbox_UserFor(t *testing.T) {
	in := NewInbox(nil, nil, nil, "/inbox", 0, nil)
	assert.Equal(t, "u1", in.userFor("/inbox/u1/cv.pdf"))
	assert.Equal(t, "", in.userFor("/inbox/cv.pdf"))
	assert.Equal(t, "", in.userFor("/inbox/u1/x/cv.pdf"))
	assert.Equal(t, "", in.userFor("/elsewhere/u1/cv.pdf"))
}
