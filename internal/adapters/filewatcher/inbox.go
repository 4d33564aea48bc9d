package filewatcher

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/0xcro3dile/resume-intel/internal/adapters/parser"
	"github.com/0xcro3dile/resume-intel/internal/domain/ports"
	"github.com/0xcro3dile/resume-intel/internal/domain/usecases"
)

const defaultSettle = 500 * time.Millisecond

// Uploader accepts a resume file for a user.
type Uploader interface {
	Upload(ctx context.Context, userID, fileName, mimeType string, data []byte) (*usecases.UploadResult, error)
}

// Inbox uploads files written to <root>/<userID>/<file>. A path is uploaded
// once it has seen no events for the settle period, so a file written in
// several chunks produces one upload.
type Inbox struct {
	watcher  ports.FileWatcher
	fs       afero.Fs
	uploader Uploader
	root     string
	settle   time.Duration
	logger   *zap.Logger

	mu      sync.Mutex
	pending map[string]*time.Timer
}

// NewInbox wires a watcher to an uploader. settle <= 0 uses the default.
func NewInbox(watcher ports.FileWatcher, fs afero.Fs, uploader Uploader, root string, settle time.Duration, log *zap.Logger) *Inbox {
	if settle <= 0 {
		settle = defaultSettle
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Inbox{
		watcher:  watcher,
		fs:       fs,
		uploader: uploader,
		root:     filepath.Clean(root),
		settle:   settle,
		logger:   log.With(zap.String("component", "inbox")),
		pending:  make(map[string]*time.Timer),
	}
}

// Run blocks until ctx is done or the watcher closes its event channel.
func (in *Inbox) Run(ctx context.Context) error {
	events, err := in.watcher.Watch(ctx, in.root)
	if err != nil {
		return err
	}
	in.logger.Info("watching inbox", zap.String("dir", in.root))

	ready := make(chan string)
	defer in.stopTimers()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			switch ev.Operation {
			case ports.FileCreated, ports.FileModified:
				in.schedule(ctx, ev.Path, ready)
			case ports.FileDeleted:
				in.cancel(ev.Path)
			}
		case path := <-ready:
			in.ingest(ctx, path)
		}
	}
}

func (in *Inbox) schedule(ctx context.Context, path string, ready chan<- string) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if t, ok := in.pending[path]; ok {
		t.Stop()
	}
	in.pending[path] = time.AfterFunc(in.settle, func() {
		in.mu.Lock()
		delete(in.pending, path)
		in.mu.Unlock()
		select {
		case ready <- path:
		case <-ctx.Done():
		}
	})
}

func (in *Inbox) cancel(path string) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if t, ok := in.pending[path]; ok {
		t.Stop()
		delete(in.pending, path)
	}
}

func (in *Inbox) stopTimers() {
	in.mu.Lock()
	defer in.mu.Unlock()
	for p, t := range in.pending {
		t.Stop()
		delete(in.pending, p)
	}
}

// userFor returns the user directory name of an inbox file, or "" when the
// file is not exactly one level below the root.
func (in *Inbox) userFor(path string) string {
	rel, err := filepath.Rel(in.root, filepath.Clean(path))
	if err != nil {
		return ""
	}
	dir, _ := filepath.Split(rel)
	dir = filepath.Clean(dir)
	if dir == "." || dir == ".." || filepath.Dir(dir) != "." {
		return ""
	}
	return dir
}

func (in *Inbox) ingest(ctx context.Context, path string) {
	userID := in.userFor(path)
	if userID == "" {
		in.logger.Debug("ignoring file outside a user directory", zap.String("path", path))
		return
	}
	data, err := afero.ReadFile(in.fs, path)
	if err != nil {
		in.logger.Warn("reading inbox file", zap.String("path", path), zap.Error(err))
		return
	}

	name := filepath.Base(path)
	res, err := in.uploader.Upload(ctx, userID, name, parser.MimeTypeFor(name), data)
	if err != nil {
		in.logger.Error("inbox upload failed",
			zap.String("user_id", userID),
			zap.String("file", name),
			zap.Error(err))
		return
	}
	in.logger.Info("inbox upload accepted",
		zap.String("user_id", userID),
		zap.String("file", name),
		zap.String("resume_id", res.ResumeID))
}
