package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"

	"github.com/spf13/afero"
)

// Local stores files on an afero filesystem, normally a base-path view of
// the media root on disk.
type Local struct {
	fs      afero.Fs
	baseURL string
}

func NewLocal(fs afero.Fs, baseURL string) *Local {
	return &Local{fs: fs, baseURL: baseURL}
}

// NewDisk stores files under root on the OS filesystem.
func NewDisk(root, baseURL string) (*Local, error) {
	osFs := afero.NewOsFs()
	if err := osFs.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create media root %s: %w", root, err)
	}
	return NewLocal(afero.NewBasePathFs(osFs, root), baseURL), nil
}

func (l *Local) Save(ctx context.Context, key string, r io.Reader, contentType string) error {
	if err := l.fs.MkdirAll(path.Dir(key), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", key, err)
	}

	f, err := l.fs.Create(key)
	if err != nil {
		return fmt.Errorf("create %s: %w", key, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		l.fs.Remove(key)
		return fmt.Errorf("write %s: %w", key, err)
	}
	return f.Close()
}

// Delete removes key. A missing file is not an error.
func (l *Local) Delete(ctx context.Context, key string) error {
	if err := l.fs.Remove(key); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}

func (l *Local) URL(key string) string {
	return joinURL(l.baseURL, key)
}

// Handler serves the stored files. Mount it under the path of baseURL with
// that prefix stripped. Request paths are resolved relative to the store,
// the same way Save resolves keys.
func (l *Local) Handler() http.Handler {
	return http.FileServer(http.FS(afero.NewIOFS(l.fs)))
}
