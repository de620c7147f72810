package object

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/vemurivi/CareerShotApi/pkg/platform/sentinel"
)

// Filesystem stores objects as files under root/<container>/<name>. Puts are
// written to a temp file and renamed into place, so a failed put leaves no
// partial object behind: the full stream is durably stored or the call fails
// as a whole.
type Filesystem struct {
	root string
}

// NewFilesystem constructs a filesystem object store rooted at root.
func NewFilesystem(root string) (*Filesystem, error) {
	if root == "" {
		return nil, errors.New("object store root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create object store root: %w", err)
	}
	return &Filesystem{root: root}, nil
}

// Put writes r to container/name, overwriting any existing object under that
// name. Returns the number of bytes stored.
func (s *Filesystem) Put(ctx context.Context, container, name string, r io.Reader) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	dir := filepath.Join(s.root, container)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("create container %q: %w", container, err)
	}

	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return 0, fmt.Errorf("create temp object: %w", err)
	}
	tmpName := tmp.Name()

	n, err := io.Copy(tmp, r)
	if err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return 0, fmt.Errorf("write object %q: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return 0, fmt.Errorf("sync object %q: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return 0, fmt.Errorf("close object %q: %w", name, err)
	}

	// Rename is atomic on the same filesystem; overwrite is last writer wins.
	if err := os.Rename(tmpName, filepath.Join(dir, name)); err != nil {
		_ = os.Remove(tmpName)
		return 0, fmt.Errorf("store object %q: %w", name, err)
	}
	return n, nil
}

// Get opens the stored object for reading. The caller closes it.
func (s *Filesystem) Get(_ context.Context, container, name string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(s.root, container, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("open object %q: %w", name, err)
	}
	return f, nil
}

// Stat reports the stored size of an object.
func (s *Filesystem) Stat(_ context.Context, container, name string) (int64, error) {
	info, err := os.Stat(filepath.Join(s.root, container, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, sentinel.ErrNotFound
		}
		return 0, fmt.Errorf("stat object %q: %w", name, err)
	}
	return info.Size(), nil
}
