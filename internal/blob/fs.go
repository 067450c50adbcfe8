package blob

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// FS is a filesystem-backed blob store. Production uses the OS filesystem
// rooted at a configured directory; tests pass an in-memory afero.Fs.
type FS struct {
	fs   afero.Fs
	root string
}

// NewFS creates a blob store rooted at dir on the given filesystem.
func NewFS(fs afero.Fs, dir string) *FS {
	return &FS{fs: fs, root: dir}
}

// NewOsFS creates a blob store on the OS filesystem rooted at dir.
func NewOsFS(dir string) *FS {
	return NewFS(afero.NewOsFs(), dir)
}

// Put writes data under path, creating parent directories as needed.
func (f *FS) Put(_ context.Context, path string, data []byte) error {
	full := filepath.Join(f.root, filepath.FromSlash(path))
	if err := f.fs.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("mkdir for blob %s: %w", path, err)
	}
	if err := afero.WriteFile(f.fs, full, data, 0o644); err != nil {
		return fmt.Errorf("write blob %s: %w", path, err)
	}
	return nil
}

// Get reads the blob at path.
func (f *FS) Get(_ context.Context, path string) ([]byte, error) {
	data, err := afero.ReadFile(f.fs, filepath.Join(f.root, filepath.FromSlash(path)))
	if err != nil {
		return nil, fmt.Errorf("read blob %s: %w", path, err)
	}
	return data, nil
}

// Delete removes the blob at path. Missing blobs are not an error.
func (f *FS) Delete(_ context.Context, path string) error {
	err := f.fs.Remove(filepath.Join(f.root, filepath.FromSlash(path)))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete blob %s: %w", path, err)
	}
	return nil
}
