package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FS writes archived exports below a root directory.
type FS struct {
	root string
}

// NewFS creates root if needed.
func NewFS(root string) (*FS, error) {
	if root == "" {
		root = "./archive"
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create archive dir: %w", err)
	}
	return &FS{root: root}, nil
}

// Root returns the archive directory.
func (f *FS) Root() string { return f.root }

// Archive writes data to root/name. The file appears atomically.
func (f *FS) Archive(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key, err := cleanName(name)
	if err != nil {
		return err
	}
	dst := filepath.Join(f.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create archive dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write archive: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync archive: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close archive: %w", err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return fmt.Errorf("move archive into place: %w", err)
	}
	return nil
}
