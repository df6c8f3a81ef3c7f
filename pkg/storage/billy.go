package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
)

// Billy is a storage backend over any go-billy filesystem
type Billy struct {
	fs   billy.Filesystem
	root string
}

// NewBilly wraps an existing billy filesystem
func NewBilly(fsys billy.Filesystem) *Billy {
	return &Billy{fs: fsys, root: fsys.Root()}
}

// NewBillyOS creates a billy backend rooted at a directory on disk
func NewBillyOS(root string) *Billy {
	return NewBilly(osfs.New(root))
}

// NewBillyMemory creates an in-memory billy backend
func NewBillyMemory() *Billy {
	return NewBilly(memfs.New())
}

func (b *Billy) clean(p string) string {
	p = path.Clean("/" + filepath.ToSlash(p))
	if p == "/" {
		return "."
	}
	return p[1:]
}

// ReadDir returns the immediate entries of a directory. Symlinks are
// stat'ed through, as in Local.
func (b *Billy) ReadDir(ctx context.Context, dir string) ([]FileInfo, error) {
	dir = b.clean(dir)

	list, err := b.fs.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	files := make([]FileInfo, 0, len(list))
	for _, info := range list {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rel := b.fs.Join(dir, info.Name())
		if dir == "." {
			rel = info.Name()
		}

		if info.Mode()&os.ModeSymlink != 0 {
			info, err = b.fs.Stat(rel)
			if err != nil {
				return nil, fmt.Errorf("failed to stat entry: %w", err)
			}
		}

		files = append(files, FileInfo{
			Name:         info.Name(),
			Path:         b.fs.Join(b.root, rel),
			Size:         info.Size(),
			ModTime:      info.ModTime(),
			IsDir:        info.IsDir(),
			Permissions:  uint32(info.Mode().Perm()),
			RelativePath: rel,
		})
	}

	return files, nil
}

// Read opens a file for reading
func (b *Billy) Read(ctx context.Context, p string) (io.ReadCloser, error) {
	f, err := b.fs.Open(b.clean(p))
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return f, nil
}

// Write creates or overwrites a file. Metadata is applied only when the
// filesystem implements billy.Change.
func (b *Billy) Write(ctx context.Context, p string, reader io.Reader, size int64, metadata *FileInfo) error {
	p = b.clean(p)

	if err := b.fs.MkdirAll(path.Dir(p), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	f, err := b.fs.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	written, err := io.Copy(f, reader)
	if err != nil {
		f.Close()
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}

	if written != size {
		return fmt.Errorf("incomplete write: expected %d bytes, wrote %d", size, written)
	}

	change, ok := b.fs.(billy.Change)
	if metadata == nil || !ok {
		return nil
	}

	if metadata.Permissions != 0 {
		if err := change.Chmod(p, os.FileMode(metadata.Permissions)); err != nil {
			return fmt.Errorf("failed to set permissions: %w", err)
		}
	}
	if !metadata.ModTime.IsZero() {
		if err := change.Chtimes(p, metadata.ModTime, metadata.ModTime); err != nil {
			return fmt.Errorf("failed to set modification time: %w", err)
		}
	}

	return nil
}

// Exists checks if a file or directory exists
func (b *Billy) Exists(ctx context.Context, p string) (bool, error) {
	_, err := b.fs.Stat(b.clean(p))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("failed to check existence: %w", err)
	}
}

// Stat returns file metadata
func (b *Billy) Stat(ctx context.Context, p string) (*FileInfo, error) {
	p = b.clean(p)

	info, err := b.fs.Stat(p)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	return &FileInfo{
		Name:         info.Name(),
		Path:         b.fs.Join(b.root, p),
		Size:         info.Size(),
		ModTime:      info.ModTime(),
		IsDir:        info.IsDir(),
		Permissions:  uint32(info.Mode().Perm()),
		RelativePath: p,
	}, nil
}

// MkdirAll creates a directory and all necessary parents
func (b *Billy) MkdirAll(ctx context.Context, p string) error {
	if err := b.fs.MkdirAll(b.clean(p), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return nil
}

// Root returns the filesystem root
func (b *Billy) Root() string {
	return b.root
}

// Close releases resources (no-op for billy filesystems)
func (b *Billy) Close() error {
	return nil
}
