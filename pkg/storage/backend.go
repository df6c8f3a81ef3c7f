package storage

import (
	"context"
	"io"
	"time"
)

// FileInfo represents metadata about a file
type FileInfo struct {
	// Name is the bare name of the entry (final path component)
	Name         string
	Path         string
	Size         int64
	ModTime      time.Time
	IsDir        bool
	Permissions  uint32
	RelativePath string
}

// Backend defines the interface for storage operations.
// All paths are relative to the backend root; "" is the root itself.
type Backend interface {
	// ReadDir returns the immediate entries of a directory.
	// Entry order is whatever the underlying filesystem reports.
	ReadDir(ctx context.Context, path string) ([]FileInfo, error)

	// Read opens a file for reading
	Read(ctx context.Context, path string) (io.ReadCloser, error)

	// Write creates or overwrites a file with the given content.
	// If metadata is provided, the modification time and permissions are
	// applied after the content is written.
	Write(ctx context.Context, path string, reader io.Reader, size int64, metadata *FileInfo) error

	// Exists checks if a file or directory exists
	Exists(ctx context.Context, path string) (bool, error)

	// Stat returns file metadata
	Stat(ctx context.Context, path string) (*FileInfo, error)

	// MkdirAll creates a directory and all necessary parents
	MkdirAll(ctx context.Context, path string) error

	// Root describes where the backend is rooted, for messages and logs
	Root() string

	// Close releases any resources held by the backend
	Close() error
}
