package sync

import (
	"context"
	"fmt"

	"github.com/sdejongh/treesync/pkg/storage"
)

// copyFile streams a source file to the destination, replacing any existing
// file, then stamps it with the source modification time and permissions so
// the next run takes the metadata fast path
func (w *Walker) copyFile(ctx context.Context, srcPath, dstPath string, info *storage.FileInfo) (int64, error) {
	reader, err := w.source.Read(ctx, srcPath)
	if err != nil {
		return 0, fmt.Errorf("failed to read source file: %w", err)
	}
	defer reader.Close()

	if err := w.dest.Write(ctx, dstPath, reader, info.Size, info); err != nil {
		return 0, fmt.Errorf("failed to write destination file: %w", err)
	}

	return info.Size, nil
}
