package compare

import (
	"context"
	"fmt"

	"github.com/sdejongh/treesync/pkg/storage"
)

// ChangeDetector performs multi-stage comparison
// Stage 1: destination existence
// Stage 2: size and modification time (fast path, no I/O beyond stat)
// Stage 3: content hash of both files, only when stage 2 is inconclusive
type ChangeDetector struct {
	hasher *Hasher
}

// NewChangeDetector creates a detector that hashes with the given hasher
func NewChangeDetector(hasher *Hasher) *ChangeDetector {
	return &ChangeDetector{hasher: hasher}
}

// Compare decides whether sourcePath must be copied over destPath
func (c *ChangeDetector) Compare(ctx context.Context, source, dest storage.Backend, sourcePath, destPath string) (*Decision, error) {
	sourceInfo, err := source.Stat(ctx, sourcePath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat source file: %w", err)
	}
	if sourceInfo.IsDir {
		return nil, fmt.Errorf("source %s is a directory, not a file", sourcePath)
	}

	d := &Decision{
		SourcePath: sourcePath,
		DestPath:   destPath,
		SourceInfo: sourceInfo,
	}

	destExists, err := dest.Exists(ctx, destPath)
	if err != nil {
		return nil, fmt.Errorf("failed to check destination existence: %w", err)
	}
	if !destExists {
		d.Outcome = DestAbsent
		d.Reason = "file exists only in source"
		return d, nil
	}

	destInfo, err := dest.Stat(ctx, destPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat destination file: %w", err)
	}
	if destInfo.IsDir {
		return nil, fmt.Errorf("destination %s is a directory, source is a file", destPath)
	}
	d.DestInfo = destInfo

	if sourceInfo.Size == destInfo.Size && sourceInfo.ModTime.Equal(destInfo.ModTime) {
		d.Outcome = MetadataIdentical
		d.Reason = "size and modification time match"
		return d, nil
	}

	// Hashed one after the other; the walk never runs I/O concurrently
	sourceHash, sourceRead, err := c.hasher.Sum(ctx, source, sourcePath)
	if err != nil {
		return nil, fmt.Errorf("failed to compute source hash: %w", err)
	}
	destHash, destRead, err := c.hasher.Sum(ctx, dest, destPath)
	if err != nil {
		return nil, fmt.Errorf("failed to compute destination hash: %w", err)
	}

	d.SourceHash = sourceHash
	d.DestHash = destHash
	d.BytesHashed = sourceRead + destRead

	if sourceHash != destHash {
		d.Outcome = ContentDiffers
		d.Reason = metadataReason(sourceInfo, destInfo) + ", file hashes differ"
		return d, nil
	}

	d.Outcome = ContentIdentical
	d.Reason = metadataReason(sourceInfo, destInfo) + ", file hashes match"
	return d, nil
}

func metadataReason(src, dst *storage.FileInfo) string {
	if src.Size != dst.Size {
		return fmt.Sprintf("file sizes differ (source: %d, dest: %d)", src.Size, dst.Size)
	}
	return fmt.Sprintf("modification times differ (source: %s, dest: %s)",
		src.ModTime.Format("2006-01-02 15:04:05"), dst.ModTime.Format("2006-01-02 15:04:05"))
}

// Name returns the comparator name
func (c *ChangeDetector) Name() string {
	return "metadata+" + string(c.hasher.Algorithm())
}
