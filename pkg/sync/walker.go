package sync

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/sdejongh/treesync/pkg/compare"
	"github.com/sdejongh/treesync/pkg/ignore"
	"github.com/sdejongh/treesync/pkg/models"
	"github.com/sdejongh/treesync/pkg/storage"
)

// Observer receives every directory creation and every file decision as
// the walk makes them
type Observer func(op models.FileOperation)

// Walker mirrors a source tree into a destination tree.
//
// The walk is depth-first and single-threaded. Source and destination are
// visited in lock-step: every non-ignored source directory gets a destination
// counterpart, every non-ignored source file is compared with its destination
// and copied only when the destination is absent or its content differs.
// Destination entries with no source counterpart are never touched.
type Walker struct {
	source     storage.Backend
	dest       storage.Backend
	matcher    *ignore.Matcher
	comparator compare.Comparator
	dryRun     bool
	observer   Observer
}

// WalkerOption configures a Walker
type WalkerOption func(*Walker)

// WithDryRun makes the walker decide without writing anything
func WithDryRun(dryRun bool) WalkerOption {
	return func(w *Walker) {
		w.dryRun = dryRun
	}
}

// WithObserver registers a callback for walk events
func WithObserver(observer Observer) WalkerOption {
	return func(w *Walker) {
		w.observer = observer
	}
}

// NewWalker creates a walker. A nil matcher ignores nothing.
func NewWalker(source, dest storage.Backend, matcher *ignore.Matcher, comparator compare.Comparator, opts ...WalkerOption) *Walker {
	w := &Walker{
		source:     source,
		dest:       dest,
		matcher:    matcher,
		comparator: comparator,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// SyncTree mirrors the source directory src into the destination directory
// dst and returns the counters of this subtree. Paths are relative to the
// backend roots; "" is the root.
//
// The first error aborts the walk. The returned statistics still hold what
// was done before the failure.
func (w *Walker) SyncTree(ctx context.Context, src, dst string) (models.Statistics, error) {
	var stats models.Statistics

	if err := ctx.Err(); err != nil {
		return stats, err
	}

	created, err := w.ensureDir(ctx, dst)
	if err != nil {
		return stats, err
	}
	if created {
		stats.DirsCreated++
	}

	entries, err := w.source.ReadDir(ctx, src)
	if err != nil {
		return stats, &PathError{Op: "list directory", Path: displayPath(src), Err: err}
	}
	stats.DirsScanned++

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		if w.matcher.IsIgnored(entry.Name) {
			stats.IgnoredEntries++
			continue
		}

		childSrc := path.Join(src, entry.Name)
		childDst := path.Join(dst, entry.Name)

		var sub models.Statistics
		if entry.IsDir {
			sub, err = w.SyncTree(ctx, childSrc, childDst)
		} else {
			sub, err = w.syncFile(ctx, childSrc, childDst)
		}
		stats = stats.Add(sub)
		if err != nil {
			return stats, err
		}
	}

	return stats, nil
}

// ensureDir creates dst and its missing ancestors. It reports whether the
// directory was (or, in dry-run mode, would have been) created.
func (w *Walker) ensureDir(ctx context.Context, dst string) (bool, error) {
	exists, err := w.dest.Exists(ctx, dst)
	if err != nil {
		return false, &PathError{Op: "check directory", Path: displayPath(dst), Err: err}
	}

	if exists {
		info, err := w.dest.Stat(ctx, dst)
		if err != nil {
			return false, &PathError{Op: "stat directory", Path: displayPath(dst), Err: err}
		}
		if !info.IsDir {
			return false, &PathError{Op: "mirror directory", Path: displayPath(dst), Err: fmt.Errorf("destination exists and is not a directory")}
		}
		return false, nil
	}

	if !w.dryRun {
		if err := w.dest.MkdirAll(ctx, dst); err != nil {
			return false, &PathError{Op: "create directory", Path: displayPath(dst), Err: err}
		}
	}

	// The root is reported by the formatter header, not as an event
	if dst != "" {
		w.emit(models.FileOperation{
			RelativePath: dst,
			Action:       models.ActionMkdir,
		})
	}
	return true, nil
}

// syncFile runs the copy decision for one file pair and copies when needed
func (w *Walker) syncFile(ctx context.Context, srcPath, dstPath string) (models.Statistics, error) {
	stats := models.Statistics{TotalFiles: 1}

	decision, err := w.comparator.Compare(ctx, w.source, w.dest, srcPath, dstPath)
	if err != nil {
		return stats, &PathError{Op: "compare", Path: srcPath, Err: err}
	}
	stats.BytesHashed = decision.BytesHashed

	op := models.FileOperation{
		RelativePath: srcPath,
		Outcome:      string(decision.Outcome),
		Reason:       decision.Reason,
	}

	switch decision.Outcome {
	case compare.DestAbsent:
		op.Action = models.ActionCopy
	case compare.ContentDiffers:
		op.Action = models.ActionUpdate
	case compare.MetadataIdentical:
		op.Action = models.ActionSkip
		stats.Unchanged++
	case compare.ContentIdentical:
		op.Action = models.ActionSkip
		stats.ContentIdentical++
	}

	if decision.Outcome.ShouldCopy() {
		start := time.Now()
		copied := decision.SourceInfo.Size
		if !w.dryRun {
			copied, err = w.copyFile(ctx, srcPath, dstPath, decision.SourceInfo)
			if err != nil {
				return stats, &PathError{Op: "copy", Path: srcPath, Err: err}
			}
		}
		op.BytesCopied = copied
		op.Duration = time.Since(start)

		stats.CopiedFiles++
		stats.BytesCopied = copied
		if op.Action == models.ActionCopy {
			stats.NewFiles++
		} else {
			stats.UpdatedFiles++
		}
	}

	w.emit(op)
	return stats, nil
}

func (w *Walker) emit(op models.FileOperation) {
	if w.observer != nil {
		w.observer(op)
	}
}

// CountFiles returns the number of non-ignored files under src, so a
// progress display can show a total before the walk starts
func (w *Walker) CountFiles(ctx context.Context, src string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	entries, err := w.source.ReadDir(ctx, src)
	if err != nil {
		return 0, &PathError{Op: "list directory", Path: displayPath(src), Err: err}
	}

	count := 0
	for _, entry := range entries {
		if w.matcher.IsIgnored(entry.Name) {
			continue
		}
		if !entry.IsDir {
			count++
			continue
		}
		n, err := w.CountFiles(ctx, path.Join(src, entry.Name))
		if err != nil {
			return count, err
		}
		count += n
	}

	return count, nil
}
