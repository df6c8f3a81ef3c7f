package compare

import (
	"context"

	"github.com/sdejongh/treesync/pkg/storage"
)

// Outcome is the result of deciding whether one file must be copied
type Outcome string

const (
	// DestAbsent indicates the destination file does not exist
	DestAbsent Outcome = "dest_absent"
	// MetadataIdentical indicates size and modification time match; no hash was computed
	MetadataIdentical Outcome = "metadata_identical"
	// ContentIdentical indicates metadata differs but the content hashes match
	ContentIdentical Outcome = "content_identical"
	// ContentDiffers indicates the content hashes differ
	ContentDiffers Outcome = "content_differs"
)

// ShouldCopy reports whether the outcome requires a copy
func (o Outcome) ShouldCopy() bool {
	return o == DestAbsent || o == ContentDiffers
}

// Decision holds the result of comparing a source file with its destination
type Decision struct {
	SourcePath string
	DestPath   string
	Outcome    Outcome
	Reason     string

	SourceInfo *storage.FileInfo
	// DestInfo is nil when the destination is absent
	DestInfo *storage.FileInfo

	// Hashes are only set when the metadata check was inconclusive
	SourceHash string
	DestHash   string
	// BytesHashed is the total read from both sides while hashing
	BytesHashed int64
}

// Comparator decides whether a source file must be copied over its destination
type Comparator interface {
	// Compare compares two files and returns the decision.
	// Any filesystem error is returned; it is never folded into an outcome.
	Compare(ctx context.Context, source, dest storage.Backend, sourcePath, destPath string) (*Decision, error)

	// Name returns the name of the comparison method
	Name() string
}
