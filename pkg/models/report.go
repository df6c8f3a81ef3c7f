package models

import (
	"time"
)

// SyncReport represents the results of a sync operation
type SyncReport struct {
	// Operation details
	OperationID string
	SourcePath  string
	DestPath    string
	DryRun      bool

	// Timing
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration

	Stats Statistics

	// Operations lists every copy, update and directory creation.
	// Skipped files are only counted.
	Operations []FileOperation

	// Error is set when the run aborted
	Error string

	Status SyncStatus
}

// Statistics holds the counters of a tree walk.
// Every recursive call produces its own Statistics; callers sum them.
type Statistics struct {
	// TotalFiles counts files visited and not ignored
	TotalFiles int
	// CopiedFiles counts files actually written to the destination
	CopiedFiles int

	NewFiles     int // destination was absent
	UpdatedFiles int // content differed
	// Unchanged counts files skipped on size and modification time alone
	Unchanged int
	// ContentIdentical counts files skipped after hashing
	ContentIdentical int

	DirsScanned    int
	DirsCreated    int
	IgnoredEntries int

	BytesCopied int64
	BytesHashed int64
}

// Add returns the sum of s and other
func (s Statistics) Add(other Statistics) Statistics {
	return Statistics{
		TotalFiles:       s.TotalFiles + other.TotalFiles,
		CopiedFiles:      s.CopiedFiles + other.CopiedFiles,
		NewFiles:         s.NewFiles + other.NewFiles,
		UpdatedFiles:     s.UpdatedFiles + other.UpdatedFiles,
		Unchanged:        s.Unchanged + other.Unchanged,
		ContentIdentical: s.ContentIdentical + other.ContentIdentical,
		DirsScanned:      s.DirsScanned + other.DirsScanned,
		DirsCreated:      s.DirsCreated + other.DirsCreated,
		IgnoredEntries:   s.IgnoredEntries + other.IgnoredEntries,
		BytesCopied:      s.BytesCopied + other.BytesCopied,
		BytesHashed:      s.BytesHashed + other.BytesHashed,
	}
}

// SkippedFiles returns the number of visited files left untouched
func (s Statistics) SkippedFiles() int {
	return s.Unchanged + s.ContentIdentical
}

// SyncStatus represents the overall result
type SyncStatus string

const (
	// StatusSuccess indicates the whole tree was mirrored
	StatusSuccess SyncStatus = "success"
	// StatusFailed indicates the run aborted on an error
	StatusFailed SyncStatus = "failed"
	// StatusCancelled indicates the run was cancelled
	StatusCancelled SyncStatus = "cancelled"
)

// ExitCode returns the appropriate exit code for the sync status
func (s SyncStatus) ExitCode() int {
	switch s {
	case StatusSuccess:
		return 0
	case StatusFailed:
		return 1
	case StatusCancelled:
		return 3
	default:
		return 1
	}
}
