package output

import (
	"fmt"
	"io"

	"github.com/sdejongh/treesync/pkg/models"
)

// ProgressUpdate represents a progress notification during sync
type ProgressUpdate struct {
	Type        string // "file_complete"
	FilePath    string
	Action      models.Action
	BytesCopied int64
	CurrentFile int
	Error       error
}

// Formatter defines the interface for output formatting
// Implementations include human-readable, progress bar and JSON formatters
type Formatter interface {
	// Start initializes the formatter for a new sync operation.
	// totalFiles is 0 when no pre-scan was done.
	Start(writer io.Writer, op *models.SyncOperation, totalFiles int) error

	// Progress reports progress during sync
	Progress(update ProgressUpdate) error

	// Complete finalizes output and displays summary
	Complete(report *models.SyncReport) error

	// Error reports the error that aborted the sync
	Error(err error) error

	// Name returns the formatter name
	Name() string
}

// NewFormatter returns the formatter for an output format.
// progress selects the progress bar variant of the human format.
func NewFormatter(format string, progress bool) (Formatter, error) {
	switch format {
	case "human", "":
		if progress {
			return NewProgressFormatter(), nil
		}
		return NewHumanFormatter(), nil
	case "json":
		return NewJSONFormatter(), nil
	default:
		return nil, fmt.Errorf("unknown output format: %s (use: human, json)", format)
	}
}
