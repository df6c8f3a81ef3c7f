package output

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sdejongh/treesync/pkg/models"
)

// HumanFormatter formats output in human-readable format
type HumanFormatter struct {
	writer     io.Writer
	totalFiles int
	dryRun     bool
}

// NewHumanFormatter creates a new human-readable formatter
func NewHumanFormatter() *HumanFormatter {
	return &HumanFormatter{}
}

// Start initializes the formatter
func (f *HumanFormatter) Start(writer io.Writer, op *models.SyncOperation, totalFiles int) error {
	if writer == nil {
		writer = os.Stdout
	}
	f.writer = writer
	f.totalFiles = totalFiles
	f.dryRun = op.DryRun

	mode := ""
	if op.DryRun {
		mode = " (dry run)"
	}
	fmt.Fprintf(writer, "Syncing %s -> %s%s\n", op.SourcePath, op.DestPath, mode)

	return nil
}

// Progress prints every change applied to the destination
func (f *HumanFormatter) Progress(update ProgressUpdate) error {
	if f.writer == nil || update.Type != "file_complete" {
		return nil
	}

	switch update.Action {
	case models.ActionCopy:
		fmt.Fprintf(f.writer, "  + %s (%s)\n", update.FilePath, formatBytes(update.BytesCopied))
	case models.ActionUpdate:
		fmt.Fprintf(f.writer, "  ~ %s (%s)\n", update.FilePath, formatBytes(update.BytesCopied))
	case models.ActionMkdir:
		fmt.Fprintf(f.writer, "  + %s/\n", update.FilePath)
	}

	return nil
}

// Complete finalizes output and displays summary
func (f *HumanFormatter) Complete(report *models.SyncReport) error {
	if f.writer == nil {
		f.writer = io.Discard
	}
	writeSummary(f.writer, report)
	return nil
}

// writeSummary prints the end-of-run summary shared by the human and
// progress formatters
func writeSummary(w io.Writer, report *models.SyncReport) {
	s := report.Stats

	verb := "Copied"
	if report.DryRun {
		verb = "Would copy"
	}

	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "%s %d/%d files\n", verb, s.CopiedFiles, s.TotalFiles)
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "Summary:\n")
	fmt.Fprintf(w, "  Files:\n")
	fmt.Fprintf(w, "    New:               %d\n", s.NewFiles)
	fmt.Fprintf(w, "    Updated:           %d\n", s.UpdatedFiles)
	fmt.Fprintf(w, "    Unchanged:         %d\n", s.Unchanged)
	fmt.Fprintf(w, "    Identical content: %d\n", s.ContentIdentical)
	fmt.Fprintf(w, "  Directories:\n")
	fmt.Fprintf(w, "    Scanned:           %d\n", s.DirsScanned)
	fmt.Fprintf(w, "    Created:           %d\n", s.DirsCreated)
	fmt.Fprintf(w, "  Ignored entries:     %d\n", s.IgnoredEntries)
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "  Transfer:\n")
	fmt.Fprintf(w, "    Data:           %s\n", formatBytes(s.BytesCopied))
	fmt.Fprintf(w, "    Hashed:         %s\n", formatBytes(s.BytesHashed))

	if report.Duration.Seconds() > 0 && s.BytesCopied > 0 {
		avgSpeed := float64(s.BytesCopied) / report.Duration.Seconds()
		fmt.Fprintf(w, "    Average speed:  %s/s\n", formatBytes(int64(avgSpeed)))
	}

	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "Completed in %s\n", formatDuration(report.Duration))
	fmt.Fprintf(w, "Status: %s\n", report.Status)
}

// Error reports an error
func (f *HumanFormatter) Error(err error) error {
	if f.writer != nil {
		fmt.Fprintf(f.writer, "Sync aborted: %v\n", err)
	}
	return nil
}

// Name returns the formatter name
func (f *HumanFormatter) Name() string {
	return "human"
}

// formatBytes formats bytes in human-readable format
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// formatDuration formats duration in human-readable format
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
