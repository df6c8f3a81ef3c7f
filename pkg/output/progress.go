package output

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/cheggaaa/pb/v3"

	"github.com/sdejongh/treesync/pkg/models"
)

const progressTemplate = `{{string . "prefix"}}{{counters . }} {{bar . }} {{percent . }} {{string . "copied"}}`

// ProgressFormatter draws a progress bar while the tree is walked and prints
// the human summary at the end
type ProgressFormatter struct {
	mu     sync.Mutex
	writer io.Writer
	bar    *pb.ProgressBar
	copied int
	dryRun bool
}

// NewProgressFormatter creates a new progress bar formatter
func NewProgressFormatter() *ProgressFormatter {
	return &ProgressFormatter{}
}

// WantsTotal asks the engine for a file count before the walk starts
func (f *ProgressFormatter) WantsTotal() bool {
	return true
}

// Start initializes the formatter
func (f *ProgressFormatter) Start(writer io.Writer, op *models.SyncOperation, totalFiles int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if writer == nil {
		writer = os.Stdout
	}
	f.writer = writer
	f.copied = 0
	f.dryRun = op.DryRun

	bar := pb.New(totalFiles)
	bar.SetTemplateString(progressTemplate)
	bar.SetWriter(writer)
	bar.SetRefreshRate(getUpdateInterval())
	if width, ok := TerminalWidth(writer); ok {
		bar.SetWidth(width)
	}
	bar.Set("prefix", "Files ")
	bar.Set("copied", f.copiedLabel())
	f.bar = bar.Start()

	return nil
}

// Progress advances the bar once per decided file
func (f *ProgressFormatter) Progress(update ProgressUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.bar == nil || update.Type != "file_complete" || update.Action == models.ActionMkdir {
		return nil
	}

	if update.Action == models.ActionCopy || update.Action == models.ActionUpdate {
		f.copied++
		f.bar.Set("copied", f.copiedLabel())
	}
	f.bar.Increment()

	return nil
}

func (f *ProgressFormatter) copiedLabel() string {
	if f.dryRun {
		return fmt.Sprintf("(would copy %d)", f.copied)
	}
	return fmt.Sprintf("(copied %d)", f.copied)
}

// Complete stops the bar and prints the summary
func (f *ProgressFormatter) Complete(report *models.SyncReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.finish()
	if f.writer == nil {
		f.writer = io.Discard
	}
	writeSummary(f.writer, report)
	return nil
}

// Error stops the bar so the error message is not drawn over
func (f *ProgressFormatter) Error(err error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.finish()
	if f.writer != nil {
		fmt.Fprintf(f.writer, "Sync aborted: %v\n", err)
	}
	return nil
}

func (f *ProgressFormatter) finish() {
	if f.bar != nil {
		f.bar.Finish()
		f.bar = nil
	}
}

// Name returns the formatter name
func (f *ProgressFormatter) Name() string {
	return "progress"
}

// getUpdateInterval returns the bar refresh interval
func getUpdateInterval() time.Duration {
	return 200 * time.Millisecond
}
