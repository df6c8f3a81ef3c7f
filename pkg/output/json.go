package output

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/sdejongh/treesync/pkg/models"
)

// JSONFormatter formats output as JSON for automation and scripting.
// Nothing is written until the run ends; the output is a single document.
type JSONFormatter struct {
	writer    io.Writer
	operation *models.SyncOperation
}

// JSONReportData represents the final report data
type JSONReportData struct {
	OperationID string              `json:"operation_id"`
	Source      string              `json:"source"`
	Dest        string              `json:"dest"`
	DryRun      bool                `json:"dry_run"`
	Status      string              `json:"status"`
	Duration    string              `json:"duration"`
	DurationMs  int64               `json:"duration_ms"`
	TotalFiles  int                 `json:"total_files"`
	CopiedFiles int                 `json:"copied_files"`
	Stats       JSONStatsData       `json:"stats"`
	Operations  []JSONOperationData `json:"operations,omitempty"`
	Error       string              `json:"error,omitempty"`
}

// JSONStatsData represents statistics in JSON format
type JSONStatsData struct {
	NewFiles         int   `json:"new_files"`
	UpdatedFiles     int   `json:"updated_files"`
	Unchanged        int   `json:"unchanged"`
	ContentIdentical int   `json:"content_identical"`
	DirsScanned      int   `json:"dirs_scanned"`
	DirsCreated      int   `json:"dirs_created"`
	IgnoredEntries   int   `json:"ignored_entries"`
	BytesCopied      int64 `json:"bytes_copied"`
	BytesHashed      int64 `json:"bytes_hashed"`
}

// JSONOperationData represents one change applied to the destination
type JSONOperationData struct {
	Path        string `json:"path"`
	Action      string `json:"action"`
	Outcome     string `json:"outcome,omitempty"`
	Reason      string `json:"reason,omitempty"`
	BytesCopied int64  `json:"bytes_copied,omitempty"`
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// Start initializes the formatter
func (f *JSONFormatter) Start(writer io.Writer, op *models.SyncOperation, totalFiles int) error {
	if writer == nil {
		writer = os.Stdout
	}
	f.writer = writer
	f.operation = op
	return nil
}

// Progress is a no-op to keep the output a single parseable document
func (f *JSONFormatter) Progress(update ProgressUpdate) error {
	return nil
}

// Complete writes the report as JSON
func (f *JSONFormatter) Complete(report *models.SyncReport) error {
	if f.writer == nil {
		f.writer = io.Discard
	}

	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(NewJSONReport(report))
}

// NewJSONReport converts a report to its JSON representation
func NewJSONReport(report *models.SyncReport) JSONReportData {
	s := report.Stats

	data := JSONReportData{
		OperationID: report.OperationID,
		Source:      report.SourcePath,
		Dest:        report.DestPath,
		DryRun:      report.DryRun,
		Status:      string(report.Status),
		Duration:    report.Duration.Round(time.Millisecond).String(),
		DurationMs:  report.Duration.Milliseconds(),
		TotalFiles:  s.TotalFiles,
		CopiedFiles: s.CopiedFiles,
		Stats: JSONStatsData{
			NewFiles:         s.NewFiles,
			UpdatedFiles:     s.UpdatedFiles,
			Unchanged:        s.Unchanged,
			ContentIdentical: s.ContentIdentical,
			DirsScanned:      s.DirsScanned,
			DirsCreated:      s.DirsCreated,
			IgnoredEntries:   s.IgnoredEntries,
			BytesCopied:      s.BytesCopied,
			BytesHashed:      s.BytesHashed,
		},
		Error: report.Error,
	}

	for _, op := range report.Operations {
		data.Operations = append(data.Operations, JSONOperationData{
			Path:        op.RelativePath,
			Action:      string(op.Action),
			Outcome:     op.Outcome,
			Reason:      op.Reason,
			BytesCopied: op.BytesCopied,
		})
	}

	return data
}

// Error writes a minimal failure document
func (f *JSONFormatter) Error(err error) error {
	if f.writer == nil {
		return nil
	}

	doc := map[string]string{
		"status": string(models.StatusFailed),
		"error":  err.Error(),
	}
	if f.operation != nil {
		doc["operation_id"] = f.operation.ID
	}

	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(doc)
}

// Name returns the formatter name
func (f *JSONFormatter) Name() string {
	return "json"
}
