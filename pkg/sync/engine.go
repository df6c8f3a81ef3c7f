package sync

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/sdejongh/treesync/pkg/compare"
	"github.com/sdejongh/treesync/pkg/ignore"
	"github.com/sdejongh/treesync/pkg/logging"
	"github.com/sdejongh/treesync/pkg/models"
	"github.com/sdejongh/treesync/pkg/output"
	"github.com/sdejongh/treesync/pkg/storage"
)

// Engine orchestrates one sync operation: it runs the walker over the whole
// tree and turns its events into formatter output, log lines and a report
type Engine struct {
	source     storage.Backend
	dest       storage.Backend
	matcher    *ignore.Matcher
	comparator compare.Comparator
	formatter  output.Formatter
	logger     logging.Logger
	operation  *models.SyncOperation
	out        io.Writer
}

// NewEngine creates a new sync engine. formatter may be nil.
func NewEngine(
	source, dest storage.Backend,
	matcher *ignore.Matcher,
	comparator compare.Comparator,
	formatter output.Formatter,
	logger logging.Logger,
	operation *models.SyncOperation,
) *Engine {
	return &Engine{
		source:     source,
		dest:       dest,
		matcher:    matcher,
		comparator: comparator,
		formatter:  formatter,
		logger:     logging.OrNull(logger),
		operation:  operation,
	}
}

// SetOutput sets the writer handed to the formatter (stdout when unset)
func (e *Engine) SetOutput(w io.Writer) {
	e.out = w
}

// Run executes the sync operation.
// On failure the partially filled report is returned with the error.
func (e *Engine) Run(ctx context.Context) (*models.SyncReport, error) {
	startTime := time.Now()
	e.operation.StartedAt = &startTime

	report := &models.SyncReport{
		OperationID: e.operation.ID,
		SourcePath:  e.operation.SourcePath,
		DestPath:    e.operation.DestPath,
		DryRun:      e.operation.DryRun,
		StartTime:   startTime,
		Status:      models.StatusSuccess,
	}

	logger := e.logger.WithFields(logging.Fields{"operation_id": e.operation.ID})
	logger.Info(ctx, "Starting sync operation", logging.Fields{
		"source":     e.operation.SourcePath,
		"dest":       e.operation.DestPath,
		"dry_run":    e.operation.DryRun,
		"comparator": e.comparator.Name(),
		"patterns":   e.matcher.Len(),
	})

	processed := 0
	observer := func(op models.FileOperation) {
		if op.Action != models.ActionMkdir {
			processed++
		}
		if op.Action.Performed() {
			report.Operations = append(report.Operations, op)
		}

		fields := logging.Fields{"path": op.RelativePath, "action": string(op.Action)}
		if op.Outcome != "" {
			fields["outcome"] = op.Outcome
		}
		if op.Action.Performed() {
			logger.Info(ctx, "Applied change", fields)
		} else {
			logger.Debug(ctx, "Unchanged", fields)
		}

		if e.formatter != nil {
			e.formatter.Progress(output.ProgressUpdate{
				Type:        "file_complete",
				FilePath:    op.RelativePath,
				Action:      op.Action,
				BytesCopied: op.BytesCopied,
				CurrentFile: processed,
			})
		}
	}

	walker := NewWalker(e.source, e.dest, e.matcher, e.comparator,
		WithDryRun(e.operation.DryRun),
		WithObserver(observer),
	)

	totalFiles := 0
	if e.formatter != nil {
		// Only bar-style formatters need a total up front
		if tf, ok := e.formatter.(interface{ WantsTotal() bool }); ok && tf.WantsTotal() {
			n, err := walker.CountFiles(ctx, "")
			if err != nil {
				return e.fail(ctx, logger, report, err)
			}
			totalFiles = n
		}
		if err := e.formatter.Start(e.out, e.operation, totalFiles); err != nil {
			return e.fail(ctx, logger, report, err)
		}
	}

	stats, err := walker.SyncTree(ctx, "", "")
	report.Stats = stats
	if err != nil {
		return e.fail(ctx, logger, report, err)
	}

	e.finish(report)

	if e.formatter != nil {
		e.formatter.Complete(report)
	}

	logger.Info(ctx, "Sync completed", logging.Fields{
		"duration":          report.Duration.String(),
		"status":            string(report.Status),
		"total_files":       report.Stats.TotalFiles,
		"copied_files":      report.Stats.CopiedFiles,
		"unchanged":         report.Stats.SkippedFiles(),
		"dirs_created":      report.Stats.DirsCreated,
		"bytes_transferred": report.Stats.BytesCopied,
	})

	return report, nil
}

func (e *Engine) fail(ctx context.Context, logger logging.Logger, report *models.SyncReport, err error) (*models.SyncReport, error) {
	e.finish(report)

	report.Status = models.StatusFailed
	if errors.Is(err, context.Canceled) {
		report.Status = models.StatusCancelled
	}
	report.Error = err.Error()

	logger.Error(ctx, "Sync aborted", err, logging.Fields{
		"status":       string(report.Status),
		"total_files":  report.Stats.TotalFiles,
		"copied_files": report.Stats.CopiedFiles,
	})

	if e.formatter != nil {
		e.formatter.Error(err)
	}

	return report, err
}

func (e *Engine) finish(report *models.SyncReport) {
	report.EndTime = time.Now()
	report.Duration = report.EndTime.Sub(report.StartTime)
	completed := report.EndTime
	e.operation.CompletedAt = &completed
}
