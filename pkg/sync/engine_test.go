package sync

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sdejongh/treesync/pkg/compare"
	"github.com/sdejongh/treesync/pkg/ignore"
	"github.com/sdejongh/treesync/pkg/logging"
	"github.com/sdejongh/treesync/pkg/models"
	"github.com/sdejongh/treesync/pkg/output"
	"github.com/sdejongh/treesync/pkg/storage"
)

func newTestEngine(t *testing.T, f *treeFixture, formatter output.Formatter, logger logging.Logger, dryRun bool, patterns ...string) *Engine {
	t.Helper()

	source, err := storage.NewLocal(f.src)
	if err != nil {
		t.Fatalf("NewLocal(source) error = %v", err)
	}
	dest, err := storage.NewLocal(f.dst)
	if err != nil {
		t.Fatalf("NewLocal(dest) error = %v", err)
	}
	matcher, err := ignore.New(patterns)
	if err != nil {
		t.Fatalf("ignore.New() error = %v", err)
	}
	hasher, err := compare.NewHasher(models.HashSHA256, compare.DefaultBufferSize)
	if err != nil {
		t.Fatalf("NewHasher() error = %v", err)
	}

	op := &models.SyncOperation{
		ID:            "test-operation",
		SourcePath:    f.src,
		DestPath:      f.dst,
		HashAlgorithm: models.HashSHA256,
		DryRun:        dryRun,
		BufferSize:    compare.DefaultBufferSize,
	}

	return NewEngine(source, dest, matcher, compare.NewChangeDetector(hasher), formatter, logger, op)
}

func TestEngine_Run(t *testing.T) {
	f := newTreeFixture(t)
	f.source("a.txt", "alpha")
	f.source("b.txt", "bravo")
	f.source("skip/c.txt", "charlie")

	var out, logs bytes.Buffer
	logger := logging.NewWriterLogger(&logs, logging.FormatText, logging.DebugLevel)

	engine := newTestEngine(t, f, output.NewHumanFormatter(), logger, false, `^skip$`)
	engine.SetOutput(&out)

	report, err := engine.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if report.Status != models.StatusSuccess {
		t.Errorf("Status = %q, want success", report.Status)
	}
	if report.OperationID != "test-operation" {
		t.Errorf("OperationID = %q", report.OperationID)
	}
	if report.Stats.TotalFiles != 2 || report.Stats.CopiedFiles != 2 {
		t.Errorf("copied %d/%d, want 2/2", report.Stats.CopiedFiles, report.Stats.TotalFiles)
	}
	// The two copies; creating the root is counted but not listed
	if len(report.Operations) != 2 {
		t.Errorf("Operations = %d, want 2", len(report.Operations))
	}
	if report.Stats.DirsCreated != 1 {
		t.Errorf("DirsCreated = %d, want 1", report.Stats.DirsCreated)
	}
	if strings.Contains(out.String(), "+ ./") {
		t.Errorf("the destination root should not be listed:\n%s", out.String())
	}
	if report.EndTime.Before(report.StartTime) {
		t.Error("EndTime should not precede StartTime")
	}

	if !strings.Contains(out.String(), "Copied 2/2 files") {
		t.Errorf("formatter output missing summary:\n%s", out.String())
	}
	if !strings.Contains(logs.String(), "operation_id=test-operation") {
		t.Errorf("log lines should carry the operation id:\n%s", logs.String())
	}
	if !strings.Contains(logs.String(), "Sync completed") {
		t.Errorf("completion should be logged:\n%s", logs.String())
	}
}

func TestEngine_RunTwice(t *testing.T) {
	f := newTreeFixture(t)
	f.source("a.txt", "alpha")

	if _, err := newTestEngine(t, f, nil, nil, false).Run(context.Background()); err != nil {
		t.Fatalf("first Run() error = %v", err)
	}

	report, err := newTestEngine(t, f, nil, nil, false).Run(context.Background())
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	if report.Stats.CopiedFiles != 0 || len(report.Operations) != 0 {
		t.Errorf("second run changed %d files, want 0", report.Stats.CopiedFiles)
	}
}

func TestEngine_ProgressFormatterCountsFirst(t *testing.T) {
	f := newTreeFixture(t)
	f.source("a.txt", "alpha")
	f.source("sub/b.txt", "bravo")

	var out bytes.Buffer
	engine := newTestEngine(t, f, output.NewProgressFormatter(), nil, false)
	engine.SetOutput(&out)

	report, err := engine.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.Stats.CopiedFiles != 2 {
		t.Errorf("CopiedFiles = %d, want 2", report.Stats.CopiedFiles)
	}
	if !strings.Contains(out.String(), "Copied 2/2 files") {
		t.Errorf("summary missing:\n%s", out.String())
	}
}

func TestEngine_DryRun(t *testing.T) {
	f := newTreeFixture(t)
	f.source("a.txt", "alpha")

	var out bytes.Buffer
	engine := newTestEngine(t, f, output.NewHumanFormatter(), nil, true)
	engine.SetOutput(&out)

	report, err := engine.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !report.DryRun {
		t.Error("report should be flagged as dry run")
	}
	if _, err := os.Stat(f.dst); !os.IsNotExist(err) {
		t.Error("dry run must not create the destination")
	}
	if !strings.Contains(out.String(), "Would copy 1/1 files") {
		t.Errorf("dry-run summary missing:\n%s", out.String())
	}
}

func TestEngine_Failure(t *testing.T) {
	f := newTreeFixture(t)
	f.source("sub/a.txt", "a")
	writeTreeFile(t, f.dst, "sub", "blocking file", baseTime)

	var out bytes.Buffer
	engine := newTestEngine(t, f, output.NewHumanFormatter(), nil, false)
	engine.SetOutput(&out)

	report, err := engine.Run(context.Background())
	if err == nil {
		t.Fatal("Run() should fail")
	}

	var perr *PathError
	if !errors.As(err, &perr) {
		t.Errorf("error = %v, want *PathError", err)
	}
	if report == nil {
		t.Fatal("report should be returned on failure")
	}
	if report.Status != models.StatusFailed {
		t.Errorf("Status = %q, want failed", report.Status)
	}
	if report.Error == "" {
		t.Error("report should carry the error message")
	}
	if !strings.Contains(out.String(), "Sync aborted") {
		t.Errorf("formatter should report the failure:\n%s", out.String())
	}
}

func TestEngine_Cancelled(t *testing.T) {
	f := newTreeFixture(t)
	f.source("a.txt", "a")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := newTestEngine(t, f, nil, nil, false).Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if report.Status != models.StatusCancelled {
		t.Errorf("Status = %q, want cancelled", report.Status)
	}
	if report.Status.ExitCode() != 3 {
		t.Errorf("ExitCode() = %d, want 3", report.Status.ExitCode())
	}
}

func TestPathError(t *testing.T) {
	cause := os.ErrNotExist
	err := &PathError{Op: "list directory", Path: filepath.ToSlash("a/b"), Err: cause}

	if err.Error() != "failed to list directory a/b: file does not exist" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Error("PathError should unwrap to its cause")
	}
	if displayPath("") != "." {
		t.Errorf("displayPath(\"\") = %q, want .", displayPath(""))
	}
}
