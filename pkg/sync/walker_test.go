package sync

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/sdejongh/treesync/pkg/compare"
	"github.com/sdejongh/treesync/pkg/ignore"
	"github.com/sdejongh/treesync/pkg/models"
	"github.com/sdejongh/treesync/pkg/storage"
)

var baseTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// treeFixture holds a source and destination directory under one temp dir
type treeFixture struct {
	t   *testing.T
	src string
	dst string
}

func newTreeFixture(t *testing.T) *treeFixture {
	t.Helper()
	root := t.TempDir()
	src := filepath.Join(root, "src")
	if err := os.MkdirAll(src, 0755); err != nil {
		t.Fatalf("Failed to create source dir: %v", err)
	}
	return &treeFixture{t: t, src: src, dst: filepath.Join(root, "dst")}
}

func writeTreeFile(t *testing.T, root, rel, content string, modTime time.Time) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		t.Fatalf("Failed to create dir: %v", err)
	}
	if err := os.WriteFile(p, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}
	if err := os.Chtimes(p, modTime, modTime); err != nil {
		t.Fatalf("Failed to set times: %v", err)
	}
}

func readTreeFile(t *testing.T, root, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		t.Fatalf("Failed to read %s: %v", rel, err)
	}
	return string(data)
}

func (f *treeFixture) source(rel, content string) {
	f.t.Helper()
	writeTreeFile(f.t, f.src, rel, content, baseTime)
}

func (f *treeFixture) walker(patterns []string, opts ...WalkerOption) *Walker {
	f.t.Helper()

	source, err := storage.NewLocal(f.src)
	if err != nil {
		f.t.Fatalf("NewLocal(source) error = %v", err)
	}
	dest, err := storage.NewLocal(f.dst)
	if err != nil {
		f.t.Fatalf("NewLocal(dest) error = %v", err)
	}

	return newTestWalker(f.t, source, dest, patterns, opts...)
}

func newTestWalker(t *testing.T, source, dest storage.Backend, patterns []string, opts ...WalkerOption) *Walker {
	t.Helper()

	matcher, err := ignore.New(patterns)
	if err != nil {
		t.Fatalf("ignore.New() error = %v", err)
	}
	hasher, err := compare.NewHasher(models.HashSHA1, compare.MinBufferSize)
	if err != nil {
		t.Fatalf("NewHasher() error = %v", err)
	}

	return NewWalker(source, dest, matcher, compare.NewChangeDetector(hasher), opts...)
}

func (f *treeFixture) sync(patterns ...string) models.Statistics {
	f.t.Helper()
	stats, err := f.walker(patterns).SyncTree(context.Background(), "", "")
	if err != nil {
		f.t.Fatalf("SyncTree() error = %v", err)
	}
	return stats
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestSyncTree_IgnoreScenario(t *testing.T) {
	f := newTreeFixture(t)
	f.source("a.txt", "alpha")
	f.source("b.txt", "bravo")
	f.source("skip/c.txt", "charlie")

	stats := f.sync(`^skip$`)

	if stats.TotalFiles != 2 {
		t.Errorf("TotalFiles = %d, want 2", stats.TotalFiles)
	}
	if stats.CopiedFiles != 2 {
		t.Errorf("CopiedFiles = %d, want 2", stats.CopiedFiles)
	}
	if stats.IgnoredEntries != 1 {
		t.Errorf("IgnoredEntries = %d, want 1", stats.IgnoredEntries)
	}

	if readTreeFile(t, f.dst, "a.txt") != "alpha" || readTreeFile(t, f.dst, "b.txt") != "bravo" {
		t.Error("destination content does not match source")
	}
	if exists(filepath.Join(f.dst, "skip")) {
		t.Error("ignored directory should not be mirrored")
	}

	again := f.sync(`^skip$`)
	if again.TotalFiles != 2 {
		t.Errorf("second run TotalFiles = %d, want 2", again.TotalFiles)
	}
	if again.CopiedFiles != 0 {
		t.Errorf("second run CopiedFiles = %d, want 0", again.CopiedFiles)
	}
}

func TestSyncTree_Idempotent(t *testing.T) {
	f := newTreeFixture(t)
	f.source("one.txt", "1")
	f.source("nested/two.txt", "22")
	f.source("nested/deeper/three.txt", "333")

	first := f.sync()
	if first.CopiedFiles != 3 || first.NewFiles != 3 {
		t.Fatalf("first run copied %d (new %d), want 3", first.CopiedFiles, first.NewFiles)
	}

	second := f.sync()
	if second.CopiedFiles != 0 {
		t.Errorf("second run CopiedFiles = %d, want 0", second.CopiedFiles)
	}
	if second.Unchanged != 3 {
		t.Errorf("second run Unchanged = %d, want 3", second.Unchanged)
	}
	if second.BytesHashed != 0 {
		t.Errorf("second run hashed %d bytes, want 0", second.BytesHashed)
	}
	if second.DirsCreated != 0 {
		t.Errorf("second run DirsCreated = %d, want 0", second.DirsCreated)
	}
}

func TestSyncTree_PreservesModTime(t *testing.T) {
	f := newTreeFixture(t)
	f.source("file.txt", "content")

	f.sync()

	info, err := os.Stat(filepath.Join(f.dst, "file.txt"))
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if !info.ModTime().Equal(baseTime) {
		t.Errorf("ModTime = %v, want %v", info.ModTime(), baseTime)
	}
}

func TestSyncTree_NewFilePropagation(t *testing.T) {
	f := newTreeFixture(t)
	f.source("existing.txt", "old")
	f.sync()

	f.source("sub/new.txt", "fresh")

	stats := f.sync()
	if stats.CopiedFiles != 1 || stats.NewFiles != 1 {
		t.Errorf("CopiedFiles = %d, NewFiles = %d, want 1 and 1", stats.CopiedFiles, stats.NewFiles)
	}
	if readTreeFile(t, f.dst, "sub/new.txt") != "fresh" {
		t.Error("new file was not propagated")
	}
}

func TestSyncTree_ContentOverMetadata(t *testing.T) {
	f := newTreeFixture(t)
	f.source("same.txt", "identical")
	later := baseTime.Add(time.Hour)
	writeTreeFile(t, f.dst, "same.txt", "identical", later)

	stats := f.sync()

	if stats.CopiedFiles != 0 {
		t.Errorf("CopiedFiles = %d, want 0 for identical content", stats.CopiedFiles)
	}
	if stats.ContentIdentical != 1 {
		t.Errorf("ContentIdentical = %d, want 1", stats.ContentIdentical)
	}
	if stats.BytesHashed != int64(2*len("identical")) {
		t.Errorf("BytesHashed = %d, want both files hashed", stats.BytesHashed)
	}

	// The destination is left untouched, including its timestamp
	info, err := os.Stat(filepath.Join(f.dst, "same.txt"))
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if !info.ModTime().Equal(later) {
		t.Error("identical destination should not be rewritten")
	}
}

func TestSyncTree_ChangeDetection(t *testing.T) {
	t.Run("same size different content", func(t *testing.T) {
		f := newTreeFixture(t)
		f.source("data.bin", "AAAA")
		writeTreeFile(t, f.dst, "data.bin", "BBBB", baseTime.Add(-time.Hour))

		stats := f.sync()

		if stats.CopiedFiles != 1 || stats.UpdatedFiles != 1 {
			t.Errorf("CopiedFiles = %d, UpdatedFiles = %d, want 1 and 1", stats.CopiedFiles, stats.UpdatedFiles)
		}
		if readTreeFile(t, f.dst, "data.bin") != "AAAA" {
			t.Error("changed file was not overwritten")
		}
	})

	t.Run("different size", func(t *testing.T) {
		f := newTreeFixture(t)
		f.source("data.bin", "longer content")
		writeTreeFile(t, f.dst, "data.bin", "short", baseTime)

		stats := f.sync()

		if stats.UpdatedFiles != 1 {
			t.Errorf("UpdatedFiles = %d, want 1", stats.UpdatedFiles)
		}
		if readTreeFile(t, f.dst, "data.bin") != "longer content" {
			t.Error("changed file was not overwritten")
		}
	})

	t.Run("matching metadata skips hashing", func(t *testing.T) {
		f := newTreeFixture(t)
		f.source("data.bin", "AAAA")
		writeTreeFile(t, f.dst, "data.bin", "BBBB", baseTime)

		stats := f.sync()

		// Size and mtime agree so the fast path trusts them
		if stats.CopiedFiles != 0 || stats.Unchanged != 1 {
			t.Errorf("CopiedFiles = %d, Unchanged = %d, want 0 and 1", stats.CopiedFiles, stats.Unchanged)
		}
		if readTreeFile(t, f.dst, "data.bin") != "BBBB" {
			t.Error("destination should not be rewritten on the fast path")
		}
	})
}

func TestSyncTree_DirectoryMirroring(t *testing.T) {
	f := newTreeFixture(t)
	for _, dir := range []string{"empty", "a/b/c"} {
		if err := os.MkdirAll(filepath.Join(f.src, filepath.FromSlash(dir)), 0755); err != nil {
			t.Fatalf("Failed to create dir: %v", err)
		}
	}

	stats := f.sync()

	for _, dir := range []string{"", "empty", "a", "a/b", "a/b/c"} {
		info, err := os.Stat(filepath.Join(f.dst, filepath.FromSlash(dir)))
		if err != nil || !info.IsDir() {
			t.Errorf("directory %q was not mirrored", dir)
		}
	}
	if stats.DirsCreated != 5 {
		t.Errorf("DirsCreated = %d, want 5", stats.DirsCreated)
	}
	if stats.DirsScanned != 5 {
		t.Errorf("DirsScanned = %d, want 5", stats.DirsScanned)
	}
	if stats.TotalFiles != 0 {
		t.Errorf("TotalFiles = %d, want 0", stats.TotalFiles)
	}
}

func TestSyncTree_IgnoreAtAnyDepth(t *testing.T) {
	f := newTreeFixture(t)
	f.source("keep.txt", "k")
	f.source("scratch.tmp", "t")
	f.source("deep/nested/also.tmp", "t")
	f.source("deep/nested/kept.go", "package x")
	f.source("deep/build/out.o", "o")

	stats := f.sync(`\.tmp$`, `^build$`)

	if stats.TotalFiles != 2 {
		t.Errorf("TotalFiles = %d, want 2", stats.TotalFiles)
	}
	for _, rel := range []string{"scratch.tmp", "deep/nested/also.tmp", "deep/build"} {
		if exists(filepath.Join(f.dst, filepath.FromSlash(rel))) {
			t.Errorf("%s should have been ignored", rel)
		}
	}
	if !exists(filepath.Join(f.dst, "deep", "nested", "kept.go")) {
		t.Error("kept.go should have been copied")
	}
}

func TestSyncTree_KeepsDestinationOnlyEntries(t *testing.T) {
	f := newTreeFixture(t)
	f.source("a.txt", "a")
	writeTreeFile(t, f.dst, "orphan.txt", "stay", baseTime)
	writeTreeFile(t, f.dst, "old/dir/file.txt", "stay", baseTime)

	f.sync()

	if readTreeFile(t, f.dst, "orphan.txt") != "stay" || readTreeFile(t, f.dst, "old/dir/file.txt") != "stay" {
		t.Error("destination-only entries must never be removed")
	}
}

func TestSyncTree_DryRun(t *testing.T) {
	f := newTreeFixture(t)
	f.source("a.txt", "alpha")
	f.source("sub/b.txt", "bravo")

	var ops []models.FileOperation
	w := f.walker(nil, WithDryRun(true), WithObserver(func(op models.FileOperation) {
		ops = append(ops, op)
	}))

	stats, err := w.SyncTree(context.Background(), "", "")
	if err != nil {
		t.Fatalf("SyncTree() error = %v", err)
	}

	if stats.CopiedFiles != 2 || stats.DirsCreated != 2 {
		t.Errorf("CopiedFiles = %d, DirsCreated = %d, want 2 and 2", stats.CopiedFiles, stats.DirsCreated)
	}
	if exists(f.dst) {
		t.Error("dry run must not create the destination")
	}
	// mkdir sub plus two copies; the root is not an event
	if len(ops) != 3 {
		t.Errorf("observer saw %d events, want 3", len(ops))
	}
	for _, op := range ops {
		if op.RelativePath == "" || op.RelativePath == "." {
			t.Errorf("unexpected event for the destination root: %+v", op)
		}
	}
}

func TestSyncTree_Observer(t *testing.T) {
	f := newTreeFixture(t)
	f.source("a.txt", "alpha")
	f.source("b.txt", "bravo")
	f.sync()
	f.source("c.txt", "charlie")

	actions := map[string]models.Action{}
	w := f.walker(nil, WithObserver(func(op models.FileOperation) {
		actions[op.RelativePath] = op.Action
	}))
	if _, err := w.SyncTree(context.Background(), "", ""); err != nil {
		t.Fatalf("SyncTree() error = %v", err)
	}

	want := map[string]models.Action{
		"a.txt": models.ActionSkip,
		"b.txt": models.ActionSkip,
		"c.txt": models.ActionCopy,
	}
	if len(actions) != len(want) {
		t.Fatalf("observer saw %v, want %v", actions, want)
	}
	for path, action := range want {
		if actions[path] != action {
			t.Errorf("%s: action = %q, want %q", path, actions[path], action)
		}
	}
}

func TestSyncTree_FileWhereDirectoryExpected(t *testing.T) {
	f := newTreeFixture(t)
	f.source("sub/a.txt", "a")
	writeTreeFile(t, f.dst, "sub", "not a directory", baseTime)

	_, err := f.walker(nil).SyncTree(context.Background(), "", "")
	if err == nil {
		t.Fatal("SyncTree() should fail when a destination file blocks a directory")
	}

	var perr *PathError
	if !errors.As(err, &perr) {
		t.Fatalf("error = %v, want *PathError", err)
	}
	if perr.Path != "sub" {
		t.Errorf("PathError.Path = %q, want sub", perr.Path)
	}
}

func TestSyncTree_DirectoryWhereFileExpected(t *testing.T) {
	f := newTreeFixture(t)
	f.source("item", "file in source")
	if err := os.MkdirAll(filepath.Join(f.dst, "item"), 0755); err != nil {
		t.Fatalf("Failed to create dir: %v", err)
	}

	_, err := f.walker(nil).SyncTree(context.Background(), "", "")

	var perr *PathError
	if !errors.As(err, &perr) || perr.Op != "compare" {
		t.Fatalf("error = %v, want compare PathError", err)
	}
}

func TestSyncTree_ReadErrorAborts(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}

	f := newTreeFixture(t)
	f.source("a.txt", "a")
	f.source("locked/secret.txt", "s")
	locked := filepath.Join(f.src, "locked")
	if err := os.Chmod(locked, 0000); err != nil {
		t.Fatalf("Chmod() error = %v", err)
	}
	t.Cleanup(func() { os.Chmod(locked, 0755) })

	_, err := f.walker(nil).SyncTree(context.Background(), "", "")
	if err == nil {
		t.Fatal("SyncTree() should fail on an unreadable directory")
	}

	var perr *PathError
	if !errors.As(err, &perr) {
		t.Fatalf("error = %v, want *PathError", err)
	}
	if !errors.Is(err, os.ErrPermission) {
		t.Errorf("error = %v, want permission error in chain", err)
	}
}

func TestSyncTree_Cancelled(t *testing.T) {
	f := newTreeFixture(t)
	f.source("a.txt", "a")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.walker(nil).SyncTree(ctx, "", "")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if exists(f.dst) {
		t.Error("cancelled run should not touch the destination")
	}
}

func TestCountFiles(t *testing.T) {
	f := newTreeFixture(t)
	f.source("a.txt", "a")
	f.source("b.tmp", "b")
	f.source("sub/c.txt", "c")
	f.source("sub/skip/d.txt", "d")

	n, err := f.walker([]string{`\.tmp$`, `^skip$`}).CountFiles(context.Background(), "")
	if err != nil {
		t.Fatalf("CountFiles() error = %v", err)
	}
	if n != 2 {
		t.Errorf("CountFiles() = %d, want 2", n)
	}
}

func TestSyncTree_BillyOS(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src")
	dst := filepath.Join(root, "dst")
	writeTreeFile(t, src, "a.txt", "alpha", baseTime)
	writeTreeFile(t, src, "b.txt", "bravo", baseTime)
	writeTreeFile(t, src, "skip/c.txt", "charlie", baseTime)
	if err := os.MkdirAll(dst, 0755); err != nil {
		t.Fatalf("Failed to create dest: %v", err)
	}

	w := newTestWalker(t, storage.NewBillyOS(src), storage.NewBillyOS(dst), []string{`^skip$`})

	stats, err := w.SyncTree(context.Background(), "", "")
	if err != nil {
		t.Fatalf("SyncTree() error = %v", err)
	}
	if stats.TotalFiles != 2 || stats.CopiedFiles != 2 {
		t.Errorf("first run %d/%d, want 2/2", stats.CopiedFiles, stats.TotalFiles)
	}
	if readTreeFile(t, dst, "b.txt") != "bravo" {
		t.Error("content was not mirrored")
	}

	again, err := w.SyncTree(context.Background(), "", "")
	if err != nil {
		t.Fatalf("second SyncTree() error = %v", err)
	}
	if again.CopiedFiles != 0 {
		t.Errorf("second run CopiedFiles = %d, want 0", again.CopiedFiles)
	}
}

func TestSyncTree_FollowsDirectorySymlink(t *testing.T) {
	backends := map[string]func(root string) storage.Backend{
		"local": func(root string) storage.Backend {
			b, err := storage.NewLocal(root)
			if err != nil {
				t.Fatalf("NewLocal() error = %v", err)
			}
			return b
		},
		"billy": func(root string) storage.Backend {
			return storage.NewBillyOS(root)
		},
	}

	for name, open := range backends {
		t.Run(name, func(t *testing.T) {
			root := t.TempDir()
			src := filepath.Join(root, "src")
			dst := filepath.Join(root, "dst")
			writeTreeFile(t, src, "real/x.txt", "xray", baseTime)
			if err := os.Symlink("real", filepath.Join(src, "link")); err != nil {
				t.Skipf("symlinks not supported: %v", err)
			}
			if err := os.MkdirAll(dst, 0755); err != nil {
				t.Fatalf("Failed to create dest: %v", err)
			}

			w := newTestWalker(t, open(src), open(dst), nil)

			stats, err := w.SyncTree(context.Background(), "", "")
			if err != nil {
				t.Fatalf("SyncTree() error = %v", err)
			}
			if stats.TotalFiles != 2 || stats.CopiedFiles != 2 {
				t.Errorf("copied %d/%d, want 2/2", stats.CopiedFiles, stats.TotalFiles)
			}

			info, err := os.Lstat(filepath.Join(dst, "link"))
			if err != nil {
				t.Fatalf("link was not mirrored: %v", err)
			}
			if !info.IsDir() {
				t.Errorf("link should be mirrored as a directory, mode = %v", info.Mode())
			}
			if readTreeFile(t, dst, "link/x.txt") != "xray" {
				t.Error("content behind the link was not mirrored")
			}
		})
	}
}

func TestSyncTree_BillyMemorySubtree(t *testing.T) {
	fs := storage.NewBillyMemory()
	ctx := context.Background()

	files := map[string]string{
		"src/a.txt":        "alpha",
		"src/docs/b.txt":   "bravo",
		"src/cache/c.bin":  "ignored",
		"src/docs/d.cache": "ignored",
	}
	for name, content := range files {
		if err := fs.Write(ctx, name, stringsReader(content), int64(len(content)), nil); err != nil {
			t.Fatalf("Write(%s) error = %v", name, err)
		}
	}

	w := newTestWalker(t, fs, fs, []string{`^cache$`, `\.cache$`})

	stats, err := w.SyncTree(ctx, "src", "mirror")
	if err != nil {
		t.Fatalf("SyncTree() error = %v", err)
	}
	if stats.TotalFiles != 2 || stats.CopiedFiles != 2 {
		t.Errorf("copied %d/%d, want 2/2", stats.CopiedFiles, stats.TotalFiles)
	}

	entries, err := fs.ReadDir(ctx, "mirror")
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name)
	}
	sort.Strings(names)
	if len(names) != 2 || names[0] != "a.txt" || names[1] != "docs" {
		t.Errorf("mirror contains %v, want [a.txt docs]", names)
	}

	ok, err := fs.Exists(ctx, "mirror/docs/b.txt")
	if err != nil || !ok {
		t.Error("mirror/docs/b.txt should exist")
	}

	// Write applied the source mtime, so nothing is copied again
	again, err := w.SyncTree(ctx, "src", "mirror")
	if err != nil {
		t.Fatalf("second SyncTree() error = %v", err)
	}
	if again.CopiedFiles != 0 {
		t.Errorf("second run CopiedFiles = %d, want 0", again.CopiedFiles)
	}
	if again.Unchanged != 2 {
		t.Errorf("second run Unchanged = %d, want 2", again.Unchanged)
	}
}
