// Package watch re-runs a whole-tree sync whenever the source tree changes.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/sdejongh/treesync/pkg/ignore"
	"github.com/sdejongh/treesync/pkg/logging"
)

// DefaultDebounce is how long the source must stay quiet before a sync runs
const DefaultDebounce = 500 * time.Millisecond

// SyncFunc performs one full sync of the tree
type SyncFunc func(ctx context.Context) error

// Watcher watches every non-ignored directory of a source tree and calls
// its SyncFunc once changes settle. Runs never overlap: events arriving
// during a run only schedule the next one.
type Watcher struct {
	root     string
	matcher  *ignore.Matcher
	debounce time.Duration
	sync     SyncFunc
	logger   logging.Logger
}

// New creates a watcher for the source directory root
func New(root string, matcher *ignore.Matcher, debounce time.Duration, sync SyncFunc, logger logging.Logger) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		root:     root,
		matcher:  matcher,
		debounce: debounce,
		sync:     sync,
		logger:   logging.OrNull(logger),
	}
}

// Run performs an initial sync, then syncs again after every burst of
// changes until ctx is cancelled. A failed sync stops the watch and its
// error is returned; cancellation returns nil.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer fsw.Close()

	if err := w.addTree(fsw, w.root); err != nil {
		return err
	}
	w.logger.Info(ctx, "Watching source tree", logging.Fields{
		"root":        w.root,
		"directories": len(fsw.WatchList()),
		"debounce":    w.debounce.String(),
	})

	if err := w.runSync(ctx); err != nil {
		return err
	}

	var timer *time.Timer
	var fire <-chan time.Time
	pending := 0

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}

			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(fsw, event.Name); err != nil {
						return err
					}
				}
			}

			pending++
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			w.logger.Debug(ctx, "Source changed", logging.Fields{"events": pending})
			pending = 0

			if err := w.runSync(ctx); err != nil {
				return err
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch error: %w", err)
		}
	}
}

func (w *Watcher) runSync(ctx context.Context) error {
	err := w.sync(ctx)
	if err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		return nil
	}
	return err
}

// relevant drops permission-only changes and changes to ignored names
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	return !w.matcher.IsIgnored(filepath.Base(event.Name))
}

// addTree watches dir and every non-ignored directory below it
func (w *Watcher) addTree(fsw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			// Removed between the event and the walk
			if errors.Is(err, fs.ErrNotExist) && p != w.root {
				return nil
			}
			return fmt.Errorf("failed to scan %s: %w", p, err)
		}
		if !d.IsDir() {
			return nil
		}
		if p != w.root && w.matcher.IsIgnored(d.Name()) {
			return filepath.SkipDir
		}
		if err := fsw.Add(p); err != nil {
			return fmt.Errorf("failed to watch %s: %w", p, err)
		}
		return nil
	})
}
