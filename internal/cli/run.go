package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/sdejongh/treesync/pkg/compare"
	"github.com/sdejongh/treesync/pkg/config"
	"github.com/sdejongh/treesync/pkg/ignore"
	"github.com/sdejongh/treesync/pkg/logging"
	"github.com/sdejongh/treesync/pkg/models"
	"github.com/sdejongh/treesync/pkg/output"
	"github.com/sdejongh/treesync/pkg/storage"
	"github.com/sdejongh/treesync/pkg/sync"
)

// runner holds what stays fixed across the runs of one command: the
// compiled patterns, the comparator and the logger. watch reuses it for
// every triggered sync.
type runner struct {
	cfg        *config.Config
	matcher    *ignore.Matcher
	comparator compare.Comparator
	logger     logging.Logger
	out        io.Writer
}

func newRunner(cfg *config.Config, out io.Writer) (*runner, error) {
	matcher, err := buildMatcher(cfg.Sync)
	if err != nil {
		return nil, err
	}
	if err := checkNesting(cfg.Sync.Source, cfg.Sync.Dest, matcher); err != nil {
		return nil, err
	}

	hasher, err := compare.NewHasher(cfg.Sync.Hash, cfg.Performance.BufferSize)
	if err != nil {
		return nil, err
	}

	logger, err := createLogger(cfg.Logging, globalFlags.Verbose)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	if cfg.Output.Quiet {
		out = io.Discard
	}

	return &runner{
		cfg:        cfg,
		matcher:    matcher,
		comparator: compare.NewChangeDetector(hasher),
		logger:     logger,
		out:        out,
	}, nil
}

// run performs one sync of the whole tree
func (r *runner) run(ctx context.Context) (*models.SyncReport, error) {
	operation, err := createSyncOperation(r.cfg, r.matcher.Patterns())
	if err != nil {
		return nil, fmt.Errorf("failed to create sync operation: %w", err)
	}

	source, dest, err := createBackends(r.cfg.Sync)
	if err != nil {
		return nil, err
	}
	defer source.Close()
	defer dest.Close()

	progress := r.cfg.Output.Progress && output.IsTerminal(r.out)
	formatter, err := output.NewFormatter(r.cfg.Output.Format, progress)
	if err != nil {
		return nil, err
	}

	engine := sync.NewEngine(source, dest, r.matcher, r.comparator, formatter, r.logger, operation)
	engine.SetOutput(r.out)

	report, err := engine.Run(ctx)
	if err != nil {
		return report, fmt.Errorf("sync failed: %w", err)
	}
	return report, nil
}

func (r *runner) Close() error {
	return r.logger.Close()
}

// buildMatcher compiles the ignore file patterns followed by the inline ones.
// Any invalid pattern fails the run before anything is copied.
func buildMatcher(cfg config.SyncConfig) (*ignore.Matcher, error) {
	if cfg.IgnoreFile != "" && len(cfg.Ignore) == 0 {
		return ignore.LoadFile(cfg.IgnoreFile)
	}

	var patterns []string
	if cfg.IgnoreFile != "" {
		filePatterns, err := ignore.ReadFile(cfg.IgnoreFile)
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, filePatterns...)
	}
	patterns = append(patterns, cfg.Ignore...)

	return ignore.New(patterns)
}

// createBackends opens the source and destination storage
func createBackends(cfg config.SyncConfig) (storage.Backend, storage.Backend, error) {
	if cfg.Backend == "billy" {
		return storage.NewBillyOS(cfg.Source), storage.NewBillyOS(cfg.Dest), nil
	}

	source, err := storage.NewLocal(cfg.Source)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create source backend: %w", err)
	}

	dest, err := storage.NewLocal(cfg.Dest)
	if err != nil {
		source.Close()
		return nil, nil, fmt.Errorf("failed to create destination backend: %w", err)
	}

	return source, dest, nil
}

// createLogger creates a logger based on configuration
func createLogger(cfg config.LoggingConfig, verbose bool) (logging.Logger, error) {
	// Parse log format
	var format logging.Format
	switch cfg.Format {
	case "json":
		format = logging.FormatJSON
	default:
		format = logging.FormatText
	}

	if cfg.Enabled && cfg.File != "" {
		return logging.NewFileLogger(logging.FileLoggerConfig{
			Path:       cfg.File,
			Format:     format,
			Level:      logging.ParseLevel(cfg.Level),
			MaxSizeMB:  cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
		})
	}

	if verbose {
		return logging.NewWriterLogger(os.Stderr, format, logging.DebugLevel), nil
	}

	// If no log file specified, return null logger
	return logging.NewNullLogger(), nil
}
