package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/sdejongh/treesync/internal/platform"
	"github.com/sdejongh/treesync/pkg/config"
	"github.com/sdejongh/treesync/pkg/ignore"
	"github.com/sdejongh/treesync/pkg/models"
)

// validatePaths checks the source and destination before anything is
// written. The destination may be missing; it is created by the sync.
func validatePaths(source, dest string) (string, string, error) {
	if err := platform.ValidatePath(source); err != nil {
		return "", "", fmt.Errorf("source path is required (--source or sync.source): %w", err)
	}
	if err := platform.ValidatePath(dest); err != nil {
		return "", "", fmt.Errorf("destination path is required (--dest or sync.dest): %w", err)
	}

	sourceAbs, err := platform.NormalizePath(source)
	if err != nil {
		return "", "", fmt.Errorf("failed to resolve source path: %w", err)
	}
	destAbs, err := platform.NormalizePath(dest)
	if err != nil {
		return "", "", fmt.Errorf("failed to resolve destination path: %w", err)
	}

	sourceInfo, err := os.Stat(sourceAbs)
	if errors.Is(err, fs.ErrNotExist) {
		return "", "", fmt.Errorf("source path does not exist: %s", source)
	} else if err != nil {
		return "", "", fmt.Errorf("failed to access source path: %w", err)
	} else if !sourceInfo.IsDir() {
		return "", "", fmt.Errorf("source path is not a directory: %s", source)
	}

	destInfo, err := os.Stat(destAbs)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", "", fmt.Errorf("failed to access destination path: %w", err)
	} else if err == nil && !destInfo.IsDir() {
		return "", "", fmt.Errorf("destination path exists but is not a directory: %s", dest)
	}

	if platform.SamePath(sourceAbs, destAbs) {
		return "", "", fmt.Errorf("source and destination cannot be the same: %s", sourceAbs)
	}

	if platform.IsWithin(destAbs, sourceAbs) {
		return "", "", fmt.Errorf("source cannot be inside destination directory")
	}

	return sourceAbs, destAbs, nil
}

// checkNesting rejects a destination inside the source unless the top-level
// source entry holding it is ignored, so the walk never reaches it.
func checkNesting(source, dest string, matcher *ignore.Matcher) error {
	if !platform.IsWithin(source, dest) {
		return nil
	}

	rel, err := filepath.Rel(source, dest)
	if err != nil {
		return fmt.Errorf("failed to resolve destination path: %w", err)
	}
	first := strings.SplitN(rel, string(filepath.Separator), 2)[0]
	if matcher.IsIgnored(first) {
		return nil
	}

	return fmt.Errorf("destination cannot be inside source directory unless %q is ignored", first)
}

// loadConfig loads configuration from --config, or from the default
// location when it exists, with TREESYNC_* environment overrides
func loadConfig() (*config.Config, error) {
	if globalFlags.ConfigFile != "" {
		return config.Load(globalFlags.ConfigFile)
	}
	return config.LoadDefault()
}

// applyFlagsToConfig overrides config values with explicitly set flags
func applyFlagsToConfig(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()

	if flags.Changed("source") {
		cfg.Sync.Source = syncFlags.Source
	}
	if flags.Changed("dest") {
		cfg.Sync.Dest = syncFlags.Dest
	}
	if flags.Changed("ignore-file") {
		cfg.Sync.IgnoreFile = syncFlags.IgnoreFile
	}
	if flags.Changed("ignore") {
		cfg.Sync.Ignore = append(cfg.Sync.Ignore, syncFlags.Ignore...)
	}
	if flags.Changed("hash") {
		cfg.Sync.Hash = models.HashAlgorithm(syncFlags.Hash)
	}
	if flags.Changed("buffer-size") {
		cfg.Performance.BufferSize = syncFlags.BufferSize
	}
	if flags.Changed("dry-run") {
		cfg.Sync.DryRun = syncFlags.DryRun
	}
	if flags.Changed("backend") {
		cfg.Sync.Backend = syncFlags.Backend
	}
	if flags.Changed("output") {
		cfg.Output.Format = syncFlags.Output
	}

	// Logging
	if flags.Changed("log-file") {
		cfg.Logging.File = syncFlags.LogFile
		cfg.Logging.Enabled = true
	}
	if flags.Changed("log-format") {
		cfg.Logging.Format = syncFlags.LogFormat
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = syncFlags.LogLevel
	}

	// Disable progress in quiet mode
	if globalFlags.Quiet {
		cfg.Output.Progress = false
		cfg.Output.Quiet = true
	}
}

// resolveConfig loads the configuration, applies flags and validates the
// result along with the source and destination paths
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	applyFlagsToConfig(cmd, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	source, dest, err := validatePaths(cfg.Sync.Source, cfg.Sync.Dest)
	if err != nil {
		return nil, err
	}
	cfg.Sync.Source = source
	cfg.Sync.Dest = dest

	return cfg, nil
}

// createSyncOperation creates a sync operation from configuration
func createSyncOperation(cfg *config.Config, matcherPatterns []string) (*models.SyncOperation, error) {
	operation := &models.SyncOperation{
		ID:             uuid.New().String(),
		SourcePath:     cfg.Sync.Source,
		DestPath:       cfg.Sync.Dest,
		IgnoreFile:     cfg.Sync.IgnoreFile,
		IgnorePatterns: matcherPatterns,
		HashAlgorithm:  cfg.Sync.Hash,
		DryRun:         cfg.Sync.DryRun,
		BufferSize:     cfg.Performance.BufferSize,
		CreatedAt:      time.Now(),
	}

	if err := operation.Validate(); err != nil {
		return nil, err
	}

	return operation, nil
}
