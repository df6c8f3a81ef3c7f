package config

import (
	"github.com/sdejongh/treesync/pkg/compare"
	"github.com/sdejongh/treesync/pkg/models"
)

// Config represents the application configuration
type Config struct {
	Sync        SyncConfig        `yaml:"sync" mapstructure:"sync"`
	Performance PerformanceConfig `yaml:"performance" mapstructure:"performance"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
	Logging     LoggingConfig     `yaml:"logging" mapstructure:"logging"`
}

// SyncConfig holds sync-related settings
type SyncConfig struct {
	Source     string               `yaml:"source" mapstructure:"source"`
	Dest       string               `yaml:"dest" mapstructure:"dest"`
	IgnoreFile string               `yaml:"ignore_file" mapstructure:"ignore_file"` // One regex per line
	Ignore     []string             `yaml:"ignore" mapstructure:"ignore"`           // Extra inline patterns
	Hash       models.HashAlgorithm `yaml:"hash" mapstructure:"hash"`
	DryRun     bool                 `yaml:"dry_run" mapstructure:"dry_run"`
	Backend    string               `yaml:"backend" mapstructure:"backend"` // "local" or "billy"
}

// PerformanceConfig holds performance-related settings
type PerformanceConfig struct {
	BufferSize int `yaml:"buffer_size" mapstructure:"buffer_size"`
}

// OutputConfig holds output-related settings
type OutputConfig struct {
	Format   string `yaml:"format" mapstructure:"format"`     // "human" or "json"
	Progress bool   `yaml:"progress" mapstructure:"progress"` // Show progress bar on a terminal
	Quiet    bool   `yaml:"quiet" mapstructure:"quiet"`       // Suppress non-error output
}

// LoggingConfig holds logging-related settings
type LoggingConfig struct {
	Enabled    bool   `yaml:"enabled" mapstructure:"enabled"`
	Format     string `yaml:"format" mapstructure:"format"` // "json" or "text"
	Level      string `yaml:"level" mapstructure:"level"`   // "debug", "info", "warn", "error"
	File       string `yaml:"file" mapstructure:"file"`     // Log file path (empty = no file log)
	MaxSizeMB  int    `yaml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups"`
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Sync: SyncConfig{
			Ignore:  []string{},
			Hash:    models.HashSHA1,
			Backend: "local",
		},
		Performance: PerformanceConfig{
			BufferSize: compare.DefaultBufferSize,
		},
		Output: OutputConfig{
			Format:   "human",
			Progress: true,
			Quiet:    false,
		},
		Logging: LoggingConfig{
			Enabled:    true,
			Format:     "text",
			Level:      "info",
			File:       "",
			MaxSizeMB:  10,
			MaxBackups: 5,
		},
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if !c.Sync.Hash.Valid() {
		return &models.ValidationError{
			Field:   "sync.hash",
			Message: "must be 'sha1', 'sha256', or 'md5'",
		}
	}

	validBackends := map[string]bool{"local": true, "billy": true}
	if !validBackends[c.Sync.Backend] {
		return &models.ValidationError{
			Field:   "sync.backend",
			Message: "must be 'local' or 'billy'",
		}
	}

	if c.Performance.BufferSize < compare.MinBufferSize {
		return &models.ValidationError{
			Field:   "performance.buffer_size",
			Message: "must be at least 1024 bytes",
		}
	}

	validFormats := map[string]bool{"human": true, "json": true}
	if !validFormats[c.Output.Format] {
		return &models.ValidationError{
			Field:   "output.format",
			Message: "must be 'human' or 'json'",
		}
	}

	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[c.Logging.Format] {
		return &models.ValidationError{
			Field:   "logging.format",
			Message: "must be 'json' or 'text'",
		}
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return &models.ValidationError{
			Field:   "logging.level",
			Message: "must be 'debug', 'info', 'warn', or 'error'",
		}
	}

	if c.Logging.MaxSizeMB < 0 || c.Logging.MaxBackups < 0 {
		return &models.ValidationError{
			Field:   "logging.max_size_mb",
			Message: "rotation limits must not be negative",
		}
	}

	return nil
}
