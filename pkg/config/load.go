package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. TREESYNC_SYNC_SOURCE
const EnvPrefix = "TREESYNC"

// Load reads the YAML file at path (skipped when path is empty), overlays
// TREESYNC_* environment variables and validates the result.
func Load(path string) (*Config, error) {
	v := newViper()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LoadDefault loads the file at DefaultConfigPath when it exists, and
// otherwise the defaults with environment overrides applied
func LoadDefault() (*Config, error) {
	path, err := DefaultConfigPath()
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return Load("")
	}

	return Load(path)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only resolves keys viper already knows about
	d := Default()
	v.SetDefault("sync.source", d.Sync.Source)
	v.SetDefault("sync.dest", d.Sync.Dest)
	v.SetDefault("sync.ignore_file", d.Sync.IgnoreFile)
	v.SetDefault("sync.ignore", d.Sync.Ignore)
	v.SetDefault("sync.hash", string(d.Sync.Hash))
	v.SetDefault("sync.dry_run", d.Sync.DryRun)
	v.SetDefault("sync.backend", d.Sync.Backend)
	v.SetDefault("performance.buffer_size", d.Performance.BufferSize)
	v.SetDefault("output.format", d.Output.Format)
	v.SetDefault("output.progress", d.Output.Progress)
	v.SetDefault("output.quiet", d.Output.Quiet)
	v.SetDefault("logging.enabled", d.Logging.Enabled)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.file", d.Logging.File)
	v.SetDefault("logging.max_size_mb", d.Logging.MaxSizeMB)
	v.SetDefault("logging.max_backups", d.Logging.MaxBackups)

	return v
}
