package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/sdejongh/treesync/pkg/config"
	"github.com/sdejongh/treesync/pkg/watch"
)

// GlobalFlags holds global flag values
type GlobalFlags struct {
	ConfigFile string
	Verbose    bool
	Quiet      bool
}

var globalFlags GlobalFlags

// AddGlobalFlags adds global flags to the root command
func AddGlobalFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(
		&globalFlags.ConfigFile,
		"config",
		"",
		"config file (default is $HOME/.config/treesync/config.yaml)",
	)
	cmd.PersistentFlags().BoolVarP(
		&globalFlags.Verbose,
		"verbose",
		"v",
		false,
		"verbose output (debug logs on stderr when no log file is set)",
	)
	cmd.PersistentFlags().BoolVarP(
		&globalFlags.Quiet,
		"quiet",
		"q",
		false,
		"suppress non-error output",
	)
}

// SyncFlags holds the flags shared by sync, compare and watch
type SyncFlags struct {
	Source     string
	Dest       string
	IgnoreFile string
	Ignore     []string
	Hash       string
	BufferSize int
	DryRun     bool
	Backend    string
	Output     string
	Report     string
	// Logging flags
	LogFile   string
	LogFormat string
	LogLevel  string
	// Watch only
	Debounce time.Duration
}

var syncFlags SyncFlags

// addSyncFlags registers the sync flags. Defaults shown in help are the
// built-in configuration defaults; a flag only overrides the configuration
// when it is set explicitly.
func addSyncFlags(cmd *cobra.Command, withDryRun bool) {
	d := config.Default()

	cmd.Flags().StringVarP(&syncFlags.Source, "source", "s", "", "source directory path")
	cmd.Flags().StringVarP(&syncFlags.Dest, "dest", "d", "", "destination directory path")
	cmd.Flags().StringVar(&syncFlags.IgnoreFile, "ignore-file", "", "file with one ignore regex per line")
	cmd.Flags().StringArrayVar(&syncFlags.Ignore, "ignore", nil, "ignore regex matched against bare names (repeatable)")
	cmd.Flags().StringVar(&syncFlags.Hash, "hash", string(d.Sync.Hash), "content digest: sha1, sha256, md5")
	cmd.Flags().IntVar(&syncFlags.BufferSize, "buffer-size", d.Performance.BufferSize, "read chunk size in bytes (min 1024)")
	if withDryRun {
		cmd.Flags().BoolVar(&syncFlags.DryRun, "dry-run", false, "decide without writing to the destination")
	}
	cmd.Flags().StringVar(&syncFlags.Backend, "backend", d.Sync.Backend, "storage backend: local, billy")
	cmd.Flags().StringVarP(&syncFlags.Output, "output", "o", d.Output.Format, "output format: human, json")

	// Logging flags
	cmd.Flags().StringVar(&syncFlags.LogFile, "log-file", "", "write logs to file (enables logging)")
	cmd.Flags().StringVar(&syncFlags.LogFormat, "log-format", d.Logging.Format, "log format: text, json")
	cmd.Flags().StringVar(&syncFlags.LogLevel, "log-level", d.Logging.Level, "log level: debug, info, warn, error")
}

func addReportFlag(cmd *cobra.Command) {
	cmd.Flags().StringVar(&syncFlags.Report, "report", "", "write the list of changes to file")
}

func addWatchFlags(cmd *cobra.Command) {
	cmd.Flags().DurationVar(&syncFlags.Debounce, "debounce", watch.DefaultDebounce, "quiet period before a change triggers a sync")
}
