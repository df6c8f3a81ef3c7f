package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sdejongh/treesync/pkg/models"
)

// NewRootCommand creates the treesync command tree
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "treesync",
		Short: "One-way directory mirror with regex ignore patterns",
		Long: `treesync mirrors a source directory tree into a destination tree.
Names matching an ignore regex are skipped, and a file is only copied when
its size, modification time and content hash say it changed.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Add global flags
	AddGlobalFlags(rootCmd)

	// Add commands
	rootCmd.AddCommand(NewSyncCommand())
	rootCmd.AddCommand(NewCompareCommand())
	rootCmd.AddCommand(NewWatchCommand())
	rootCmd.AddCommand(NewConfigCommand())
	rootCmd.AddCommand(NewVersionCommand())

	return rootCmd
}

// ExitCode maps a command error to the process exit status
func ExitCode(err error) int {
	switch {
	case err == nil:
		return models.StatusSuccess.ExitCode()
	case errors.Is(err, context.Canceled):
		return models.StatusCancelled.ExitCode()
	default:
		return models.StatusFailed.ExitCode()
	}
}
