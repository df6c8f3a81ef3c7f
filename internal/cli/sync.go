package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/sdejongh/treesync/pkg/output"
)

// NewSyncCommand creates the sync command
func NewSyncCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Mirror a source tree into a destination tree",
		Long: `Mirror every file and directory of the source into the destination.
Entries whose bare name matches an ignore regex are skipped together with
everything below them. A file is copied only when it is missing from the
destination or its content differs; destination-only entries are kept.`,
		Args: cobra.NoArgs,
		RunE: runSync,
	}

	addSyncFlags(cmd, true)
	addReportFlag(cmd)

	return cmd
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	r, err := newRunner(cfg, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer r.Close()

	report, err := r.run(ctx)
	if err != nil {
		return err
	}

	if syncFlags.Report != "" {
		return output.WriteChangesReport(report, syncFlags.Report, cfg.Output.Format)
	}
	return nil
}
