package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/sdejongh/treesync/pkg/output"
)

// NewCompareCommand creates the compare command
func NewCompareCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Show what sync would change (dry-run)",
		Long: `Compare source and destination and report the files that sync would
copy, without performing any file operations. This is equivalent to
sync --dry-run.`,
		Args: cobra.NoArgs,
		RunE: runCompare,
	}

	addSyncFlags(cmd, false)
	addReportFlag(cmd)

	return cmd
}

func runCompare(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	// Force dry-run mode for compare command
	cfg.Sync.DryRun = true

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
