package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/sdejongh/treesync/pkg/logging"
	"github.com/sdejongh/treesync/pkg/watch"
)

// NewWatchCommand creates the watch command
func NewWatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep the destination mirrored while the source changes",
		Long: `Run a sync, then watch the source tree and sync again each time changes
settle for the debounce period. Stops on interrupt or on the first failed
sync.`,
		Args: cobra.NoArgs,
		RunE: runWatch,
	}

	addSyncFlags(cmd, true)
	addWatchFlags(cmd)

	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
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

	// Progress bars do not suit a long-running command
	r.cfg.Output.Progress = false

	syncOnce := func(ctx context.Context) error {
		_, err := r.run(ctx)
		return err
	}

	w := watch.New(cfg.Sync.Source, r.matcher, syncFlags.Debounce, syncOnce,
		r.logger.WithFields(logging.Fields{"component": "watch"}))
	return w.Run(ctx)
}
