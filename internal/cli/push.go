package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/modelkit/uisync/pkg/sync"
)

// newPushCmd creates the push command: rebuild the filtered records'
// definitions from the source directory and upload them.
func newPushCmd(configPath *string, verbose *bool) *cobra.Command {
	var (
		dir     string
		workers int
		plain   bool
	)

	cmd := &cobra.Command{
		Use:   "push [Model[:Definition]...]",
		Short: "Rebuild and upload UI definitions",
		Long: `Push reassembles each matching record's definitions array from its local
subtree, re-encodes it to the wire form and uploads it: records with an
existing document are updated in place, the rest get a new document inside
the shared container folder.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if dir != "" {
				cfg.Source = dir
			}
			if workers > 0 {
				cfg.Workers = workers
			}

			filter, err := sync.ParseFilter(args)
			if err != nil {
				return err
			}

			store, closeStore, err := cfg.newStore(ctx, false)
			if err != nil {
				return err
			}
			defer closeStore()

			opts := sync.Options{
				Workers: cfg.Workers,
				Folder:  cfg.Remote.Folder,
				Warn:    logger.Warnf,
			}
			view := newBatchView("Pushing", !plain && !*verbose)
			opts.OnResult = view.observe

			prog := newProgress(logger)
			o := sync.New(store, cfg.Source, opts)

			summary, err := view.run(func() (*sync.Summary, error) {
				return o.Push(ctx, filter)
			})
			if err != nil {
				return err
			}

			succeeded, skipped, failed := summary.Counts()
			prog.done(fmt.Sprintf("Pushed %d records (%d skipped, %d failed)", succeeded, skipped, failed))
			printSummary(summary, cfg.Source)

			if summary.AllFailed() {
				return fmt.Errorf("all %d records failed: %s", failed, strings.Join(summary.Failed(), ", "))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", "", "source directory (overrides config)")
	cmd.Flags().IntVar(&workers, "workers", 0, "worker pool size (overrides config)")
	cmd.Flags().BoolVar(&plain, "plain", false, "disable the live progress view")
	return cmd
}
