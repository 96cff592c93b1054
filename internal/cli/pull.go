package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/modelkit/uisync/pkg/errors"
	"github.com/modelkit/uisync/pkg/sync"
)

// newPullCmd creates the pull command: download the filtered records' UI
// definitions and serialize them into the source directory.
func newPullCmd(configPath *string, verbose *bool) *cobra.Command {
	var (
		dir     string
		workers int
		refresh bool
		plain   bool
	)

	cmd := &cobra.Command{
		Use:   "pull [Model[:Definition]...]",
		Short: "Download UI definitions into the source directory",
		Long: `Pull fetches each matching record's UI definitions document, decodes it,
and explodes it into a directory tree of scripts, styles, templates and
metadata under the source directory. Without arguments every record is
pulled; arguments select records ("Model") or single definitions
("Model:Definition").`,
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

			store, closeStore, err := cfg.newStore(ctx, refresh)
			if err != nil {
				return err
			}
			defer closeStore()

			opts := sync.Options{
				Workers: cfg.Workers,
				Folder:  cfg.Remote.Folder,
				Warn:    logger.Warnf,
			}
			view := newBatchView("Pulling", !plain && !*verbose)
			opts.OnResult = view.observe

			prog := newProgress(logger)
			o := sync.New(store, cfg.Source, opts)

			summary, err := view.run(func() (*sync.Summary, error) {
				return o.Pull(ctx, filter)
			})
			if err != nil {
				return err
			}

			succeeded, skipped, failed := summary.Counts()
			prog.done(fmt.Sprintf("Pulled %d records (%d skipped, %d failed)", succeeded, skipped, failed))
			printSummary(summary, cfg.Source)

			if summary.AllFailed() {
				return fmt.Errorf("all %d records failed: %s", failed, strings.Join(summary.Failed(), ", "))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", "", "source directory (overrides config)")
	cmd.Flags().IntVar(&workers, "workers", 0, "worker pool size (overrides config)")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "bypass cached remote responses")
	cmd.Flags().BoolVar(&plain, "plain", false, "disable the live progress view")
	return cmd
}

// printSummary prints per-record outcome lines after a batch.
func printSummary(s *sync.Summary, source string) {
	for _, r := range s.Results {
		switch r.Status {
		case sync.StatusSuccess:
			detail := fmt.Sprintf("%d definitions, %d elements", r.Definitions, r.Elements)
			if r.Skipped > 0 {
				detail += fmt.Sprintf(", %d skipped", r.Skipped)
			}
			if r.SkippedDefinitions > 0 {
				detail += fmt.Sprintf(", %d unrecognized", r.SkippedDefinitions)
			}
			printSuccess("%s %s", r.Record, StyleDim.Render("("+detail+")"))
		case sync.StatusSkipped:
			printDetail("%s %s skipped", iconSkipped, r.Record)
		case sync.StatusError:
			printError("%s: %s", r.Record, errors.UserMessage(r.Err))
		}
	}
	if _, _, failed := s.Counts(); failed > 0 && !s.AllFailed() {
		printWarning("%d of %d records failed", failed, len(s.Results))
	}
	printDetail("Source: %s", source)
}
