package cli

import (
	"context"
	"fmt"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	version string // semantic version (e.g., "v1.2.3")
	commit  string // git commit SHA
	date    string // build timestamp
)

// SetVersion sets the version information displayed by --version. Called by
// the main package with values injected via ldflags at build time.
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// Execute runs the uisync CLI under ctx and returns an error if any command
// fails.
//
// Logging defaults to info level on stderr; --verbose (-v) switches to
// debug. The logger is attached to the context and accessible to all
// commands via loggerFromContext.
func Execute(ctx context.Context) error {
	var (
		verbose    bool
		configPath string
	)

	root := &cobra.Command{
		Use:          "uisync",
		Short:        "uisync syncs UI definitions between a document store and a source tree",
		Long:         `uisync synchronizes hierarchical UI definitions between a remote document store and a local filesystem tree, in both directions: pull explodes each record's compressed definition blob into editable source files, push rebuilds and uploads them.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := charmlog.InfoLevel
			if verbose {
				level = charmlog.DebugLevel
			}
			ctx := withLogger(cmd.Context(), newLogger(os.Stderr, level))
			cmd.SetContext(ctx)
		},
	}

	root.SetVersionTemplate(fmt.Sprintf("uisync %s\ncommit: %s\nbuilt: %s\n", version, commit, date))
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default uisync.toml)")

	root.AddCommand(newPullCmd(&configPath, &verbose))
	root.AddCommand(newPushCmd(&configPath, &verbose))
	root.AddCommand(newTreeCmd(&configPath))
	root.AddCommand(newServeCmd(&configPath))
	root.AddCommand(newCacheCmd(&configPath))

	return root.ExecuteContext(ctx)
}
