package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/modelkit/uisync/pkg/errors"
	"github.com/modelkit/uisync/pkg/layout"
	"github.com/modelkit/uisync/pkg/treeviz"
)

// newTreeCmd creates the tree command: render a record's local definition
// hierarchy as DOT or SVG.
func newTreeCmd(configPath *string) *cobra.Command {
	var (
		dir      string
		output   string
		format   string
		detailed bool
	)

	cmd := &cobra.Command{
		Use:   "tree <record>",
		Short: "Render a record's definition hierarchy",
		Long: `Tree rebuilds a record's definitions from its local subtree and renders
the hierarchy as a Graphviz diagram: definitions under the record, elements
or tab/section trees under each definition.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			record := args[0]

			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if dir != "" {
				cfg.Source = dir
			}

			recordDir := filepath.Join(cfg.Source, record)
			if _, err := os.Stat(recordDir); os.IsNotExist(err) {
				return errors.New(errors.ErrCodeRecordNotFound, "record %s has no local directory under %s", record, cfg.Source)
			}

			defs, err := layout.BuildRecord(recordDir)
			if err != nil {
				return err
			}

			dot := treeviz.ToDOT(record, defs, treeviz.Options{Detailed: detailed})

			var data []byte
			switch format {
			case "dot":
				data = []byte(dot)
			case "svg":
				data, err = treeviz.RenderSVG(cmd.Context(), dot)
				if err != nil {
					return err
				}
			default:
				return errors.New(errors.ErrCodeInvalidInput, "unknown format %q, want dot or svg", format)
			}

			if output == "" {
				output = record + "." + format
			}
			if output == "-" {
				fmt.Print(string(data))
				return nil
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}

			printSuccess("Rendered %s (%d definitions)", record, len(defs))
			printDetail("%s %s", strings.ToUpper(format), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", "", "source directory (overrides config)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default <record>.<format>, - for stdout)")
	cmd.Flags().StringVarP(&format, "format", "f", "svg", "output format: dot or svg")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "annotate nodes with kind and blob info")
	return cmd
}
