package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/crosspack/crosspack/internal/config"
	"github.com/crosspack/crosspack/internal/shims"
)

var shimsCmd = &cobra.Command{
	Use:   "shims",
	Short: "Show the resolved shim descriptors for a configuration",
	Long: `Resolve the configured capability options into the ordered shim
descriptor lists, exactly as the build would inject them: the distributed
list for shipped code and the test list for test code.`,
	RunE: runShims,
}

var (
	shimsConfigPath string
	shimsJSON       bool
)

func init() {
	shimsCmd.Flags().StringVarP(&shimsConfigPath, "config", "c", "crosspack.yaml", "configuration file")
	shimsCmd.Flags().BoolVar(&shimsJSON, "json", false, "output the descriptor lists as JSON")

	rootCmd.AddCommand(shimsCmd)
}

func runShims(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(shimsConfigPath)
	if err != nil {
		return err
	}

	resolved := shims.Resolve(cfg.Shims.Options())

	if shimsJSON {
		data, err := json.MarshalIndent(resolved, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal shim descriptors: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	renderShims(cmd.OutOrStdout(), resolved)
	return nil
}

func renderShims(w io.Writer, resolved shims.Resolved) {
	if resolved.Empty() {
		fmt.Fprintln(w, "no shims configured")
		return
	}
	renderShimList(w, "distributed", resolved.Dist)
	renderShimList(w, "test", resolved.Test)
}

func renderShimList(w io.Writer, scope string, list []shims.Descriptor) {
	fmt.Fprintf(w, "%s (%d):\n", scope, len(list))
	for _, d := range list {
		fmt.Fprintf(w, "  %s@%s", d.Package, d.Version)
		for _, g := range d.Globals {
			if g.TypeOnly {
				fmt.Fprintf(w, " %s(types)", g.Name)
			} else {
				fmt.Fprintf(w, " %s", g.Name)
			}
		}
		fmt.Fprintln(w)
	}
}
