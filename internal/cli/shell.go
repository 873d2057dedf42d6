package cli

import (
	"encoding/json"
	"net/http"

	"github.com/spf13/cobra"

	"stockmaster/internal/shell"
)

func newShellCmd(e *env) *cobra.Command {
	var probe bool
	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Print the desktop window and menu layout as JSON",
		Long: `Prints the layout the native wrapper renders. With --probe the connectivity
check runs first, so the menu bar label and the unsaved-data menu reflect it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			layout := shell.BuildLayout(e.cfg.Shell)
			if probe {
				url := e.cfg.Shell.ProbeURL
				if url == "" {
					url = shell.DefaultProbeURL
				}
				layout.SetConnectivity(shell.Probe(cmd.Context(), &http.Client{}, url, e.cfg.Shell.ProbeTimeout))
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(layout)
		},
	}
	cmd.Flags().BoolVar(&probe, "probe", false, "probe connectivity before printing")
	return cmd
}
