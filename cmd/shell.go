package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jirenius/modapp/internal/cli"
)

func newShellCmd() *cobra.Command {
	var empty bool

	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Start an interactive shell on a live orchestrator",
		Long: `Loads the manifest bundle and starts an interactive shell in which
modules can be loaded, inspected, deactivated and activated. Use --empty to
start without loading the bundle.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter, err := newFormatter()
			if err != nil {
				return err
			}

			application, err := newApplication(cmd)
			if err != nil {
				return err
			}
			defer application.Shutdown()

			if !empty {
				res, err := application.Load(cmd.Context(), nil)
				if err != nil {
					return err
				}
				out, err := formatter.FormatResult(res)
				if err := printOutput(cmd, out, err); err != nil {
					return err
				}
				if res.HasErrors() {
					fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatWarning("Some bundle modules failed to load"))
				}
			}

			return application.RunShell(cmd.Context(), formatter)
		},
	}

	cmd.Flags().BoolVar(&empty, "empty", false, "Start without loading the manifest bundle")
	return cmd
}
