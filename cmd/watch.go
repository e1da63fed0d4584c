package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jirenius/modapp/internal/cli"
	"github.com/jirenius/modapp/internal/reconciler"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch [module...]",
		Short: "Load modules and follow changes of the module configuration",
		Long: `Loads the named modules, or the manifest bundle, then watches the module
configuration file. Whenever a module's active flag changes in the file the
module is deactivated or activated, along with the modules that require it.
A file that fails to load leaves the running modules untouched.

Runs until interrupted. When started by systemd as a Type=notify service,
readiness is reported once the file is being watched.`,
		RunE: runWatch,
	}
}

func runWatch(cmd *cobra.Command, args []string) error {
	formatter, err := newFormatter()
	if err != nil {
		return err
	}

	application, err := newApplication(cmd)
	if err != nil {
		return err
	}
	defer application.Shutdown()

	res, err := application.Load(cmd.Context(), args)
	if err != nil {
		return err
	}
	out, err := formatter.FormatResult(res)
	if err := printOutput(cmd, out, err); err != nil {
		return err
	}

	return application.RunWatch(cmd.Context(), func(report reconciler.Report) {
		out, err := formatter.FormatReport(report)
		if err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatError(err))
			return
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
	})
}
