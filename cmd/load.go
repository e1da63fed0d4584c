package cmd

import (
	"github.com/spf13/cobra"

	"github.com/jirenius/modapp/internal/cli"
	"github.com/jirenius/modapp/internal/orchestrator"
)

func newLoadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "load [module...]",
		Short: "Load modules and report the result",
		Long: `Loads the named modules, or the manifest bundle when no names are
given, together with everything they require. Each requested module is
reported as loaded or with the reason it failed.

Exit codes:
  0  every requested module loaded
  2  usage error
  3  one or more requested modules failed to load`,
		Example: `  modapp load -m app.yaml
  modapp load -m app.yaml login screen
  modapp load -m app.yaml --query 'module.login.active=false' -o json`,
		RunE: runLoad,
	}
}

func runLoad(cmd *cobra.Command, args []string) error {
	formatter, err := newFormatter()
	if err != nil {
		return err
	}

	application, err := newApplication(cmd)
	if err != nil {
		return err
	}
	defer application.Shutdown()

	var res orchestrator.Result
	progress := cli.NewProgress(cmd.ErrOrStderr(), flags.Quiet)
	err = progress.Run("Loading modules...", func() error {
		var loadErr error
		res, loadErr = application.Load(cmd.Context(), args)
		return loadErr
	})
	if err != nil {
		return err
	}

	out, err := formatter.FormatResult(res)
	if err := printOutput(cmd, out, err); err != nil {
		return err
	}
	return cli.NewLoadFailedError(res.Errors)
}
