package cmd

import (
	"github.com/spf13/cobra"

	"github.com/jirenius/modapp/internal/cli"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status [module...]",
		Short: "Load modules and show the state of every module record",
		Long: `Loads the named modules, or the manifest bundle when no names are
given, and prints every module the orchestrator knows about: requested and
implicitly required ones, with their state, requirements, dependants and
failure reason. Unlike load, failed modules do not change the exit code.`,
		RunE: runStatus,
	}
}

func runStatus(cmd *cobra.Command, args []string) error {
	formatter, err := newFormatter()
	if err != nil {
		return err
	}

	application, err := newApplication(cmd)
	if err != nil {
		return err
	}
	defer application.Shutdown()

	progress := cli.NewProgress(cmd.ErrOrStderr(), flags.Quiet)
	err = progress.Run("Loading modules...", func() error {
		_, loadErr := application.Load(cmd.Context(), args)
		return loadErr
	})
	if err != nil {
		return err
	}

	out, err := formatter.FormatStatus(application.Orchestrator().Status())
	return printOutput(cmd, out, err)
}
