package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jirenius/modapp/internal/app"
	"github.com/jirenius/modapp/internal/cli"
	"github.com/jirenius/modapp/internal/formatting"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error.
	ExitCodeError = 1
	// ExitCodeUsage indicates wrong usage: bad flags, a missing manifest or
	// an operation not allowed in the module's current state.
	ExitCodeUsage = 2
	// ExitCodeLoadFailed indicates that requested modules did not load.
	ExitCodeLoadFailed = 3
)

// flags holds the persistent flags shared by every subcommand.
var flags cli.CommandFlags

// rootCmd represents the base command for the modapp application.
var rootCmd = &cobra.Command{
	Use:   "modapp",
	Short: "Load and manage dependency-aware application modules",
	Long: `modapp builds application modules described in a manifest, resolving
the modules each one requires, and keeps them consistent when modules are
deactivated or activated, by hand or through the module configuration file.`,
	// SilenceUsage prevents Cobra from printing the usage message on errors that are handled by the application.
	SilenceUsage: true,
}

// SetVersion sets the version for the root command.
// This function is typically called from the main package to inject the application version at build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application.
// This function is called by main.main().
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "modapp version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(getExitCode(err))
	}
}

// getExitCode determines the appropriate exit code based on the error type.
// This provides semantic exit codes for scripting and automation.
func getExitCode(err error) int {
	if err == nil {
		return ExitCodeSuccess
	}

	if cli.IsLoadFailed(err) {
		return ExitCodeLoadFailed
	}

	if cli.IsUsageError(err) || errors.Is(err, app.ErrNoManifest) || errors.Is(err, app.ErrNoConfigPath) {
		return ExitCodeUsage
	}

	return ExitCodeError
}

// newApplication bootstraps an application from the persistent flags.
// Log output goes to the command's error stream.
func newApplication(cmd *cobra.Command) (*app.Application, error) {
	cfg := app.NewConfig(flags.Debug, flags.ConfigPath, flags.ManifestPath, flags.Query)
	cfg.QueryNamespace = flags.QueryNamespace
	cfg.LogFormat = flags.LogFormat
	cfg.LogOutput = cmd.ErrOrStderr()
	cfg.Silent = flags.Quiet && !flags.Debug

	return app.NewApplication(cfg)
}

// newFormatter builds the formatter selected by the output flags.
func newFormatter() (formatting.Formatter, error) {
	opts, err := flags.FormatterOptions()
	if err != nil {
		return nil, err
	}
	return formatting.New(opts), nil
}

// printOutput writes formatted output to the command's output stream.
func printOutput(cmd *cobra.Command, out string, err error) error {
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), out)
	return err
}

func init() {
	cli.RegisterCommonFlags(rootCmd, &flags)

	rootCmd.AddCommand(newLoadCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newShellCmd())
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newSelfUpdateCmd())
}
