// Package cli holds the pieces shared by the modapp commands: the common
// flag set, the spinner shown during long operations, message helpers and
// the error types the root command maps to exit codes.
//
//	var flags cli.CommandFlags
//	cli.RegisterCommonFlags(rootCmd, &flags)
//
//	p := cli.NewProgress(os.Stderr, flags.Quiet)
//	err := p.Run("Loading modules...", func() error { ... })
package cli
