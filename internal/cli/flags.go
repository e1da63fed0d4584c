package cli

import (
	"github.com/spf13/cobra"

	"github.com/jirenius/modapp/internal/config"
	"github.com/jirenius/modapp/internal/formatting"
)

// CommandFlags holds the flag values shared by every command that builds an
// orchestrator.
type CommandFlags struct {
	// OutputFormat specifies the desired output format (table, console, json, yaml)
	OutputFormat string
	// Quiet suppresses progress indicators and non-essential output
	Quiet bool
	// Debug enables debug logging
	Debug bool
	// LogFormat selects text or json log output
	LogFormat string
	// NoColor disables colored output
	NoColor bool
	// ConfigPath is the module configuration file
	ConfigPath string
	// ManifestPath is the module manifest
	ManifestPath string
	// Query holds parameter overrides in query string form
	Query string
	// QueryNamespace is the key prefix query overrides must carry
	QueryNamespace string
}

// RegisterCommonFlags registers the shared flags as persistent flags of cmd.
//
// The registered flags are:
//   - --output/-o: Output format (table, console, json, yaml), default: "table"
//   - --quiet/-q: Suppress non-essential output
//   - --debug: Enable debug logging
//   - --log-format: text or json
//   - --no-color: Disable colored output
//   - --config/-c: Module configuration file (YAML or TOML)
//   - --manifest/-m: Module manifest
//   - --query: Parameter overrides (env: MODAPP_QUERY)
//   - --query-namespace: Prefix of query override keys
func RegisterCommonFlags(cmd *cobra.Command, flags *CommandFlags) {
	defaultConfig, err := config.DefaultConfigPath()
	if err != nil {
		defaultConfig = ""
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&flags.OutputFormat, "output", "o", string(formatting.FormatTable), "Output format (table, console, json, yaml)")
	pf.BoolVarP(&flags.Quiet, "quiet", "q", false, "Suppress non-essential output")
	pf.BoolVar(&flags.Debug, "debug", false, "Enable debug logging")
	pf.StringVar(&flags.LogFormat, "log-format", "text", "Log format (text, json)")
	pf.BoolVar(&flags.NoColor, "no-color", false, "Disable colored output")
	pf.StringVarP(&flags.ConfigPath, "config", "c", defaultConfig, "Module configuration file (YAML or TOML)")
	pf.StringVarP(&flags.ManifestPath, "manifest", "m", "", "Module manifest (YAML or JSON)")
	pf.StringVar(&flags.Query, "query", config.QueryFromEnv(), "Parameter overrides, e.g. module.login.active=false (env: "+config.QueryEnvVar+")")
	pf.StringVar(&flags.QueryNamespace, "query-namespace", config.DefaultQueryNamespace, "Prefix of query override keys")
}

// FormatterOptions converts the output flags to formatter options.
func (f *CommandFlags) FormatterOptions() (formatting.Options, error) {
	format, err := formatting.ParseFormat(f.OutputFormat)
	if err != nil {
		return formatting.Options{}, &UsageError{Err: err}
	}
	return formatting.Options{
		Format: format,
		Quiet:  f.Quiet,
		Color:  !f.NoColor,
	}, nil
}
