// Package formatting renders load results, module status and reconciliation
// reports for the CLI and the interactive shell.
//
// Every formatter returns a string so callers decide where output goes.
// Table output uses go-pretty, structured output uses encoding/json and
// gopkg.in/yaml.v3 on the row types defined in rows.go.
package formatting

import (
	"fmt"
	"strings"

	"github.com/jirenius/modapp/internal/orchestrator"
	"github.com/jirenius/modapp/internal/reconciler"
)

// OutputFormat represents the desired output format
type OutputFormat string

const (
	FormatConsole OutputFormat = "console" // One line per module
	FormatJSON    OutputFormat = "json"
	FormatYAML    OutputFormat = "yaml"
	FormatTable   OutputFormat = "table" // Rich table output
)

// ParseFormat converts a flag value to an OutputFormat.
func ParseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatTable, nil
	case FormatConsole, FormatJSON, FormatYAML, FormatTable:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (use table, console, json or yaml)", s)
	}
}

// Options configures the formatter behavior
type Options struct {
	Format OutputFormat
	Quiet  bool // Suppress decorative elements
	Color  bool // Enable colored output
}

// Formatter renders orchestrator data.
type Formatter interface {
	FormatResult(res orchestrator.Result) (string, error)
	FormatStatus(statuses []orchestrator.ModuleStatus) (string, error)
	FormatReport(report reconciler.Report) (string, error)

	SetOptions(options Options)
	GetOptions() Options
}

// New creates the formatter for options.Format.
func New(options Options) Formatter {
	switch options.Format {
	case FormatJSON:
		return NewJSONFormatter(options)
	case FormatYAML:
		return NewYAMLFormatter(options)
	case FormatConsole:
		return NewConsoleFormatter(options)
	default:
		return NewTableFormatter(options)
	}
}
