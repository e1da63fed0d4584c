package formatting

import (
	"fmt"
	"strings"

	"github.com/jirenius/modapp/internal/orchestrator"
	"github.com/jirenius/modapp/internal/reconciler"
)

// ConsoleFormatter provides simple console output formatting
type ConsoleFormatter struct {
	options Options
}

// NewConsoleFormatter creates a new console formatter
func NewConsoleFormatter(options Options) Formatter {
	return &ConsoleFormatter{options: options}
}

func (f *ConsoleFormatter) FormatResult(res orchestrator.Result) (string, error) {
	var b strings.Builder
	for _, r := range ResultRows(res) {
		if r.Loaded {
			fmt.Fprintf(&b, "✓ %s\n", r.Module)
			continue
		}
		fmt.Fprintf(&b, "✗ %s: %s\n", r.Module, r.Error)
	}
	if !f.options.Quiet {
		fmt.Fprintf(&b, "%d loaded, %d failed\n", len(res.Modules), len(res.Errors))
	}
	return b.String(), nil
}

func (f *ConsoleFormatter) FormatStatus(statuses []orchestrator.ModuleStatus) (string, error) {
	if len(statuses) == 0 {
		return "No modules loaded.\n", nil
	}

	var b strings.Builder
	for _, st := range statuses {
		fmt.Fprintf(&b, "%-24s %s", st.Name, st.State)
		if st.Error != "" {
			fmt.Fprintf(&b, "  (%s)", st.Error)
		}
		b.WriteString("\n")
	}
	return b.String(), nil
}

func (f *ConsoleFormatter) FormatReport(report reconciler.Report) (string, error) {
	if report.Err != nil {
		return fmt.Sprintf("reload %s failed: %v\n", report.Path, report.Err), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "reloaded %s\n", report.Path)
	for _, a := range ViewReport(report).Actions {
		switch {
		case a.Error != "":
			fmt.Fprintf(&b, "  %s %s: %s\n", a.Action, a.Module, a.Error)
		case a.Reason != "":
			fmt.Fprintf(&b, "  %s %s (%s)\n", a.Action, a.Module, a.Reason)
		default:
			fmt.Fprintf(&b, "  %s %s\n", a.Action, a.Module)
		}
	}
	return b.String(), nil
}

// SetOptions updates the formatter options
func (f *ConsoleFormatter) SetOptions(options Options) {
	f.options = options
}

// GetOptions returns the current formatter options
func (f *ConsoleFormatter) GetOptions() Options {
	return f.options
}
