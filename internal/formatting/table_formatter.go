package formatting

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/jirenius/modapp/internal/module"
	"github.com/jirenius/modapp/internal/orchestrator"
	"github.com/jirenius/modapp/internal/reconciler"
)

const maxErrorWidth = 80

// TableFormatter provides rich table output formatting
type TableFormatter struct {
	options Options
}

// NewTableFormatter creates a new table formatter
func NewTableFormatter(options Options) Formatter {
	return &TableFormatter{options: options}
}

// FormatResult renders one row per requested module.
func (f *TableFormatter) FormatResult(res orchestrator.Result) (string, error) {
	rows := ResultRows(res)
	if len(rows) == 0 {
		return f.formatEmptyMessage("No modules requested"), nil
	}

	t := f.createTable()
	t.AppendHeader(table.Row{f.header("MODULE"), f.header("RESULT"), f.header("DETAIL")})
	for _, r := range rows {
		result := f.paint(text.FgGreen, "loaded")
		if !r.Loaded {
			result = f.paint(kindColor(r.Kind), r.Kind)
		}
		t.AppendRow(table.Row{r.Module, result, truncate(r.Error, maxErrorWidth)})
	}

	out := t.Render()
	if !f.options.Quiet {
		out += "\n" + f.summary(len(res.Modules), len(res.Errors))
	}
	return out, nil
}

// FormatStatus renders every module record.
func (f *TableFormatter) FormatStatus(statuses []orchestrator.ModuleStatus) (string, error) {
	if len(statuses) == 0 {
		return f.formatEmptyMessage("No modules loaded"), nil
	}

	t := f.createTable()
	t.AppendHeader(table.Row{
		f.header("MODULE"),
		f.header("STATE"),
		f.header("EXPLICIT"),
		f.header("REQUIRES"),
		f.header("DEPENDANTS"),
		f.header("GEN"),
		f.header("ERROR"),
	})
	for _, st := range statuses {
		explicit := "-"
		if st.Explicit {
			explicit = "yes"
		}
		t.AppendRow(table.Row{
			st.Name,
			f.paint(stateColor(st.State), string(st.State)),
			explicit,
			joinOrDash(st.Requires),
			joinOrDash(st.Dependants),
			st.Generation,
			truncate(st.Error, maxErrorWidth),
		})
	}
	return t.Render(), nil
}

// FormatReport renders the actions of a reconciliation.
func (f *TableFormatter) FormatReport(report reconciler.Report) (string, error) {
	if report.Err != nil {
		return f.paint(text.FgRed, fmt.Sprintf("Reloading %s failed: %v", report.Path, report.Err)) + "\n", nil
	}
	if len(report.Actions) == 0 {
		return f.formatEmptyMessage(fmt.Sprintf("Reloaded %s, nothing to do", report.Path)), nil
	}

	t := f.createTable()
	t.AppendHeader(table.Row{f.header("MODULE"), f.header("ACTION"), f.header("DETAIL")})
	for _, row := range ViewReport(report).Actions {
		detail := row.Reason
		color := text.FgGreen
		switch {
		case row.Error != "":
			detail, color = row.Error, text.FgRed
		case row.Action == string(reconciler.ActionSkip):
			color = text.FgYellow
		}
		t.AppendRow(table.Row{row.Module, f.paint(color, row.Action), truncate(detail, maxErrorWidth)})
	}
	return t.Render(), nil
}

// SetOptions updates the formatter options
func (f *TableFormatter) SetOptions(options Options) {
	f.options = options
}

// GetOptions returns the current formatter options
func (f *TableFormatter) GetOptions() Options {
	return f.options
}

func (f *TableFormatter) createTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	return t
}

func (f *TableFormatter) header(s string) string {
	return f.paint(text.FgHiCyan, s)
}

func (f *TableFormatter) paint(color text.Color, s string) string {
	if !f.options.Color {
		return s
	}
	return color.Sprint(s)
}

func (f *TableFormatter) formatEmptyMessage(message string) string {
	return f.paint(text.FgYellow, message) + "\n"
}

func (f *TableFormatter) summary(loaded, failed int) string {
	parts := []string{fmt.Sprintf("%d loaded", loaded)}
	if failed > 0 {
		parts = append(parts, f.paint(text.FgRed, fmt.Sprintf("%d failed", failed)))
	}
	return f.paint(text.FgHiBlue, "Total: ") + strings.Join(parts, ", ") + "\n"
}

func stateColor(s module.State) text.Color {
	switch {
	case s == module.StateReady:
		return text.FgGreen
	case s == module.StateDeactivated, s == module.StatePassive:
		return text.FgYellow
	case s.IsFailure():
		return text.FgRed
	default:
		return text.FgHiBlue
	}
}

func kindColor(kind string) text.Color {
	if kind == "deactivated" {
		return text.FgYellow
	}
	return text.FgRed
}
