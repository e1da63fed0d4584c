package formatting

import (
	"sort"
	"strings"

	"github.com/jirenius/modapp/internal/module"
	"github.com/jirenius/modapp/internal/orchestrator"
	"github.com/jirenius/modapp/internal/reconciler"
)

// ResultRow is one requested module of a load result.
type ResultRow struct {
	Module string `json:"module" yaml:"module"`
	Loaded bool   `json:"loaded" yaml:"loaded"`
	Kind   string `json:"kind,omitempty" yaml:"kind,omitempty"`
	Error  string `json:"error,omitempty" yaml:"error,omitempty"`
}

// ResultRows flattens a result into rows sorted by module name.
func ResultRows(res orchestrator.Result) []ResultRow {
	rows := make([]ResultRow, 0, len(res.Modules)+len(res.Errors))
	for name := range res.Modules {
		rows = append(rows, ResultRow{Module: name, Loaded: true})
	}
	for name, err := range res.Errors {
		rows = append(rows, ResultRow{Module: name, Kind: ErrorKind(err), Error: err.Error()})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Module < rows[j].Module })
	return rows
}

// ErrorKind names the failure class of a module error.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case module.IsDeactivated(err):
		return "deactivated"
	case module.IsBlocked(err):
		return "blocked"
	case module.IsUnavailable(err):
		return "unavailable"
	case module.IsCircularDependency(err):
		return "circular"
	case module.IsUnknown(err):
		return "error"
	default:
		return "unknown"
	}
}

// ActionRow is one action of a reconciliation report.
type ActionRow struct {
	Module string `json:"module" yaml:"module"`
	Action string `json:"action" yaml:"action"`
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"`
	Error  string `json:"error,omitempty" yaml:"error,omitempty"`
}

// ReportView is the structured form of a reconciliation report.
type ReportView struct {
	Path    string      `json:"path" yaml:"path"`
	Error   string      `json:"error,omitempty" yaml:"error,omitempty"`
	Actions []ActionRow `json:"actions" yaml:"actions"`
}

// ViewReport converts a report for structured output.
func ViewReport(report reconciler.Report) ReportView {
	v := ReportView{Path: report.Path, Actions: []ActionRow{}}
	if report.Err != nil {
		v.Error = report.Err.Error()
	}
	for _, a := range report.Actions {
		row := ActionRow{Module: a.Module, Action: string(a.Type), Reason: a.Reason}
		if a.Err != nil {
			row.Error = a.Err.Error()
		}
		v.Actions = append(v.Actions, row)
	}
	return v
}

// joinOrDash joins names for a table cell.
func joinOrDash(names []string) string {
	if len(names) == 0 {
		return "-"
	}
	return strings.Join(names, ", ")
}

// truncate shortens s to max runes, marking the cut.
func truncate(s string, max int) string {
	r := []rune(s)
	if max <= 3 || len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
