package formatting

import (
	"github.com/jirenius/modapp/internal/orchestrator"
	"github.com/jirenius/modapp/internal/reconciler"
)

// JSONFormatter provides JSON output formatting
type JSONFormatter struct {
	options Options
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter(options Options) Formatter {
	return &JSONFormatter{options: options}
}

func (f *JSONFormatter) FormatResult(res orchestrator.Result) (string, error) {
	return f.marshal(ResultRows(res))
}

func (f *JSONFormatter) FormatStatus(statuses []orchestrator.ModuleStatus) (string, error) {
	if statuses == nil {
		statuses = []orchestrator.ModuleStatus{}
	}
	return f.marshal(statuses)
}

func (f *JSONFormatter) FormatReport(report reconciler.Report) (string, error) {
	return f.marshal(ViewReport(report))
}

// SetOptions updates the formatter options
func (f *JSONFormatter) SetOptions(options Options) {
	f.options = options
}

// GetOptions returns the current formatter options
func (f *JSONFormatter) GetOptions() Options {
	return f.options
}

func (f *JSONFormatter) marshal(v any) (string, error) {
	s, err := marshalJSON(v)
	if err != nil {
		return "", err
	}
	return s + "\n", nil
}
