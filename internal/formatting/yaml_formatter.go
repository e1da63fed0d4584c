package formatting

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/jirenius/modapp/internal/orchestrator"
	"github.com/jirenius/modapp/internal/reconciler"
)

// YAMLFormatter provides YAML output formatting
type YAMLFormatter struct {
	options Options
}

// NewYAMLFormatter creates a new YAML formatter
func NewYAMLFormatter(options Options) Formatter {
	return &YAMLFormatter{options: options}
}

func (f *YAMLFormatter) FormatResult(res orchestrator.Result) (string, error) {
	return f.marshal(ResultRows(res))
}

func (f *YAMLFormatter) FormatStatus(statuses []orchestrator.ModuleStatus) (string, error) {
	if statuses == nil {
		statuses = []orchestrator.ModuleStatus{}
	}
	return f.marshal(statuses)
}

func (f *YAMLFormatter) FormatReport(report reconciler.Report) (string, error) {
	return f.marshal(ViewReport(report))
}

// SetOptions updates the formatter options
func (f *YAMLFormatter) SetOptions(options Options) {
	f.options = options
}

// GetOptions returns the current formatter options
func (f *YAMLFormatter) GetOptions() Options {
	return f.options
}

func (f *YAMLFormatter) marshal(data any) (string, error) {
	yamlBytes, err := yaml.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("format yaml: %w", err)
	}
	return string(yamlBytes), nil
}
