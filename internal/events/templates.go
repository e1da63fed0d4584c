package events

import (
	"bytes"
	"fmt"
	"sync"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

var defaultTemplates = map[EventReason]string{
	ReasonModuleLoading:            "Module {{.Name}} is loading",
	ReasonModuleRequiring:          `Module {{.Name}} requires {{if .Requires}}{{join ", " .Requires}}{{else}}nothing{{end}}`,
	ReasonModuleReady:              "Module {{.Name}} is ready",
	ReasonModulePassive:            "Module {{.Name}} was released as no active module requires it",
	ReasonModuleDeactivated:        "Module {{.Name}} is deactivated",
	ReasonModuleBlocked:            `Module {{.Name}} is blocked by {{.BlockedBy | sortAlpha | join ", "}}`,
	ReasonModuleUnavailable:        "Module {{.Name}} is unavailable{{if .Error}}: {{.Error}}{{end}}",
	ReasonModuleCircularDependency: `Module {{.Name}} is part of a circular dependency: {{join " > " .Chain}}`,
	ReasonModuleFailed:             "Module {{.Name}} failed{{if .Error}}: {{.Error}}{{end}}",
	ReasonModuleDisposed:           "Module {{.Name}} instance disposed",
	ReasonContinuationFailed:       "Require callback of module {{.Name}} failed{{if .Error}}: {{.Error}}{{end}}",
	ReasonConfigReloaded:           "Module configuration reloaded{{if .Error}} with errors: {{.Error}}{{end}}",
}

// MessageTemplateEngine provides dynamic message generation for events.
// Templates use text/template syntax with the sprig function library.
type MessageTemplateEngine struct {
	mu        sync.RWMutex
	sources   map[EventReason]string
	templates map[EventReason]*template.Template
}

// NewMessageTemplateEngine creates a new message template engine with default templates.
func NewMessageTemplateEngine() *MessageTemplateEngine {
	engine := &MessageTemplateEngine{
		sources:   make(map[EventReason]string),
		templates: make(map[EventReason]*template.Template),
	}
	for reason, src := range defaultTemplates {
		if err := engine.SetTemplate(reason, src); err != nil {
			panic(fmt.Sprintf("default template for %s: %v", reason, err))
		}
	}
	return engine
}

// Render generates a message for the given event reason and data.
func (e *MessageTemplateEngine) Render(reason EventReason, data EventData) string {
	e.mu.RLock()
	tmpl, exists := e.templates[reason]
	e.mu.RUnlock()
	if !exists {
		// Fallback for unknown event reasons
		return fmt.Sprintf("Event: %s for %s", string(reason), data.Name)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Sprintf("Event: %s for %s (template error: %v)", string(reason), data.Name, err)
	}
	return buf.String()
}

// SetTemplate allows customizing the message template for a specific event reason.
func (e *MessageTemplateEngine) SetTemplate(reason EventReason, src string) error {
	tmpl, err := template.New(string(reason)).Funcs(sprig.TxtFuncMap()).Parse(src)
	if err != nil {
		return fmt.Errorf("parse template for %s: %w", reason, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.sources[reason] = src
	e.templates[reason] = tmpl
	return nil
}

// GetTemplate returns the template for a specific event reason.
func (e *MessageTemplateEngine) GetTemplate(reason EventReason) (string, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	src, exists := e.sources[reason]
	return src, exists
}
