package reconciler

import (
	"context"
	"time"

	"github.com/jirenius/modapp/internal/config"
	"github.com/jirenius/modapp/internal/module"
)

// ChangeEvent represents a detected change of the watched configuration file.
type ChangeEvent struct {
	// Path is the file that changed.
	Path string

	// Operation describes what kind of change occurred.
	Operation ChangeOperation

	// Timestamp is when the change was detected.
	Timestamp time.Time
}

// ChangeOperation represents the type of change detected.
type ChangeOperation string

const (
	// OperationCreate indicates the file was created.
	OperationCreate ChangeOperation = "Create"

	// OperationUpdate indicates the file was modified.
	OperationUpdate ChangeOperation = "Update"

	// OperationDelete indicates the file was removed or renamed away.
	OperationDelete ChangeOperation = "Delete"
)

// Target is the part of the orchestrator the reconciler drives.
type Target interface {
	State(name string) (module.State, bool)
	Params(name string) module.Params
	SetModuleConfig(cfg config.ModuleConfig)
	Deactivate(name string) error
	Activate(ctx context.Context, name string) (any, error)
}

// ActionType is what the reconciler did to a module.
type ActionType string

const (
	ActionDeactivate ActionType = "deactivate"
	ActionActivate   ActionType = "activate"
	ActionSkip       ActionType = "skip"
)

// Action is one step taken while applying a configuration.
type Action struct {
	Module string     `json:"module" yaml:"module"`
	Type   ActionType `json:"type" yaml:"type"`
	Reason string     `json:"reason,omitempty" yaml:"reason,omitempty"`
	Err    error      `json:"-" yaml:"-"`
}

// Report is the outcome of one reconciliation.
type Report struct {
	Path    string
	Actions []Action
	// Err is set when the configuration could not be loaded. The previous
	// configuration stays in effect.
	Err error
}

// Failed reports whether loading failed or any action failed.
func (r Report) Failed() bool {
	if r.Err != nil {
		return true
	}
	for _, a := range r.Actions {
		if a.Err != nil {
			return true
		}
	}
	return false
}
