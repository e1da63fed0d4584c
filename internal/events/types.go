package events

import (
	"time"

	"github.com/jirenius/modapp/internal/module"
)

// EventType represents the severity of an event.
type EventType string

const (
	// EventTypeNormal indicates normal, non-problematic events.
	EventTypeNormal EventType = "Normal"

	// EventTypeWarning indicates events that may require attention.
	EventTypeWarning EventType = "Warning"
)

// EventReason represents the reason code for an event.
type EventReason string

// Module lifecycle reasons. All but the last three mirror a state transition.
const (
	// ReasonModuleLoading indicates a resolution attempt started.
	ReasonModuleLoading EventReason = "ModuleLoading"

	// ReasonModuleRequiring indicates the module was constructed and waits for its requirements.
	ReasonModuleRequiring EventReason = "ModuleRequiring"

	// ReasonModuleReady indicates the module instance is available.
	ReasonModuleReady EventReason = "ModuleReady"

	// ReasonModulePassive indicates an implicit module was released.
	ReasonModulePassive EventReason = "ModulePassive"

	// ReasonModuleDeactivated indicates the module was switched off.
	ReasonModuleDeactivated EventReason = "ModuleDeactivated"

	// ReasonModuleBlocked indicates one or more requirements failed.
	ReasonModuleBlocked EventReason = "ModuleBlocked"

	// ReasonModuleUnavailable indicates no constructor could be obtained.
	ReasonModuleUnavailable EventReason = "ModuleUnavailable"

	// ReasonModuleCircularDependency indicates the module is part of a require cycle.
	ReasonModuleCircularDependency EventReason = "ModuleCircularDependency"

	// ReasonModuleFailed indicates the constructor failed.
	ReasonModuleFailed EventReason = "ModuleFailed"

	// ReasonModuleDisposed indicates the disposal hook of an instance ran.
	ReasonModuleDisposed EventReason = "ModuleDisposed"

	// ReasonContinuationFailed indicates the require callback of a ready module failed.
	ReasonContinuationFailed EventReason = "ContinuationFailed"

	// ReasonConfigReloaded indicates the module configuration file changed.
	ReasonConfigReloaded EventReason = "ConfigReloaded"
)

var stateReasons = map[module.State]EventReason{
	module.StateLoading:            ReasonModuleLoading,
	module.StateRequire:            ReasonModuleRequiring,
	module.StateReady:              ReasonModuleReady,
	module.StatePassive:            ReasonModulePassive,
	module.StateDeactivated:        ReasonModuleDeactivated,
	module.StateBlocked:            ReasonModuleBlocked,
	module.StateUnavailable:        ReasonModuleUnavailable,
	module.StateCircularDependency: ReasonModuleCircularDependency,
	module.StateFailed:             ReasonModuleFailed,
}

// ReasonForState returns the reason reported when a module enters state.
func ReasonForState(state module.State) EventReason {
	if reason, ok := stateReasons[state]; ok {
		return reason
	}
	return EventReason("Module" + string(state))
}

// EventData holds contextual information for event message templating.
type EventData struct {
	// Name is the module the event is about.
	Name string

	OldState module.State
	NewState module.State

	// Requires is the require list of the module, if known.
	Requires []string

	// BlockedBy names the failed requirements of a blocked module.
	BlockedBy []string

	// Chain is the require cycle of a circular module.
	Chain []string

	// Error contains error information for failure events.
	Error string

	// Err is the error itself; it is not used by templates.
	Err error
}

// Event is a single published lifecycle event.
type Event struct {
	ID        string
	Module    string
	OldState  module.State
	NewState  module.State
	Reason    EventReason
	Type      EventType
	Message   string
	Err       error
	Timestamp time.Time
}

// getEventType returns the appropriate EventType for a given EventReason.
func getEventType(reason EventReason) EventType {
	switch reason {
	case ReasonModuleBlocked,
		ReasonModuleUnavailable,
		ReasonModuleCircularDependency,
		ReasonModuleFailed,
		ReasonContinuationFailed:
		return EventTypeWarning
	default:
		return EventTypeNormal
	}
}

// DataFor builds the template data describing a record that just entered
// its current state.
func DataFor(rec *module.Record, old module.State) EventData {
	data := EventData{
		Name:     rec.Name,
		OldState: old,
		NewState: rec.State,
		Requires: append([]string(nil), rec.Requires...),
		Err:      rec.Err,
	}
	if rec.Err != nil {
		data.Error = rec.Err.Error()
	}

	switch err := rec.Err.(type) {
	case *module.BlockedError:
		data.BlockedBy = err.BlockerNames()
	case *module.CircularDependencyError:
		data.Chain = append([]string(nil), err.Chain...)
	}
	return data
}
