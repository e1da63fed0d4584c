package module

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// DeactivatedError is the failure of a module whose configuration marks it
// inactive, or which has been deactivated through the orchestrator.
type DeactivatedError struct {
	Module string
}

func (e *DeactivatedError) Error() string {
	return fmt.Sprintf("Module %s is deactivated.", e.Module)
}

// BlockedError is the failure of a module that could not load because one or
// more of the modules it requires failed.
//
// BlockedBy is restricted to the failed direct requirements; the failure of a
// transitive requirement shows up as a BlockedError of the direct one.
type BlockedError struct {
	Module    string
	BlockedBy map[string]error
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("Module %s is blocked by %s.", e.Module, strings.Join(e.BlockerNames(), ", "))
}

// BlockerNames returns the sorted names of the modules blocking e.Module.
func (e *BlockedError) BlockerNames() []string {
	names := make([]string, 0, len(e.BlockedBy))
	for name := range e.BlockedBy {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// UnavailableError is the failure of a module whose constructor could not be
// obtained from the class provider.
type UnavailableError struct {
	Module string
	Err    error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("Module %s is unavailable: %v", e.Module, e.Err)
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}

// CircularDependencyError is the failure of a module that takes part in a
// require chain leading back to itself. Chain starts with Module.
type CircularDependencyError struct {
	Module string
	Chain  []string
}

func (e *CircularDependencyError) Error() string {
	return fmt.Sprintf("Circular dependency: %s > %s.", strings.Join(e.Chain, " > "), e.Module)
}

// UnknownError is the failure of a module whose constructor returned an
// error or panicked.
type UnknownError struct {
	Module string
	Err    error
}

func (e *UnknownError) Error() string {
	return fmt.Sprintf("Module %s encountered an error: %v", e.Module, e.Err)
}

func (e *UnknownError) Unwrap() error {
	return e.Err
}

// IsDeactivated reports whether err is or wraps a DeactivatedError.
func IsDeactivated(err error) bool {
	var target *DeactivatedError
	return errors.As(err, &target)
}

// IsBlocked reports whether err is or wraps a BlockedError.
func IsBlocked(err error) bool {
	var target *BlockedError
	return errors.As(err, &target)
}

// IsUnavailable reports whether err is or wraps an UnavailableError.
func IsUnavailable(err error) bool {
	var target *UnavailableError
	return errors.As(err, &target)
}

// IsCircularDependency reports whether err is or wraps a CircularDependencyError.
func IsCircularDependency(err error) bool {
	var target *CircularDependencyError
	return errors.As(err, &target)
}

// IsUnknown reports whether err is or wraps an UnknownError.
func IsUnknown(err error) bool {
	var target *UnknownError
	return errors.As(err, &target)
}

// Misuse errors. These are returned to the caller of the offending operation
// and never stored on a record.
var (
	// ErrRequireOutsideConstruction is returned by Require when it is not
	// called from within the constructor the handle was created for.
	ErrRequireOutsideConstruction = errors.New("require may only be called from a module constructor while it is being created by the orchestrator")

	// ErrRequireAlreadyCalled is returned by a second Require during the same construction.
	ErrRequireAlreadyCalled = errors.New("require has already been called for this construction")

	// ErrClassRegistered is returned when a bundle registers a class for a
	// name that already has one. Replacing a loaded class is not supported.
	ErrClassRegistered = errors.New("module class already registered")

	// ErrNoClassProvider is the cause of an UnavailableError when no class
	// callback is configured and the class was never registered.
	ErrNoClassProvider = errors.New("no module class callback available")
)

// StateError is returned by Activate and Deactivate when the module is not in
// a state that allows the operation.
type StateError struct {
	Module string
	Op     string
	// State is the module's current state, empty if the module is unknown.
	State State
}

func (e *StateError) Error() string {
	switch {
	case e.State == "":
		return fmt.Sprintf("Module %s is not loaded.", e.Module)
	case e.Op == "activate":
		return fmt.Sprintf("Module %s is not deactivated.", e.Module)
	default:
		return fmt.Sprintf("cannot %s module %s while in state %s", e.Op, e.Module, e.State)
	}
}

// IsStateError reports whether err is or wraps a StateError.
func IsStateError(err error) bool {
	var target *StateError
	return errors.As(err, &target)
}
