package cli

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jirenius/modapp/internal/module"
)

// UsageError indicates the command was used wrongly: bad flags, unknown
// modules or an orchestrator operation called in the wrong state.
type UsageError struct {
	Err error
}

func (e *UsageError) Error() string {
	return e.Err.Error()
}

func (e *UsageError) Unwrap() error {
	return e.Err
}

// NewUsageError wraps err as a UsageError.
func NewUsageError(format string, args ...interface{}) error {
	return &UsageError{Err: fmt.Errorf(format, args...)}
}

// LoadFailedError indicates that a load completed but some requested modules
// did not become ready.
type LoadFailedError struct {
	Failed []string
}

func (e *LoadFailedError) Error() string {
	names := append([]string(nil), e.Failed...)
	sort.Strings(names)
	if len(names) == 1 {
		return fmt.Sprintf("module %s failed to load", names[0])
	}
	return fmt.Sprintf("%d modules failed to load: %s", len(names), strings.Join(names, ", "))
}

// NewLoadFailedError returns a LoadFailedError for the failed names, or nil
// if there are none.
func NewLoadFailedError(errs map[string]error) error {
	if len(errs) == 0 {
		return nil
	}
	failed := make([]string, 0, len(errs))
	for name := range errs {
		failed = append(failed, name)
	}
	sort.Strings(failed)
	return &LoadFailedError{Failed: failed}
}

// IsUsageError reports whether err is a usage error. Misuse errors of the
// orchestrator count as usage errors too.
func IsUsageError(err error) bool {
	var usage *UsageError
	if errors.As(err, &usage) {
		return true
	}
	return module.IsStateError(err) ||
		errors.Is(err, module.ErrRequireOutsideConstruction) ||
		errors.Is(err, module.ErrRequireAlreadyCalled) ||
		errors.Is(err, module.ErrClassRegistered)
}

// IsLoadFailed reports whether err is a LoadFailedError.
func IsLoadFailed(err error) bool {
	var failed *LoadFailedError
	return errors.As(err, &failed)
}
