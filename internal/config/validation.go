package config

import (
	"fmt"
	"sort"
	"strings"
)

// ValidationError represents a validation error with context
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (ve ValidationError) Error() string {
	if ve.Field == "" {
		return ve.Message
	}
	return fmt.Sprintf("field '%s': %s", ve.Field, ve.Message)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for multiple validation errors
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	if len(ve) == 1 {
		return ve[0].Error()
	}

	var messages []string
	for _, err := range ve {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, "; "))
}

// HasErrors returns true if there are any validation errors
func (ve ValidationErrors) HasErrors() bool {
	return len(ve) > 0
}

// Add adds a new validation error
func (ve *ValidationErrors) Add(field, message string, value ...interface{}) {
	var val interface{}
	if len(value) > 0 {
		val = value[0]
	}
	*ve = append(*ve, ValidationError{
		Field:   field,
		Value:   val,
		Message: message,
	})
}

// ValidateModuleName checks that a module name can be used as a key in the
// configuration and in dotted query overrides.
func ValidateModuleName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return ValidationError{Field: "name", Value: name, Message: "is required"}
	case strings.ContainsAny(name, " \t"):
		return ValidationError{Field: "name", Value: name, Message: "cannot contain spaces"}
	case strings.Contains(name, "."):
		return ValidationError{Field: "name", Value: name, Message: "cannot contain dots"}
	}
	return nil
}

// ValidateModuleConfig checks module names and the type of the active flag.
func ValidateModuleConfig(cfg ModuleConfig) ValidationErrors {
	var errs ValidationErrors

	names := make([]string, 0, len(cfg))
	for name := range cfg {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := ValidateModuleName(name); err != nil {
			errs = append(errs, err.(ValidationError))
			continue
		}
		if v, ok := cfg[name][ActiveKey]; ok {
			switch v.(type) {
			case nil, bool, string, int, int64, uint64, float64:
			default:
				errs.Add(name+"."+ActiveKey, fmt.Sprintf("must be a boolean, number or string, got %T", v), v)
			}
		}
	}
	return errs
}
