package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ConfigurationError represents a structured error that occurs during configuration loading
type ConfigurationError struct {
	FilePath    string   `json:"filePath"`    // Full path to the file that caused the error
	ErrorType   string   `json:"errorType"`   // Type of error (io, parse, validation)
	Message     string   `json:"message"`     // Human-readable error message
	Suggestions []string `json:"suggestions"` // Actionable suggestions to fix the error
	Err         error    `json:"-"`
}

// NewConfigurationError creates a configuration error for the given file.
func NewConfigurationError(filePath, errorType, message string, err error) *ConfigurationError {
	ce := &ConfigurationError{
		FilePath:  filePath,
		ErrorType: errorType,
		Message:   message,
		Err:       err,
	}
	switch errorType {
	case "parse":
		ce.Suggestions = []string{"check the file is a mapping of module names to parameter maps"}
	case "validation":
		ce.Suggestions = []string{"module names must be non-empty and contain no spaces or dots"}
	}
	return ce
}

// Error implements the error interface
func (ce *ConfigurationError) Error() string {
	if ce.Err == nil {
		return fmt.Sprintf("%s: %s", filepath.Base(ce.FilePath), ce.Message)
	}
	return fmt.Sprintf("%s: %s: %v", filepath.Base(ce.FilePath), ce.Message, ce.Err)
}

func (ce *ConfigurationError) Unwrap() error {
	return ce.Err
}

// DetailedError returns a detailed error message with all context
func (ce *ConfigurationError) DetailedError() string {
	var parts []string

	parts = append(parts, fmt.Sprintf("Configuration Error in %s", filepath.Base(ce.FilePath)))
	parts = append(parts, fmt.Sprintf("  File: %s", ce.FilePath))
	parts = append(parts, fmt.Sprintf("  Type: %s", ce.ErrorType))
	parts = append(parts, fmt.Sprintf("  Error: %s", ce.Message))

	if ce.Err != nil {
		parts = append(parts, fmt.Sprintf("  Details: %v", ce.Err))
	}

	if len(ce.Suggestions) > 0 {
		parts = append(parts, "  Suggestions:")
		for _, suggestion := range ce.Suggestions {
			parts = append(parts, fmt.Sprintf("    - %s", suggestion))
		}
	}

	return strings.Join(parts, "\n")
}

// IsConfigurationError reports whether err is or wraps a ConfigurationError.
func IsConfigurationError(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}
