package app

import (
	"io"
)

// Config holds the application configuration
type Config struct {
	// Debug enables debug logging
	Debug bool

	// Silent suppresses log output entirely
	Silent bool

	// LogFormat is "text" or "json"
	LogFormat string

	// LogOutput receives log entries. Defaults to os.Stderr.
	LogOutput io.Writer

	// ConfigPath is the module configuration file. A missing file means
	// every module runs with its defaults.
	ConfigPath string

	// ManifestPath describes the modules the application can build.
	ManifestPath string

	// Query holds parameter overrides in query string form
	Query string

	// QueryNamespace is the key prefix of query overrides
	QueryNamespace string

	// MaxConcurrentRequires limits parallel requirement resolution per
	// module. Zero means no limit.
	MaxConcurrentRequires int
}

// NewConfig creates a new application configuration
func NewConfig(debug bool, configPath, manifestPath, query string) *Config {
	return &Config{
		Debug:        debug,
		LogFormat:    "text",
		ConfigPath:   configPath,
		ManifestPath: manifestPath,
		Query:        query,
	}
}
