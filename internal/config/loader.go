package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jirenius/modapp/internal/module"
	"github.com/jirenius/modapp/pkg/logging"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

const (
	userConfigDir  = ".config/modapp"
	configFileName = "modules.yaml"
)

// osUserHomeDir is swapped in tests.
var osUserHomeDir = os.UserHomeDir

// DefaultConfigPath returns ~/.config/modapp/modules.yaml.
func DefaultConfigPath() (string, error) {
	homeDir, err := osUserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine user config directory: %w", err)
	}
	return filepath.Join(homeDir, userConfigDir, configFileName), nil
}

// LoadModuleConfig reads module parameters from a YAML or TOML file, picked
// by extension. A missing file yields an empty configuration.
func LoadModuleConfig(path string) (ModuleConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Info("ConfigLoader", "No module configuration found at %s, using defaults", path)
			return ModuleConfig{}, nil
		}
		return nil, NewConfigurationError(path, "io", "cannot read file", err)
	}

	cfg, err := ParseModuleConfig(data, formatFor(path))
	if err != nil {
		return nil, NewConfigurationError(path, "parse", "malformed module configuration", err)
	}

	if verrs := ValidateModuleConfig(cfg); verrs.HasErrors() {
		return nil, NewConfigurationError(path, "validation", "invalid module configuration", verrs)
	}

	logging.Info("ConfigLoader", "Loaded configuration for %d modules from %s", len(cfg), path)
	return cfg, nil
}

// Format is the encoding of a configuration file.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

func formatFor(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return FormatTOML
	}
	return FormatYAML
}

// ParseModuleConfig decodes a configuration document.
func ParseModuleConfig(data []byte, format Format) (ModuleConfig, error) {
	raw := map[string]map[string]any{}

	switch format {
	case FormatTOML:
		if _, err := toml.Decode(string(data), &raw); err != nil {
			return nil, err
		}
	default:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
	}

	cfg := make(ModuleConfig, len(raw))
	for name, params := range raw {
		if params == nil {
			params = map[string]any{}
		}
		cfg[name] = module.Params(params)
	}
	return cfg, nil
}
