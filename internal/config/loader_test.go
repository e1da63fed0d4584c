package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jirenius/modapp/internal/module"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Helper function to create a temporary config file
func createTempConfigFile(t *testing.T, dir, filename, content string) string {
	t.Helper()
	path := filepath.Join(dir, filename)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefaultConfigPath(t *testing.T) {
	tempDir := t.TempDir()

	originalOsUserHomeDir := osUserHomeDir
	defer func() { osUserHomeDir = originalOsUserHomeDir }()
	osUserHomeDir = func() (string, error) { return tempDir, nil }

	path, err := DefaultConfigPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tempDir, ".config", "modapp", "modules.yaml"), path)
}

func TestLoadModuleConfig_MissingFile(t *testing.T) {
	cfg, err := LoadModuleConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Empty(t, cfg)
}

func TestLoadModuleConfig_YAML(t *testing.T) {
	path := createTempConfigFile(t, t.TempDir(), "modules.yaml", `
login:
  user: guest
  timeout: 30
inactive:
  active: false
empty:
`)

	cfg, err := LoadModuleConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "guest", cfg["login"]["user"])
	assert.Equal(t, 30, cfg["login"]["timeout"])
	assert.Equal(t, false, cfg["inactive"][ActiveKey])
	assert.NotNil(t, cfg["empty"])
	assert.False(t, IsActive(cfg["inactive"]))
	assert.True(t, IsActive(cfg["login"]))
}

func TestLoadModuleConfig_TOML(t *testing.T) {
	path := createTempConfigFile(t, t.TempDir(), "modules.toml", `
[login]
user = "guest"
timeout = 30

[inactive0]
active = 0
`)

	cfg, err := LoadModuleConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "guest", cfg["login"]["user"])
	assert.Equal(t, int64(30), cfg["login"]["timeout"])
	assert.False(t, IsActive(cfg["inactive0"]))
}

func TestLoadModuleConfig_Errors(t *testing.T) {
	tests := []struct {
		name      string
		filename  string
		content   string
		errorType string
	}{
		{"malformed yaml", "bad.yaml", "login: [unclosed", "parse"},
		{"scalar module entry", "scalar.yaml", "login: 5", "parse"},
		{"malformed toml", "bad.toml", "[login\nuser=", "parse"},
		{"dotted module name", "dots.yaml", "a.b:\n  x: 1", "validation"},
		{"list as active flag", "active.yaml", "a:\n  active: [1, 2]", "validation"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := createTempConfigFile(t, t.TempDir(), tt.filename, tt.content)

			_, err := LoadModuleConfig(path)
			require.Error(t, err)
			assert.True(t, IsConfigurationError(err))

			var ce *ConfigurationError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.errorType, ce.ErrorType)
			assert.Contains(t, ce.DetailedError(), path)
		})
	}
}

func TestModuleConfig_Clone(t *testing.T) {
	cfg := ModuleConfig{"a": module.Params{"x": 1}}
	clone := cfg.Clone()
	clone["a"]["x"] = 2
	clone["b"] = module.Params{}

	assert.Equal(t, 1, cfg["a"]["x"])
	assert.NotContains(t, cfg, "b")
	assert.Nil(t, ModuleConfig(nil).Clone())
}

func TestValidateModuleName(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"login", false},
		{"inactiveStringNO", false},
		{"", true},
		{"  ", true},
		{"with space", true},
		{"a.b", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateModuleName(tt.name)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
