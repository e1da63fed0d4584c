package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"sigs.k8s.io/yaml"

	"github.com/jirenius/modapp/internal/config"
	"github.com/jirenius/modapp/pkg/logging"
)

// Manifest declares a set of modules and which of them to load.
type Manifest struct {
	// Bundle lists the modules loaded explicitly, in no particular order.
	Bundle []string `json:"bundle"`
	// Modules describes every module the catalog knows.
	Modules map[string]ModuleSpec `json:"modules"`
}

// ModuleSpec describes one module of a manifest.
type ModuleSpec struct {
	// Requires is declared from the constructor. A nil list means the
	// module does not call Require at all.
	Requires []string `json:"requires,omitempty"`
	// Provided makes a bundle entry load by name with its class fetched
	// through the class callback instead of being registered up front.
	Provided bool `json:"provided,omitempty"`
	// ConstructorError makes the constructor fail with this message.
	ConstructorError string `json:"constructorError,omitempty"`
	// ContinuationError makes the require callback fail with this message.
	ContinuationError string `json:"continuationError,omitempty"`
	// FetchError makes the class callback fail with this message.
	FetchError string `json:"fetchError,omitempty"`
	// FetchDelay holds the class callback back.
	FetchDelay Duration `json:"fetchDelay,omitempty"`
}

// Duration is a time.Duration written as a Go duration string, e.g. "250ms".
type Duration struct {
	time.Duration
}

// UnmarshalJSON accepts a duration string or a number of nanoseconds.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		d.Duration = parsed
		return nil
	}

	var n int64
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("invalid duration %s", string(b))
	}
	d.Duration = time.Duration(n)
	return nil
}

// MarshalJSON writes the duration as a string.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Duration.String())
}

// Load reads and validates the manifest at path. YAML and JSON are both
// accepted.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}

	logging.Info("Manifest", "Loaded %d modules (%d in bundle) from %s", len(m.Modules), len(m.Bundle), path)
	return m, nil
}

// Parse decodes and validates a manifest. Unknown fields are rejected.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.UnmarshalStrict(data, &m); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if m.Modules == nil {
		m.Modules = map[string]ModuleSpec{}
	}
	if errs := m.Validate(); errs.HasErrors() {
		return nil, errs
	}
	return &m, nil
}

// Validate checks names and bundle entries. Requirements naming modules the
// manifest does not describe are allowed; they load as unavailable.
func (m *Manifest) Validate() config.ValidationErrors {
	var errs config.ValidationErrors

	for _, name := range m.Names() {
		if err := config.ValidateModuleName(name); err != nil {
			errs.Add("modules."+name, err.Error(), name)
			continue
		}
		for i, req := range m.Modules[name].Requires {
			if err := config.ValidateModuleName(req); err != nil {
				errs.Add(fmt.Sprintf("modules.%s.requires[%d]", name, i), err.Error(), req)
			}
		}
		if m.Modules[name].FetchDelay.Duration < 0 {
			errs.Add("modules."+name+".fetchDelay", "cannot be negative", m.Modules[name].FetchDelay.String())
		}
	}

	seen := make(map[string]bool, len(m.Bundle))
	for i, name := range m.Bundle {
		field := fmt.Sprintf("bundle[%d]", i)
		switch {
		case seen[name]:
			errs.Add(field, "is listed more than once", name)
		case !m.has(name):
			errs.Add(field, "is not described under modules", name)
		}
		seen[name] = true
	}

	return errs
}

// Names returns the described module names, sorted.
func (m *Manifest) Names() []string {
	names := make([]string, 0, len(m.Modules))
	for name := range m.Modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Marshal encodes the manifest as YAML.
func (m *Manifest) Marshal() ([]byte, error) {
	return yaml.Marshal(m)
}

func (m *Manifest) has(name string) bool {
	_, ok := m.Modules[name]
	return ok
}
