package config

import (
	"github.com/jirenius/modapp/internal/module"
)

// ActiveKey is the parameter that switches a module off when falsy.
const ActiveKey = "active"

// DefaultQueryNamespace is the namespace query overrides live under unless
// another one is configured, as in "module.login.user=alice".
const DefaultQueryNamespace = "module"

// ModuleConfig maps module names to their static parameters.
type ModuleConfig map[string]module.Params

// Clone returns a copy of c. Parameter maps are copied one level deep.
func (c ModuleConfig) Clone() ModuleConfig {
	if c == nil {
		return nil
	}
	out := make(ModuleConfig, len(c))
	for name, params := range c {
		cp := make(module.Params, len(params))
		for k, v := range params {
			cp[k] = v
		}
		out[name] = cp
	}
	return out
}

// Query is the nested map produced by ParseQuery.
type Query map[string]any
