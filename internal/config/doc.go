// Package config provides module configuration for modapp.
//
// # Module Configuration File
//
// Static parameters live in a single file mapping module names to parameter
// maps. The default location is ~/.config/modapp/modules.yaml; the --config
// flag points elsewhere. Files ending in .toml are decoded as TOML, anything
// else as YAML:
//
//	login:
//	  user: guest
//	  timeout: 30
//	legacy:
//	  active: false
//
// A missing file is not an error and yields an empty configuration.
//
// # Query Overrides
//
// Parameters can be overridden with a query string passed through --query or
// the MODAPP_QUERY environment variable. Keys are dotted paths below a
// namespace ("module" by default):
//
//	module.login.user=alice&module.legacy.active=yes
//
// MergeParams overlays the overrides for one module on a copy of its static
// parameters; the override wins key by key.
//
// # The active Parameter
//
// A module whose merged "active" parameter is false, 0, "false", "0" or "no"
// (in any case) is deactivated on its first construction. Any other value,
// including none at all, leaves it active.
package config
