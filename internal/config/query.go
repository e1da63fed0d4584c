package config

import (
	"net/url"
	"os"
	"strings"

	"github.com/jirenius/modapp/internal/module"
)

// QueryEnvVar holds query overrides when no --query flag is given.
const QueryEnvVar = "MODAPP_QUERY"

// QueryFromEnv returns the raw query string from the environment.
func QueryFromEnv() string {
	return os.Getenv(QueryEnvVar)
}

// ParseQuery parses a query string such as
// "module.login.user=alice&module.login.active=no" into a nested map rooted
// at namespace. Keys outside the namespace are ignored; dots in the rest of
// the key open nested maps. A leading "?" is allowed and "+" decodes to a
// space.
func ParseQuery(raw, namespace string) Query {
	params := Query{}

	raw = strings.TrimPrefix(raw, "?")
	raw = strings.ReplaceAll(raw, "+", " ")
	if namespace != "" && !strings.HasSuffix(namespace, ".") {
		namespace += "."
	}

	for _, pair := range strings.Split(raw, "&") {
		key, value, _ := strings.Cut(pair, "=")
		if key == "" {
			continue
		}
		key = unescape(key)
		if !strings.HasPrefix(key, namespace) {
			continue
		}
		setPath(params, strings.Split(key[len(namespace):], "."), unescape(value))
	}

	return params
}

func setPath(root Query, parts []string, value string) {
	node := map[string]any(root)
	for i, part := range parts {
		if part == "" {
			continue
		}
		if i == len(parts)-1 {
			node[part] = value
			return
		}
		child, ok := node[part].(map[string]any)
		if !ok {
			child = map[string]any{}
			node[part] = child
		}
		node = child
	}
}

func unescape(s string) string {
	if decoded, err := url.PathUnescape(s); err == nil {
		return decoded
	}
	return s
}

// MergeParams returns the parameters for the named module: a shallow copy of
// its static configuration overlaid with the query overrides for it.
func MergeParams(static ModuleConfig, query Query, name string) module.Params {
	params := module.Params{}
	for k, v := range static[name] {
		params[k] = v
	}
	if overrides, ok := query[name].(map[string]any); ok {
		for k, v := range overrides {
			params[k] = v
		}
	}
	return params
}

// IsTrue reports whether a parameter value counts as true. Only false, a
// numeric zero and the strings "false", "0" and "no" (in any case) are false.
func IsTrue(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		switch strings.ToLower(t) {
		case "false", "0", "no":
			return false
		}
		return true
	case int:
		return t != 0
	case int8:
		return t != 0
	case int16:
		return t != 0
	case int32:
		return t != 0
	case int64:
		return t != 0
	case uint:
		return t != 0
	case uint8:
		return t != 0
	case uint16:
		return t != 0
	case uint32:
		return t != 0
	case uint64:
		return t != 0
	case float32:
		return t != 0
	case float64:
		return t != 0
	}
	return true
}

// IsActive reports whether params leave the module active. An absent
// active parameter means active.
func IsActive(params module.Params) bool {
	v, ok := params[ActiveKey]
	if !ok {
		return true
	}
	return IsTrue(v)
}
