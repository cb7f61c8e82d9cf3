package schema

import "sort"

// Config holds schema construction options attached to a model, an
// attribute or a column type. Keys mirror node arguments (title, missing,
// default, validator, typ, ...) plus exclude, includes, excludes, overrides,
// children and unknown.
type Config map[string]any

// Copy returns a shallow copy; a nil Config copies to an empty one.
func (c Config) Copy() Config {
	out := make(Config, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Has reports whether key is set.
func (c Config) Has(key string) bool {
	_, ok := c[key]
	return ok
}

// Keys returns the keys in sorted order.
func (c Config) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Strings reads key as a list of names. It accepts []string and []any.
func (c Config) Strings(key string) ([]string, bool) {
	v, ok := c[key]
	if !ok || v == nil {
		return nil, false
	}
	return AsStrings(v)
}

// AsStrings converts []string or []any of strings to []string.
func AsStrings(v any) ([]string, bool) {
	switch s := v.(type) {
	case []string:
		return s, true
	case []any:
		out := make([]string, 0, len(s))
		for _, item := range s {
			str, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, str)
		}
		return out, true
	}
	return nil, false
}

// AsConfigMap converts a nested overrides value (map[string]Config,
// map[string]any of maps) to map[string]Config.
func AsConfigMap(v any) (map[string]Config, bool) {
	switch m := v.(type) {
	case nil:
		return nil, true
	case map[string]Config:
		return m, true
	case map[string]any:
		out := make(map[string]Config, len(m))
		for k, item := range m {
			switch cfg := item.(type) {
			case Config:
				out[k] = cfg
			case map[string]any:
				out[k] = Config(cfg)
			default:
				return nil, false
			}
		}
		return out, true
	}
	return nil, false
}
