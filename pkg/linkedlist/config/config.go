package config

import (
	"time"
)

// Config is a read-only view over decoded YAML or JSON settings.
// Accessors return the supplied default when a key is missing or holds a
// value of the wrong type.
type Config struct {
	data map[string]any
}

// New wraps data. A nil map yields an empty Config.
func New(data map[string]any) Config {
	if data == nil {
		data = make(map[string]any)
	}
	return Config{data: data}
}

// String returns the string at key, or def.
func (c Config) String(key, def string) string {
	if s, ok := c.data[key].(string); ok {
		return s
	}
	return def
}

// Bool returns the bool at key, or def.
func (c Config) Bool(key string, def bool) bool {
	if b, ok := c.data[key].(bool); ok {
		return b
	}
	return def
}

// Int returns the integer at key, or def.
//
// YAML decodes integers as int and JSON as float64; both are accepted, the
// latter only when it has no fractional part.
func (c Config) Int(key string, def int) int {
	switch v := c.data[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case uint64:
		return int(v)
	case float64:
		if v == float64(int(v)) {
			return int(v)
		}
	}
	return def
}

// Float returns the number at key, or def. Integers are accepted.
func (c Config) Float(key string, def float64) float64 {
	switch v := c.data[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case uint64:
		return float64(v)
	}
	return def
}

// Strings returns the list of strings at key. Non-string elements are
// skipped and a single string yields a one-element list.
func (c Config) Strings(key string) []string {
	switch v := c.data[key].(type) {
	case string:
		return []string{v}
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Duration returns the duration at key, or def.
// Strings are parsed with time.ParseDuration; bare numbers are milliseconds.
func (c Config) Duration(key string, def time.Duration) time.Duration {
	switch v := c.data[key].(type) {
	case string:
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	case int:
		return time.Duration(v) * time.Millisecond
	case int64:
		return time.Duration(v) * time.Millisecond
	case float64:
		return time.Duration(v * float64(time.Millisecond))
	case time.Duration:
		return v
	}
	return def
}

// Sub returns the nested mapping at key as a Config.
// Missing or non-mapping values yield an empty Config.
func (c Config) Sub(key string) Config {
	if m, ok := c.data[key].(map[string]any); ok {
		return New(m)
	}
	return New(nil)
}

// Has reports whether key is present.
func (c Config) Has(key string) bool {
	_, ok := c.data[key]
	return ok
}

// Raw returns the underlying map. Callers must not modify it.
func (c Config) Raw() map[string]any {
	return c.data
}
