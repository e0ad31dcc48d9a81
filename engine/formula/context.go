package formula

import (
	"fmt"
	"strings"
)

// Context is the variable environment for formula evaluation. Values are
// float64 leaves or nested Context maps reached by dot-path identifiers.
type Context map[string]any

// Resolve walks a dot-path identifier through the context tree and returns
// the numeric leaf it names.
func (c Context) Resolve(name string) (float64, error) {
	parts := strings.Split(name, ".")
	current := c
	for i, part := range parts {
		v, ok := current[part]
		if !ok {
			return 0, fmt.Errorf("unknown variable: %s", name)
		}
		if i == len(parts)-1 {
			n, ok := toNumber(v)
			if !ok {
				return 0, fmt.Errorf("unknown variable: %s", name)
			}
			return n, nil
		}
		sub, ok := v.(Context)
		if !ok {
			return 0, fmt.Errorf("unknown variable: %s", name)
		}
		current = sub
	}
	return 0, fmt.Errorf("unknown variable: %s", name)
}

// toNumber accepts the numeric types game content plausibly produces.
func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// Merge returns a new context with all entries of c, overlaid by all entries
// of others in order. Nested contexts are replaced, not deep-merged.
func (c Context) Merge(others ...Context) Context {
	result := make(Context, len(c))
	for k, v := range c {
		result[k] = v
	}
	for _, o := range others {
		for k, v := range o {
			result[k] = v
		}
	}
	return result
}
