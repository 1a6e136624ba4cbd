package rpc

import (
	"fmt"
	"math"
)

func intField(fields map[string]any, key string) (int64, error) {
	raw, ok := fields[key]
	if !ok {
		return 0, fmt.Errorf("missing field %q", key)
	}
	switch n := raw.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case uint64:
		if n > math.MaxInt64 {
			return 0, fmt.Errorf("field %q out of range: %d", key, n)
		}
		return int64(n), nil
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) || n != math.Trunc(n) {
			return 0, fmt.Errorf("field %q is not an integer: %v", key, n)
		}
		// float64(math.MaxInt64) rounds up to 2^63, which does not fit
		if n < math.MinInt64 || n >= math.MaxInt64 {
			return 0, fmt.Errorf("field %q out of range: %v", key, n)
		}
		return int64(n), nil
	}
	return 0, fmt.Errorf("field %q has type %T, want integer", key, raw)
}

// stringField returns "" for an absent or null key.
func stringField(fields map[string]any, key string) (string, error) {
	raw, ok := fields[key]
	if !ok || raw == nil {
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("field %q has type %T, want string", key, raw)
	}
	return s, nil
}
