package rpc

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
)

// DefaultCodec is the wire codec used when none is configured.
var DefaultCodec Codec = &JSONCodec{}

// Codec is the text (or binary) boundary below the Serializer. It only ever
// sees JSON-safe values: nil, bool, string, numbers, []any and map[string]any.
type Codec interface {
	ContentType() string
	Serialize(w io.Writer, o any) error
	Deserialize(r io.Reader, o any) error
}

// canonical rewrites a freshly decoded value into the shapes FromJSONSafe
// expects. Decoders disagree on integer widths and map key types; after this
// integers are int64 (uint64 only when out of range), floats are float64 and
// maps are map[string]any.
func canonical(v any) (any, error) {
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i, nil
		}
		f, err := x.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", x, err)
		}
		return f, nil
	case int:
		return int64(x), nil
	case int8:
		return int64(x), nil
	case int16:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case uint:
		return canonicalUint(uint64(x)), nil
	case uint8:
		return int64(x), nil
	case uint16:
		return int64(x), nil
	case uint32:
		return int64(x), nil
	case uint64:
		return canonicalUint(x), nil
	case float32:
		return float64(x), nil
	case []any:
		out := make([]any, len(x))
		for i, elem := range x {
			c, err := canonical(elem)
			if err != nil {
				return nil, err
			}
			out[i] = c
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, elem := range x {
			c, err := canonical(elem)
			if err != nil {
				return nil, err
			}
			out[k] = c
		}
		return out, nil
	case map[any]any:
		out := make(map[string]any, len(x))
		for k, elem := range x {
			key, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("non-string map key %v (%T)", k, k)
			}
			c, err := canonical(elem)
			if err != nil {
				return nil, err
			}
			out[key] = c
		}
		return out, nil
	}
	return v, nil
}

func canonicalUint(u uint64) any {
	if u <= math.MaxInt64 {
		return int64(u)
	}
	return u
}
