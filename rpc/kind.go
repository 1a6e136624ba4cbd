package rpc

// Kind is the shape of a native value as seen by the encoder.
type Kind uint8

const (
	// KindPrimitive is nil, bool, string or any numeric type.
	KindPrimitive Kind = iota
	// KindSequence is []any.
	KindSequence
	// KindRecord is a plain map[string]any. Named map types are not records.
	KindRecord
	// KindTagged is everything else; it needs a TypeHandler.
	KindTagged
)

func (k Kind) String() string {
	switch k {
	case KindPrimitive:
		return "primitive"
	case KindSequence:
		return "sequence"
	case KindRecord:
		return "record"
	case KindTagged:
		return "tagged"
	}
	return "unknown"
}

// KindOf classifies v. Only the exact types listed for each kind count, so a
// struct, a func, a named slice type or a typed container like []string or
// map[string]int always falls through to KindTagged.
func KindOf(v any) Kind {
	switch v.(type) {
	case nil, bool, string,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return KindPrimitive
	case []any:
		return KindSequence
	case map[string]any:
		return KindRecord
	}
	return KindTagged
}
