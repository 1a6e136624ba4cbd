package rpc

import (
	"bytes"
	"fmt"
	"strings"
)

// Serializer converts native values to JSON-safe values and back, tagging
// anything that is not a primitive, []any or map[string]any through its
// registry. It holds no mutable state besides the registry, so a Serializer
// is safe for concurrent use once handlers are registered.
//
// Typed containers such as []string, []int or map[string]string are not
// sequences or records. Encoding one fails with ErrNoHandler unless a handler
// claims it, so convert them to []any and map[string]any first.
type Serializer struct {
	registry *Registry
	codec    Codec
}

// SerializerOption configures a Serializer.
type SerializerOption func(*Serializer)

// WithCodec sets the wire codec. The default is DefaultCodec.
func WithCodec(codec Codec) SerializerOption {
	return func(s *Serializer) {
		s.codec = codec
	}
}

// NewSerializer returns a serializer over registry. A nil registry gets
// DefaultRegistry().
func NewSerializer(registry *Registry, opts ...SerializerOption) *Serializer {
	if registry == nil {
		registry = DefaultRegistry()
	}
	s := &Serializer{registry: registry, codec: DefaultCodec}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Serializer) Registry() *Registry { return s.registry }

func (s *Serializer) Codec() Codec { return s.codec }

// AddHandler registers h on the serializer's registry. See Registry.Add.
func (s *Serializer) AddHandler(h TypeHandler) {
	s.registry.Add(h)
}

// ToJSONSafe encodes v into a value the codec can write.
func (s *Serializer) ToJSONSafe(v any) (any, error) {
	switch KindOf(v) {
	case KindPrimitive:
		return v, nil
	case KindSequence:
		seq := v.([]any)
		out := make([]any, len(seq))
		for i, elem := range seq {
			enc, err := s.ToJSONSafe(elem)
			if err != nil {
				return nil, err
			}
			out[i] = enc
		}
		return out, nil
	case KindRecord:
		rec := v.(map[string]any)
		if _, ok := rec[TypeKey]; ok {
			return nil, &SerializationError{Op: "encode", Err: ErrReservedKey}
		}
		out := make(map[string]any, len(rec))
		for k, elem := range rec {
			enc, err := s.ToJSONSafe(elem)
			if err != nil {
				return nil, err
			}
			out[k] = enc
		}
		return out, nil
	}

	h, ok := s.registry.Match(v)
	if !ok {
		return nil, &SerializationError{Op: "encode", Value: fmt.Sprintf("%T", v), Err: ErrNoHandler}
	}
	fields, err := h.ToJSON(v, s.ToJSONSafe)
	if err != nil {
		return nil, handlerError("encode", h.Tag(), err)
	}
	out := make(map[string]any, len(fields)+1)
	for k, elem := range fields {
		out[k] = elem
	}
	out[TypeKey] = h.Tag()
	return out, nil
}

// FromJSONSafe decodes a value produced by a codec (or by ToJSONSafe).
func (s *Serializer) FromJSONSafe(v any) (any, error) {
	switch x := v.(type) {
	case []any:
		out := make([]any, len(x))
		for i, elem := range x {
			dec, err := s.FromJSONSafe(elem)
			if err != nil {
				return nil, err
			}
			out[i] = dec
		}
		return out, nil
	case map[string]any:
		if raw, ok := x[TypeKey]; ok {
			return s.decodeTagged(raw, x)
		}
		out := make(map[string]any, len(x))
		for k, elem := range x {
			dec, err := s.FromJSONSafe(elem)
			if err != nil {
				return nil, err
			}
			out[k] = dec
		}
		return out, nil
	}
	if KindOf(v) == KindPrimitive {
		return v, nil
	}
	return nil, &SerializationError{Op: "decode", Value: fmt.Sprintf("%T", v), Err: ErrUnrecognizedShape}
}

func (s *Serializer) decodeTagged(raw any, dict map[string]any) (any, error) {
	tag, ok := raw.(string)
	if !ok {
		return nil, &SerializationError{Op: "decode", Value: fmt.Sprintf("%s of type %T", TypeKey, raw), Err: ErrUnrecognizedShape}
	}
	h, ok := s.registry.Lookup(tag)
	if !ok {
		return nil, &SerializationError{Op: "decode", Tag: tag, Err: ErrUnknownTag}
	}
	fields := make(map[string]any, len(dict)-1)
	for k, elem := range dict {
		if k != TypeKey {
			fields[k] = elem
		}
	}
	out, err := h.FromJSON(fields, s.FromJSONSafe)
	if err != nil {
		return nil, handlerError("decode", tag, err)
	}
	return out, nil
}

func handlerError(op, tag string, err error) error {
	if _, ok := err.(*SerializationError); ok {
		return err
	}
	return &SerializationError{Op: op, Tag: tag, Err: fmt.Errorf("%w: %w", ErrHandlerFailed, err)}
}

// Marshal encodes v and writes it with the serializer's codec.
func (s *Serializer) Marshal(v any) ([]byte, error) {
	safe, err := s.ToJSONSafe(v)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := s.codec.Serialize(&buf, safe); err != nil {
		return nil, &SerializationError{Op: "encode", Err: fmt.Errorf("%w: %w", ErrCodec, err)}
	}
	return buf.Bytes(), nil
}

// Unmarshal reads data with the serializer's codec and decodes the result.
func (s *Serializer) Unmarshal(data []byte) (any, error) {
	var raw any
	if err := s.codec.Deserialize(bytes.NewReader(data), &raw); err != nil {
		return nil, &SerializationError{Op: "decode", Err: fmt.Errorf("%w: %w", ErrCodec, err)}
	}
	safe, err := canonical(raw)
	if err != nil {
		return nil, &SerializationError{Op: "decode", Err: fmt.Errorf("%w: %w", ErrUnrecognizedShape, err)}
	}
	return s.FromJSONSafe(safe)
}

// Stringify is Marshal returning text, without the codec's trailing newline.
func (s *Serializer) Stringify(v any) (string, error) {
	data, err := s.Marshal(v)
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(string(data), "\n"), nil
}

// Parse is Unmarshal over text.
func (s *Serializer) Parse(text string) (any, error) {
	return s.Unmarshal([]byte(text))
}
