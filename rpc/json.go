package rpc

import (
	"encoding/json"
	"errors"
	"io"
)

// JSONCodec is the RFC 8259 codec. Numbers are decoded as json.Number so
// integer timestamps keep their full precision.
type JSONCodec struct{}

var _ Codec = (*JSONCodec)(nil)

func (c *JSONCodec) ContentType() string {
	return "application/json"
}

func (c *JSONCodec) Serialize(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func (c *JSONCodec) Deserialize(r io.Reader, v any) error {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	// only whitespace may follow the value; More() alone misses a stray ] or }
	if _, err := dec.Token(); err != io.EOF {
		return errors.New("invalid JSON: trailing data after top-level value")
	}
	return nil
}
