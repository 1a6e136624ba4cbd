package rpc

import (
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// MsgPackCodec carries the same JSON-safe values as JSONCodec in MessagePack
// framing. Tagged dictionaries keep their "__type__" key, so every handler
// works unchanged over it.
type MsgPackCodec struct{}

var _ Codec = (*MsgPackCodec)(nil)

func (m *MsgPackCodec) ContentType() string {
	return "application/msgpack"
}

func (m *MsgPackCodec) Serialize(w io.Writer, o any) error {
	enc := msgpack.NewEncoder(w)
	enc.SetCustomStructTag("json")
	enc.UseCompactInts(true)
	err := enc.Encode(o)
	if err != nil {
		return err
	}
	return nil
}

func (m *MsgPackCodec) Deserialize(data io.Reader, o any) error {
	dec := msgpack.NewDecoder(data)
	dec.SetCustomStructTag("json")
	// ints come back as int64/uint64 and floats as float64
	dec.UseLooseInterfaceDecoding(true)
	err := dec.Decode(o)
	if err != nil {
		return err
	}
	return nil
}
