package rpc

import (
	"io"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

var (
	cborEncMode cbor.EncMode
	cborDecMode cbor.DecMode
)

func init() {
	var err error
	cborEncMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("rpc: CBOR encoder initialization failed: " + err.Error())
	}
	cborDecMode, err = cbor.DecOptions{
		// any-typed targets would otherwise get map[interface{}]interface{}
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("rpc: CBOR decoder initialization failed: " + err.Error())
	}
}

// CBORCodec encodes JSON-safe values with CBOR Core Deterministic Encoding.
type CBORCodec struct{}

var _ Codec = (*CBORCodec)(nil)

func (c *CBORCodec) ContentType() string {
	return "application/cbor"
}

func (c *CBORCodec) Serialize(w io.Writer, o any) error {
	return cborEncMode.NewEncoder(w).Encode(o)
}

func (c *CBORCodec) Deserialize(r io.Reader, o any) error {
	return cborDecMode.NewDecoder(r).Decode(o)
}
