package rpc

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stampedEvent struct {
	Name string
	At   time.Time
}

// eventHandler nests a datetime inside its own dictionary.
type eventHandler struct{}

func (eventHandler) Tag() string { return "event" }

func (eventHandler) Handles(v any) bool {
	_, ok := v.(stampedEvent)
	return ok
}

func (eventHandler) ToJSON(v any, recurse EncodeFunc) (map[string]any, error) {
	e := v.(stampedEvent)
	at, err := recurse(e.At)
	if err != nil {
		return nil, err
	}
	return map[string]any{"name": e.Name, "at": at}, nil
}

func (eventHandler) FromJSON(fields map[string]any, recurse DecodeFunc) (any, error) {
	at, err := recurse(fields["at"])
	if err != nil {
		return nil, err
	}
	t, ok := at.(time.Time)
	if !ok {
		return nil, fmt.Errorf("at decoded to %T", at)
	}
	name, _ := fields["name"].(string)
	return stampedEvent{Name: name, At: t}, nil
}

type brokenHandler struct{}

func (brokenHandler) Tag() string { return "broken" }

func (brokenHandler) Handles(v any) bool {
	_, ok := v.(chan int)
	return ok
}

func (brokenHandler) ToJSON(any, EncodeFunc) (map[string]any, error) {
	return nil, errors.New("cannot encode channels")
}

func (brokenHandler) FromJSON(map[string]any, DecodeFunc) (any, error) {
	return nil, errors.New("cannot decode channels")
}

func codecs() map[string]Codec {
	return map[string]Codec{
		"json":    &JSONCodec{},
		"msgpack": &MsgPackCodec{},
		"cbor":    &CBORCodec{},
	}
}

func TestRoundTripBuiltins(t *testing.T) {
	instant := time.Date(2024, time.March, 1, 12, 30, 45, 123456789, time.UTC)
	date := Date{Year: 2024, Month: time.February, Day: 29}
	remote := &RemoteError{Type: "ValueError", Message: "bad input", Traceback: "line 1\nline 2"}

	for name, codec := range codecs() {
		t.Run(name, func(t *testing.T) {
			s := NewSerializer(DefaultRegistry(), WithCodec(codec))

			data, err := s.Marshal(instant)
			require.NoError(t, err)
			got, err := s.Unmarshal(data)
			require.NoError(t, err)
			require.IsType(t, time.Time{}, got)
			assert.Equal(t, instant.UnixMilli(), got.(time.Time).UnixMilli())

			data, err = s.Marshal(date)
			require.NoError(t, err)
			got, err = s.Unmarshal(data)
			require.NoError(t, err)
			assert.Equal(t, date, got)

			data, err = s.Marshal(remote)
			require.NoError(t, err)
			got, err = s.Unmarshal(data)
			require.NoError(t, err)
			assert.Equal(t, remote, got)
		})
	}
}

func TestRoundTripNestedRecord(t *testing.T) {
	s := NewSerializer(nil)
	in := map[string]any{
		"when": Date{Year: 1999, Month: time.December, Day: 31},
		"list": []any{int64(1), "two", nil, true, 2.5},
		"deep": map[string]any{"at": time.UnixMilli(1700000000000).UTC()},
	}

	text, err := s.Stringify(in)
	require.NoError(t, err)
	out, err := s.Parse(text)
	require.NoError(t, err)

	rec, ok := out.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, Date{Year: 1999, Month: time.December, Day: 31}, rec["when"])
	assert.Equal(t, []any{int64(1), "two", nil, true, 2.5}, rec["list"])
	deep := rec["deep"].(map[string]any)
	assert.Equal(t, int64(1700000000000), deep["at"].(time.Time).UnixMilli())
}

func TestWireFormat(t *testing.T) {
	s := NewSerializer(nil)

	text, err := s.Stringify(time.UnixMilli(1700000000123))
	require.NoError(t, err)
	assert.Equal(t, `{"__type__":"datetime","timestamp":1700000000123}`, text)

	text, err = s.Stringify(Date{Year: 2024, Month: time.February, Day: 3})
	require.NoError(t, err)
	assert.Equal(t, `{"__type__":"date","day":3,"month":2,"year":2024}`, text)

	text, err = s.Stringify(NewRemoteError("ValueError", "bad input"))
	require.NoError(t, err)
	assert.Equal(t, `{"__type__":"exception","message":"bad input","type":"ValueError"}`, text)
}

func TestPlainValuesAreNotTagged(t *testing.T) {
	s := NewSerializer(nil)
	values := []any{
		nil, true, "x", 42, int64(-7), 3.25,
		[]any{int64(1), "a", false},
		map[string]any{"a": map[string]any{"b": []any{"c", map[string]any{}}}},
	}
	for _, v := range values {
		out, err := s.ToJSONSafe(v)
		require.NoError(t, err)
		assert.Equal(t, v, out)

		text, err := s.Stringify(v)
		require.NoError(t, err)
		assert.NotContains(t, text, TypeKey)
	}
}

func TestParseUnknownTagFails(t *testing.T) {
	s := NewSerializer(nil)
	out, err := s.Parse(`{"__type__":"bogus"}`)
	require.Error(t, err)
	assert.Nil(t, out)
	assert.ErrorIs(t, err, ErrUnknownTag)

	var serr *SerializationError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "bogus", serr.Tag)
	assert.Equal(t, "decode", serr.Op)
}

func TestParseNestedUnknownTagFails(t *testing.T) {
	s := NewSerializer(NewRegistry(ExceptionHandler{}, DateTimeHandler{}, DateHandler{}, eventHandler{}))
	_, err := s.Parse(`[{"x":{"__type__":"event","name":"n","at":{"__type__":"nope"}}}]`)
	assert.ErrorIs(t, err, ErrUnknownTag)
	assert.NotErrorIs(t, err, ErrHandlerFailed)
}

func TestParseNonStringTagFails(t *testing.T) {
	s := NewSerializer(nil)
	_, err := s.Parse(`{"__type__":5}`)
	assert.ErrorIs(t, err, ErrUnrecognizedShape)
}

func TestParseInvalidTextFails(t *testing.T) {
	s := NewSerializer(nil)
	for _, text := range []string{
		`{"a":`,
		`5]`,
		`[1]]`,
		`{"a":1}}`,
		`1 2`,
		`"x",`,
	} {
		out, err := s.Parse(text)
		assert.ErrorIs(t, err, ErrCodec, text)
		assert.Nil(t, out, text)
	}

	out, err := s.Parse(" [1] \n")
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1)}, out)
}

func TestParseOutOfRangeIntegersFails(t *testing.T) {
	s := NewSerializer(nil)
	for _, text := range []string{
		`{"__type__":"datetime","timestamp":1e20}`,
		`{"__type__":"datetime","timestamp":-1e20}`,
		`{"__type__":"datetime","timestamp":9223372036854775808}`,
		`{"__type__":"date","year":1e19,"month":1,"day":1}`,
	} {
		_, err := s.Parse(text)
		assert.ErrorIs(t, err, ErrHandlerFailed, text)
	}
}

func TestIntField(t *testing.T) {
	cases := []struct {
		raw     any
		want    int64
		wantErr bool
	}{
		{raw: int64(-3), want: -3},
		{raw: uint64(7), want: 7},
		{raw: 12.0, want: 12},
		{raw: -9007199254740992.0, want: -9007199254740992},
		{raw: float64(math.MinInt64), want: math.MinInt64},
		{raw: float64(math.MaxInt64), wantErr: true},
		{raw: 1e20, wantErr: true},
		{raw: -1e20, wantErr: true},
		{raw: math.NaN(), wantErr: true},
		{raw: math.Inf(1), wantErr: true},
		{raw: 1.5, wantErr: true},
		{raw: uint64(math.MaxUint64), wantErr: true},
		{raw: "12", wantErr: true},
	}
	for _, tc := range cases {
		got, err := intField(map[string]any{"n": tc.raw}, "n")
		if tc.wantErr {
			assert.Error(t, err, "%v", tc.raw)
			continue
		}
		require.NoError(t, err, "%v", tc.raw)
		assert.Equal(t, tc.want, got)
	}

	_, err := intField(map[string]any{}, "n")
	assert.ErrorContains(t, err, "missing")
}

func TestEncodeWithoutHandlerFails(t *testing.T) {
	s := NewSerializer(nil)
	for _, v := range []any{
		func() {},
		struct{ A int }{A: 1},
		[]int{1, 2},
		[]string{"a"},
		map[string]string{"a": "b"},
		map[string]any{"nested": []any{func() {}}},
	} {
		_, err := s.Stringify(v)
		assert.ErrorIs(t, err, ErrNoHandler, "%T", v)
	}
}

func TestEncodeReservedKeyFails(t *testing.T) {
	s := NewSerializer(nil)
	_, err := s.ToJSONSafe(map[string]any{TypeKey: "date", "year": 1})
	assert.ErrorIs(t, err, ErrReservedKey)
}

func TestHandlerFailureIsDistinctFromNoHandler(t *testing.T) {
	s := NewSerializer(nil)
	s.AddHandler(brokenHandler{})

	_, err := s.ToJSONSafe(make(chan int))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrHandlerFailed)
	assert.NotErrorIs(t, err, ErrNoHandler)
	assert.True(t, strings.Contains(err.Error(), "cannot encode channels"))

	_, err = s.Parse(`{"__type__":"date","year":2024,"month":13,"day":1}`)
	assert.ErrorIs(t, err, ErrHandlerFailed)
}

func TestCustomHandlerRecurses(t *testing.T) {
	s := NewSerializer(nil)
	s.AddHandler(eventHandler{})

	in := stampedEvent{Name: "deploy", At: time.UnixMilli(1234567890123).UTC()}
	text, err := s.Stringify([]any{in})
	require.NoError(t, err)
	assert.Contains(t, text, `"at":{"__type__":"datetime","timestamp":1234567890123}`)

	out, err := s.Parse(text)
	require.NoError(t, err)
	assert.Equal(t, []any{in}, out)
}

type isoDateHandler struct{ DateHandler }

func (isoDateHandler) FromJSON(fields map[string]any, recurse DecodeFunc) (any, error) {
	d, err := DateHandler{}.FromJSON(fields, recurse)
	if err != nil {
		return nil, err
	}
	return d.(Date).String(), nil
}

// catchAllErrorHandler claims every error, like ExceptionHandler.
type catchAllErrorHandler struct{ ExceptionHandler }

func (catchAllErrorHandler) Tag() string { return "any-error" }

func TestHandlerOverwrite(t *testing.T) {
	s := NewSerializer(nil)
	s.AddHandler(catchAllErrorHandler{})
	s.AddHandler(isoDateHandler{})

	assert.Equal(t, []string{"exception", "datetime", "date", "any-error"}, s.Registry().Tags())

	out, err := s.Parse(`{"__type__":"date","year":2024,"month":2,"day":29}`)
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", out)

	// exception was registered first and still wins the scan
	safe, err := s.ToJSONSafe(errors.New("boom"))
	require.NoError(t, err)
	assert.Equal(t, "exception", safe.(map[string]any)[TypeKey])
}

func TestExceptionHandlerTypeNames(t *testing.T) {
	s := NewSerializer(nil)

	safe, err := s.ToJSONSafe(errors.New("plain"))
	require.NoError(t, err)
	assert.Equal(t, "errors.errorString", safe.(map[string]any)["type"])
	assert.NotContains(t, safe.(map[string]any), "traceback")

	safe, err = s.ToJSONSafe(&PanicError{Value: "oops"})
	require.NoError(t, err)
	assert.Equal(t, "panic", safe.(map[string]any)["type"])
	assert.Equal(t, "oops", safe.(map[string]any)["message"])
}

func TestEncodeNilErrorPointerFails(t *testing.T) {
	s := NewSerializer(nil)
	var remote *RemoteError
	var panicked *PanicError

	for _, v := range []any{remote, panicked, []any{remote}} {
		assert.NotPanics(t, func() {
			_, err := s.Stringify(v)
			assert.ErrorIs(t, err, ErrHandlerFailed)
			assert.NotErrorIs(t, err, ErrNoHandler)
		})
	}
}

func TestFromJSONSafeRejectsUnknownShapes(t *testing.T) {
	s := NewSerializer(nil)
	_, err := s.FromJSONSafe(struct{}{})
	assert.ErrorIs(t, err, ErrUnrecognizedShape)
	_, err = s.FromJSONSafe([]any{map[string]any{"k": []byte("raw")}})
	assert.ErrorIs(t, err, ErrUnrecognizedShape)
}

func TestKindOf(t *testing.T) {
	type named map[string]any
	assert.Equal(t, KindPrimitive, KindOf(nil))
	assert.Equal(t, KindPrimitive, KindOf(uint16(3)))
	assert.Equal(t, KindSequence, KindOf([]any{}))
	assert.Equal(t, KindRecord, KindOf(map[string]any{}))
	assert.Equal(t, KindTagged, KindOf(named{}))
	assert.Equal(t, KindTagged, KindOf([]string{"a"}))
	assert.Equal(t, KindTagged, KindOf(map[string]string{}))
	assert.Equal(t, KindTagged, KindOf(time.Now()))
	assert.Equal(t, "tagged", KindTagged.String())
}
