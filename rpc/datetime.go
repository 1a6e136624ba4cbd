package rpc

import "time"

// DateTimeHandler encodes time.Time as milliseconds since the Unix epoch.
// Anything finer than a millisecond is lost, and decoded instants are UTC.
type DateTimeHandler struct{}

var _ TypeHandler = DateTimeHandler{}

func (DateTimeHandler) Tag() string { return "datetime" }

func (DateTimeHandler) Handles(v any) bool {
	_, ok := v.(time.Time)
	return ok
}

func (DateTimeHandler) ToJSON(v any, _ EncodeFunc) (map[string]any, error) {
	return map[string]any{"timestamp": v.(time.Time).UnixMilli()}, nil
}

func (DateTimeHandler) FromJSON(fields map[string]any, _ DecodeFunc) (any, error) {
	ms, err := intField(fields, "timestamp")
	if err != nil {
		return nil, err
	}
	return time.UnixMilli(ms).UTC(), nil
}
