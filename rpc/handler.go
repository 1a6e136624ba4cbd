package rpc

// TypeKey is the reserved dictionary key carrying a handler's tag.
const TypeKey = "__type__"

// EncodeFunc turns a native value into a JSON-safe value.
type EncodeFunc func(v any) (any, error)

// DecodeFunc turns a JSON-safe value into a native value.
type DecodeFunc func(v any) (any, error)

// TypeHandler converts one native type to and from a JSON-safe dictionary.
//
// ToJSON must not set TypeKey; the registry adds it. FromJSON receives the
// dictionary without TypeKey and must consume exactly the keys ToJSON wrote.
// Both get a recurse callback for nested values inside the dictionary.
type TypeHandler interface {
	Tag() string
	Handles(v any) bool
	ToJSON(v any, recurse EncodeFunc) (map[string]any, error)
	FromJSON(fields map[string]any, recurse DecodeFunc) (any, error)
}

// Registry maps tags to handlers for decoding and keeps registration order
// for encoding: the first handler whose Handles reports true wins.
//
// A Registry is not safe for Add concurrently with encoding or decoding.
// Register everything up front, then share it read-only.
type Registry struct {
	byTag map[string]int
	order []TypeHandler
}

// NewRegistry returns a registry holding handlers in the given order.
func NewRegistry(handlers ...TypeHandler) *Registry {
	r := &Registry{byTag: make(map[string]int, len(handlers))}
	for _, h := range handlers {
		r.Add(h)
	}
	return r
}

// DefaultRegistry returns a new registry with the built-in exception,
// datetime and date handlers, in that order.
func DefaultRegistry() *Registry {
	return NewRegistry(ExceptionHandler{}, DateTimeHandler{}, DateHandler{})
}

// Add registers h. A handler already registered under the same tag is
// replaced in place and keeps its position in the encode scan order; a new
// tag goes to the end.
func (r *Registry) Add(h TypeHandler) {
	if i, ok := r.byTag[h.Tag()]; ok {
		r.order[i] = h
		return
	}
	r.byTag[h.Tag()] = len(r.order)
	r.order = append(r.order, h)
}

// Lookup returns the handler registered for tag.
func (r *Registry) Lookup(tag string) (TypeHandler, bool) {
	i, ok := r.byTag[tag]
	if !ok {
		return nil, false
	}
	return r.order[i], true
}

// Match returns the first handler, in registration order, that handles v.
func (r *Registry) Match(v any) (TypeHandler, bool) {
	for _, h := range r.order {
		if h.Handles(v) {
			return h, true
		}
	}
	return nil, false
}

// Tags lists registered tags in scan order.
func (r *Registry) Tags() []string {
	tags := make([]string, len(r.order))
	for i, h := range r.order {
		tags[i] = h.Tag()
	}
	return tags
}
