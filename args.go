package main

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/code-slammer/sjoh/rpc"
)

// parseArg reads one command line argument as JSON, so tagged values such
// as {"__type__":"date",...} can be passed. Text that is not JSON at all is
// sent as a plain string.
func parseArg(s *rpc.Serializer, text string) (any, error) {
	v, err := s.Parse(text)
	if err != nil {
		if errors.Is(err, rpc.ErrCodec) {
			return text, nil
		}
		return nil, err
	}
	return v, nil
}

// loadArgsFile reads positional arguments from a YAML sequence. Tagged
// mappings use the same __type__ key as the wire format.
func loadArgsFile(s *rpc.Serializer, path string) ([]any, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var raw []any
	if err := yaml.NewDecoder(f).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	args := make([]any, len(raw))
	for i, elem := range raw {
		safe, err := fromYAML(elem)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		if args[i], err = s.FromJSONSafe(safe); err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
	}
	return args, nil
}

// fromYAML reshapes a yaml.v3 decoded value into a JSON-safe one. yaml.v3
// leaves timestamps as strings when decoding into any, so only mappings
// need fixing.
func fromYAML(v any) (any, error) {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, elem := range x {
			c, err := fromYAML(elem)
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
				return nil, fmt.Errorf("mapping key %v is not a string", k)
			}
			c, err := fromYAML(elem)
			if err != nil {
				return nil, err
			}
			out[key] = c
		}
		return out, nil
	case []any:
		out := make([]any, len(x))
		for i, elem := range x {
			c, err := fromYAML(elem)
			if err != nil {
				return nil, err
			}
			out[i] = c
		}
		return out, nil
	}
	return v, nil
}
