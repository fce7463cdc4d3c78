package store

import (
	"fmt"

	"github.com/roach88/iocplan/internal/ir"
)

// marshalCanonical converts a Value to canonical JSON TEXT for storage.
// Uses RFC 8785 canonical JSON for deterministic serialization.
func marshalCanonical(v ir.Value) (string, error) {
	data, err := ir.MarshalCanonical(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// marshalStrings stores a string slice as a canonical JSON list.
func marshalStrings(ss []string) (string, error) {
	list := make(ir.List, len(ss))
	for i, s := range ss {
		list[i] = ir.String(s)
	}
	data, err := marshalCanonical(list)
	if err != nil {
		return "", fmt.Errorf("marshal strings: %w", err)
	}
	return data, nil
}

// unmarshalStrings parses a canonical JSON list of strings. Uses
// ir.UnmarshalValue so that numbers keep their integer representation.
func unmarshalStrings(data string) ([]string, error) {
	if data == "" || data == "[]" {
		return []string{}, nil
	}
	v, err := ir.UnmarshalValue([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("unmarshal strings: %w", err)
	}
	list, ok := v.(ir.List)
	if !ok {
		return nil, fmt.Errorf("unmarshal strings: expected list, got %T", v)
	}
	out := make([]string, 0, len(list))
	for i, elem := range list {
		s, ok := elem.(ir.String)
		if !ok {
			return nil, fmt.Errorf("unmarshal strings: [%d] is %T", i, elem)
		}
		out = append(out, string(s))
	}
	return out, nil
}

func unmarshalObject(data string) (ir.Object, error) {
	if data == "" || data == "{}" {
		return ir.Object{}, nil
	}
	var obj ir.Object
	if err := obj.UnmarshalJSON([]byte(data)); err != nil {
		return nil, fmt.Errorf("unmarshal object: %w", err)
	}
	return obj, nil
}

func unmarshalList(data string) (ir.List, error) {
	if data == "" || data == "[]" {
		return ir.List{}, nil
	}
	v, err := ir.UnmarshalValue([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("unmarshal list: %w", err)
	}
	list, ok := v.(ir.List)
	if !ok {
		return nil, fmt.Errorf("unmarshal list: expected list, got %T", v)
	}
	return list, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
