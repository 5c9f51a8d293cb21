package tools

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// stringArg extracts a string argument.
func stringArg(input map[string]interface{}, key string) (string, bool) {
	v, ok := input[key]
	if !ok || v == nil {
		return "", false
	}
	s, ok := v.(string)
	if !ok {
		return fmt.Sprintf("%v", v), true
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

// floatArg extracts a numeric argument. Planner output passes through JSON,
// so numbers may arrive as float64, json.Number, or quoted strings.
func floatArg(input map[string]interface{}, key string) (float64, bool) {
	v, ok := input[key]
	if !ok || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		cleaned := strings.TrimSpace(strings.TrimPrefix(n, "$"))
		f, err := strconv.ParseFloat(cleaned, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// intArg extracts an integer argument.
func intArg(input map[string]interface{}, key string) (int, bool) {
	f, ok := floatArg(input, key)
	if !ok {
		return 0, false
	}
	return int(f), true
}

// asValue converts a typed entity into the generic map/slice shape the
// result envelope carries, via a JSON round-trip.
func asValue(v interface{}) (interface{}, error) {
	encoded, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out interface{}
	if err := json.Unmarshal(encoded, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// requireArgs returns a validator that checks the presence of the given
// argument names.
func requireArgs(names ...string) func(map[string]interface{}) error {
	return func(input map[string]interface{}) error {
		if input == nil {
			return fmt.Errorf("input cannot be nil")
		}
		for _, name := range names {
			if v, ok := input[name]; !ok || v == nil || v == "" {
				return fmt.Errorf("missing required argument '%s'", name)
			}
		}
		return nil
	}
}
