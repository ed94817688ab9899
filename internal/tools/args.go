// Package tools implements the builtin health-tracking operations dispatched
// through the tool registry. Handlers commit through the store; argument
// shape and permission checks are the registry's job.
package tools

import (
	"encoding/json"
	"strconv"
	"strings"
)

// floatArg coerces a numeric argument. Model-produced payloads arrive as
// float64 after JSON decoding, but handlers also accept ints and numeric
// strings from internal callers.
func floatArg(args map[string]any, key string) (float64, bool) {
	switch v := args[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func stringArg(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// stringListArg normalizes a list-shaped argument. Accepted shapes: a string
// slice, a JSON-decoded []any of strings, or a comma-separated string.
func stringListArg(args map[string]any, key string) []string {
	var raw []string
	switch v := args[key].(type) {
	case []string:
		raw = v
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				raw = append(raw, s)
			}
		}
	case string:
		raw = strings.Split(v, ",")
	default:
		return nil
	}
	var items []string
	for _, item := range raw {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
