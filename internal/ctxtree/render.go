package ctxtree

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var templateRef = regexp.MustCompile(`\{\{\s*([^}]+?)\s*\}\}`)

// Render replaces each {{ dotted.path }} reference in s with the stringified
// value at that path in root, or the empty string when the path is missing.
func Render(s string, root map[string]any) string {
	return templateRef.ReplaceAllStringFunc(s, func(match string) string {
		path := templateRef.FindStringSubmatch(match)[1]
		v, ok := GetPath(root, strings.TrimSpace(path))
		if !ok {
			return ""
		}
		return Stringify(v)
	})
}

// Stringify renders a context value as it would appear substituted into a
// template string.
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return formatNumber(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

func formatNumber(f float64) string {
	if f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%g", f)
}

// RenderValue walks v recursively, rendering template strings in place.
// Non-string scalars and containers are copied structurally; maps/slices are
// rebuilt rather than mutated in place so the caller's original params value
// is never modified.
func RenderValue(v any, root map[string]any) any {
	switch t := v.(type) {
	case string:
		return Render(t, root)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = RenderValue(vv, root)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, vv := range t {
			out[i] = RenderValue(vv, root)
		}
		return out
	default:
		return v
	}
}
