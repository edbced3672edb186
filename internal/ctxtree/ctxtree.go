// Package ctxtree implements the run context: a heterogeneous key→value
// tree with dotted-path lookup, as described in spec.md §9 ("Dynamic context
// map"). Values are the ordinary JSON-shaped Go types (nil, bool, float64,
// string, []any, map[string]any) so no reflection is needed to walk them.
package ctxtree

import (
	"strconv"
	"strings"
)

// GetPath resolves a dotted path (e.g. "quote.price") against root, walking
// maps by key and arrays by numeric index. It reports ok=false when any
// segment is missing or the traversal hits a non-container value.
func GetPath(root map[string]any, path string) (any, bool) {
	if path == "" {
		return nil, false
	}
	var cur any = root
	for _, seg := range strings.Split(path, ".") {
		switch v := cur.(type) {
		case map[string]any:
			next, ok := v[seg]
			if !ok {
				return nil, false
			}
			cur = next
		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(v) {
				return nil, false
			}
			cur = v[idx]
		default:
			return nil, false
		}
	}
	return cur, true
}

// SetPath writes value at the dotted path within root, creating intermediate
// maps as needed. SetPath does not create intermediate array elements; a
// numeric segment encountered before the path terminates against a missing
// key creates a nested map instead (the engine only ever writes under
// alphabetic keys, per spec.md §4.5).
func SetPath(root map[string]any, path string, value any) {
	segs := strings.Split(path, ".")
	m := root
	for i, seg := range segs {
		if i == len(segs)-1 {
			m[seg] = value
			return
		}
		next, ok := m[seg]
		if !ok {
			nm := map[string]any{}
			m[seg] = nm
			m = nm
			continue
		}
		nm, ok := next.(map[string]any)
		if !ok {
			nm = map[string]any{}
			m[seg] = nm
		}
		m = nm
	}
}

// Truthy reports whether v is considered true in condition evaluation.
// A missing path (v == nil, ok == false) is falsy.
func Truthy(v any, ok bool) bool {
	if !ok || v == nil {
		return false
	}
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0
	default:
		return true
	}
}
