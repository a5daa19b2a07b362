// Package nested reads values out of decoded JSON documents without
// tripping over missing keys.
package nested

import "strings"

// Get walks m along a dot-delimited path and returns the value found at the
// leaf. If any segment is missing, or an intermediate value is not a map,
// def is returned instead. Get never panics.
//
//	Get(body, "data.presentation.staysSearch.results", map[string]any{})
func Get(m map[string]any, path string, def any) any {
	if m == nil {
		return def
	}
	if path == "" {
		return m
	}

	var cur any = m
	for _, key := range strings.Split(path, ".") {
		node, ok := asMap(cur)
		if !ok {
			return def
		}
		next, ok := node[key]
		if !ok {
			return def
		}
		cur = next
	}
	return cur
}

// Lookup is Get with a typed result. A leaf of a different type counts as
// missing and yields def.
func Lookup[T any](m map[string]any, path string, def T) T {
	v, ok := Get(m, path, nil).(T)
	if !ok {
		return def
	}
	return v
}

// Has reports whether every segment of path exists, even when the leaf is
// explicitly null.
func Has(m map[string]any, path string) bool {
	sentinel := &missing{}
	v := Get(m, path, sentinel)
	p, isSentinel := v.(*missing)
	return !isSentinel || p != sentinel
}

// missing is not zero-sized so each allocation has a distinct address.
type missing struct{ _ byte }

func asMap(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok && m != nil
}
