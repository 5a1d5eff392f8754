package record

import "strings"

// Resolve walks a dotted path through nested maps, e.g. "repo.id" reads
// data["repo"]["id"]. The second return reports whether the full path
// exists; a missing intermediate key yields (nil, false).
func Resolve(data map[string]interface{}, path string) (interface{}, bool) {
	if path == "" {
		return nil, false
	}

	var current interface{} = data
	for _, part := range strings.Split(path, ".") {
		m, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// ResolveString resolves a dotted path and returns its value as a string.
// Non-string and missing values return ("", false).
func ResolveString(data map[string]interface{}, path string) (string, bool) {
	v, ok := Resolve(data, path)
	if !ok || v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}
