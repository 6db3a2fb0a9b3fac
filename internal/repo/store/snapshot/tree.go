package snapshot

import (
	"strings"

	"github.com/keshon/bvc-subtree/internal/repo/store/file"
)

// InPrefix reports whether p lies at or below prefix. An empty prefix holds everything.
func InPrefix(p, prefix string) bool {
	return prefix == "" || p == prefix || strings.HasPrefix(p, prefix+"/")
}

// Within returns the entries below prefix, paths unchanged.
func Within(entries []file.Entry, prefix string) []file.Entry {
	var out []file.Entry
	for _, e := range entries {
		if InPrefix(e.Path, prefix) {
			out = append(out, e)
		}
	}
	return out
}

// Without returns the entries outside prefix.
func Without(entries []file.Entry, prefix string) []file.Entry {
	var out []file.Entry
	for _, e := range entries {
		if !InPrefix(e.Path, prefix) {
			out = append(out, e)
		}
	}
	return out
}

// Shift relocates every entry under prefix.
func Shift(entries []file.Entry, prefix string) []file.Entry {
	out := make([]file.Entry, 0, len(entries))
	for _, e := range entries {
		if prefix != "" {
			e.Path = prefix + "/" + e.Path
		}
		out = append(out, e)
	}
	return out
}

// ByPath indexes entries by path.
func ByPath(entries []file.Entry) map[string]file.Entry {
	m := make(map[string]file.Entry, len(entries))
	for _, e := range entries {
		m[e.Path] = e
	}
	return m
}
