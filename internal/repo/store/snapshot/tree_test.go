package snapshot

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/keshon/bvc-subtree/internal/repo/store/file"
)

func paths(entries []file.Entry) []string {
	var out []string
	for _, e := range entries {
		out = append(out, e.Path)
	}
	return out
}

func TestPrefixHelpers(t *testing.T) {
	entries := []file.Entry{{Path: "lib"}, {Path: "lib/a.go"}, {Path: "library/b.go"}, {Path: "main.go"}}

	assert.Equal(t, []string{"lib", "lib/a.go"}, paths(Within(entries, "lib")))
	assert.Equal(t, []string{"library/b.go", "main.go"}, paths(Without(entries, "lib")))
	assert.Len(t, Within(entries, ""), 4)
	assert.Empty(t, Without(entries, ""))
}

func TestShift(t *testing.T) {
	entries := []file.Entry{{Path: "a.go"}, {Path: "sub/b.go"}}
	shifted := Shift(entries, "vendor/x")
	assert.Equal(t, []string{"vendor/x/a.go", "vendor/x/sub/b.go"}, paths(shifted))
	assert.Equal(t, []string{"vendor/x/a.go"}, paths(Within(shifted, "vendor/x/a.go")))
	assert.Equal(t, entries, Shift(entries, ""))
}

func TestInPrefix(t *testing.T) {
	assert.True(t, InPrefix("a/b", "a"))
	assert.True(t, InPrefix("a", "a"))
	assert.False(t, InPrefix("ab", "a"))
	assert.True(t, InPrefix("anything", ""))
}
