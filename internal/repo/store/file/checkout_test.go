package file_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/bvc-subtree/internal/repo/store/file"
)

func TestCheckoutPrefix(t *testing.T) {
	fc := newTestFC(t)
	writeFile(t, fc, "app.go", "main")
	writeFile(t, fc, "lib/stale.go", "stale")
	writeFile(t, fc, "lib/deep/old.go", "old")

	entries := []file.Entry{
		stored(t, fc, "lib/a.go", "A"),
		stored(t, fc, "lib/sub/b.go", "B"),
		stored(t, fc, "elsewhere.go", "not mine"),
	}
	require.NoError(t, fc.Checkout(entries, "lib"))

	paths, err := fc.ScanFilesInWorkingTree()
	require.NoError(t, err)
	assert.Equal(t, []string{"app.go", "lib/a.go", "lib/sub/b.go"}, paths)
	assert.False(t, fc.FS.Exists(fc.Abs("lib/deep")), "empty dirs are pruned")

	data, err := fc.FS.ReadFile(fc.Abs("lib/sub/b.go"))
	require.NoError(t, err)
	assert.Equal(t, "B", string(data))
}

func TestCheckoutWholeTreeKeepsRepoDir(t *testing.T) {
	fc := newTestFC(t)
	writeFile(t, fc, "x.txt", "x")
	require.NoError(t, fc.SaveIndex(nil))

	require.NoError(t, fc.Checkout([]file.Entry{stored(t, fc, "y.txt", "y")}, ""))

	paths, err := fc.ScanFilesInWorkingTree()
	require.NoError(t, err)
	assert.Equal(t, []string{"y.txt"}, paths)
	assert.True(t, fc.FS.Exists("/work/.bvc/index.json"))
}
