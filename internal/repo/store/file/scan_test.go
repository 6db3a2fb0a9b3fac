package file_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanFilesInWorkingTree(t *testing.T) {
	fc := newTestFC(t)
	writeFile(t, fc, "main.go", "package main")
	writeFile(t, fc, "lib/util.go", "package lib")
	writeFile(t, fc, "build/out.bin", "x")
	writeFile(t, fc, "notes.log", "x")
	writeFile(t, fc, ".bvc-ignore", "# comment\nbuild/\n*.log\n")
	require.NoError(t, fc.FS.WriteFile("/work/.bvc/HEAD", []byte("ref: branches/main"), 0o644))

	paths, err := fc.ScanFilesInWorkingTree()
	require.NoError(t, err)
	assert.Equal(t, []string{".bvc-ignore", "lib/util.go", "main.go"}, paths)
}

func TestScanDir(t *testing.T) {
	fc := newTestFC(t)
	writeFile(t, fc, "vendor/lib/a.go", "a")
	writeFile(t, fc, "vendor/lib/sub/b.go", "b")
	writeFile(t, fc, "other.go", "o")

	paths, err := fc.ScanDir("vendor/lib")
	require.NoError(t, err)
	assert.Equal(t, []string{"vendor/lib/a.go", "vendor/lib/sub/b.go"}, paths)

	paths, err = fc.ScanDir("missing")
	require.NoError(t, err)
	assert.Empty(t, paths)
}
