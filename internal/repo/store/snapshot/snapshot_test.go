package snapshot_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/bvc-subtree/internal/fs"
	"github.com/keshon/bvc-subtree/internal/repo/store/block"
	"github.com/keshon/bvc-subtree/internal/repo/store/file"
	"github.com/keshon/bvc-subtree/internal/repo/store/snapshot"
)

func newTestSC(t *testing.T) *snapshot.SnapshotContext {
	t.Helper()
	mem := fs.NewMemoryFS()
	require.NoError(t, mem.MkdirAll("/w/.bvc/objects", 0o755))
	require.NoError(t, mem.MkdirAll("/w/.bvc/filesets", 0o755))
	bc := block.NewBlockContext("/w/.bvc/objects", mem)
	fc := file.NewFileContext("/w", "/w/.bvc", "/w/.bvc-ignore", bc, mem)
	return snapshot.NewSnapshotContext("/w/.bvc/filesets", fc, bc, mem)
}

func TestHashFilesetDependsOnPathsAndContent(t *testing.T) {
	a := []file.Entry{{Path: "x", Blocks: []block.BlockRef{{Hash: "1"}}}}
	moved := []file.Entry{{Path: "y", Blocks: []block.BlockRef{{Hash: "1"}}}}
	changed := []file.Entry{{Path: "x", Blocks: []block.BlockRef{{Hash: "2"}}}}

	assert.NotEqual(t, snapshot.HashFileset(a), snapshot.HashFileset(moved))
	assert.NotEqual(t, snapshot.HashFileset(a), snapshot.HashFileset(changed))

	two := []file.Entry{{Path: "b"}, {Path: "a"}}
	swapped := []file.Entry{{Path: "a"}, {Path: "b"}}
	assert.Equal(t, snapshot.HashFileset(two), snapshot.HashFileset(swapped))
}

func TestNewFilesetSorts(t *testing.T) {
	fset := snapshot.NewFileset([]file.Entry{{Path: "b"}, {Path: "a"}})
	assert.Equal(t, "a", fset.Files[0].Path)
	assert.NotEmpty(t, fset.ID)
}

func TestWorkingTreeRoundTrip(t *testing.T) {
	ctx := context.Background()
	sc := newTestSC(t)
	require.NoError(t, sc.FS.WriteFile("/w/a.txt", []byte("alpha"), 0o644))

	fset, err := sc.BuildFilesetFromWorkingTree(ctx)
	require.NoError(t, err)
	require.Len(t, fset.Files, 1)
	assert.False(t, sc.Has(fset.ID))

	require.NoError(t, sc.WriteAndSave(ctx, &fset))
	assert.True(t, sc.Has(fset.ID))

	loaded, err := sc.Load(fset.ID)
	require.NoError(t, err)
	assert.Equal(t, fset, loaded)

	data, err := sc.Files.ReadEntry(loaded.Files[0])
	require.NoError(t, err)
	assert.Equal(t, "alpha", string(data))

	ids, err := sc.List()
	require.NoError(t, err)
	assert.Equal(t, []string{fset.ID}, ids)
}

func TestLoadMissing(t *testing.T) {
	_, err := newTestSC(t).Load("nope")
	assert.Error(t, err)
}

func TestSaveRequiresID(t *testing.T) {
	assert.Error(t, newTestSC(t).Save(snapshot.Fileset{}))
}
