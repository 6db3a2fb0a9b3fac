package block_test

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/bvc-subtree/internal/fs"
	"github.com/keshon/bvc-subtree/internal/repo/store/block"
)

func newTestBC(t *testing.T) *block.BlockContext {
	t.Helper()
	mem := fs.NewMemoryFS()
	root := "/repo/.bvc/objects"
	require.NoError(t, mem.MkdirAll(root, 0o755))
	return block.NewBlockContext(root, mem)
}

func TestWriteAndRead(t *testing.T) {
	bc := newTestBC(t)

	data := []byte("hello-world-1234567890")
	src := "/repo/src.bin"
	require.NoError(t, bc.FS.WriteFile(src, data, 0o644))

	refs, err := bc.SplitFile(src)
	require.NoError(t, err)
	require.Len(t, refs, 1)

	require.NoError(t, bc.Write(context.Background(), src, refs))
	assert.True(t, bc.Has(refs[0].Hash))

	out, err := bc.Read(refs[0].Hash)
	require.NoError(t, err)
	assert.Equal(t, data, out)
}

func TestWriteDataMatchesSplitFile(t *testing.T) {
	bc := newTestBC(t)
	data := []byte("same bytes either way")
	require.NoError(t, bc.FS.WriteFile("/repo/a.txt", data, 0o644))

	fromFile, err := bc.SplitFile("/repo/a.txt")
	require.NoError(t, err)
	fromData, err := bc.WriteData(data)
	require.NoError(t, err)
	assert.Equal(t, fromFile, fromData)

	all, err := bc.ReadAll(fromData)
	require.NoError(t, err)
	assert.Equal(t, data, all)
}

func TestSplitLargeDataIsChunked(t *testing.T) {
	data := bytes.Repeat([]byte{0x5a}, 9*1024*1024)
	refs := block.SplitData(data)
	require.GreaterOrEqual(t, len(refs), 2)

	var total int64
	for i, r := range refs {
		assert.Equal(t, total, r.Offset, "block %d offset", i)
		total += r.Size
	}
	assert.EqualValues(t, len(data), total)
}

func TestSplitEmpty(t *testing.T) {
	bc := newTestBC(t)
	require.NoError(t, bc.FS.WriteFile("/repo/empty", nil, 0o644))
	refs, err := bc.SplitFile("/repo/empty")
	require.NoError(t, err)
	assert.Empty(t, refs)
	assert.Empty(t, block.SplitData(nil))
}

func TestVerifyBlock(t *testing.T) {
	bc := newTestBC(t)
	refs, err := bc.WriteData([]byte("abcdef1234567890"))
	require.NoError(t, err)

	status, err := bc.VerifyBlock(refs[0].Hash)
	require.NoError(t, err)
	assert.Equal(t, block.OK, status)

	status, err = bc.VerifyBlock("deadbeef")
	require.NoError(t, err)
	assert.Equal(t, block.Missing, status)

	require.NoError(t, bc.FS.WriteFile(filepath.Join(bc.Root, refs[0].Hash+".bin"), []byte("tampered"), 0o644))
	status, err = bc.VerifyBlock(refs[0].Hash)
	require.NoError(t, err)
	assert.Equal(t, block.Damaged, status)
}

func TestVerifyStreamsEveryHash(t *testing.T) {
	bc := newTestBC(t)
	a, err := bc.WriteData([]byte("one"))
	require.NoError(t, err)
	b, err := bc.WriteData([]byte("two"))
	require.NoError(t, err)

	hashes := map[string]struct{}{a[0].Hash: {}, b[0].Hash: {}, "missing": {}}
	got := map[string]block.BlockStatus{}
	for c := range bc.Verify(context.Background(), hashes, 2) {
		got[c.Hash] = c.Status
	}
	assert.Equal(t, map[string]block.BlockStatus{
		a[0].Hash: block.OK,
		b[0].Hash: block.OK,
		"missing": block.Missing,
	}, got)
}

func TestCleanupTemp(t *testing.T) {
	bc := newTestBC(t)
	tmp := filepath.Join(bc.Root, ".tmp-1")
	require.NoError(t, bc.FS.WriteFile(tmp, nil, 0o600))
	keep := filepath.Join(bc.Root, "abc.bin")
	require.NoError(t, bc.FS.WriteFile(keep, []byte("x"), 0o644))

	require.NoError(t, bc.CleanupTemp())
	assert.False(t, bc.FS.Exists(tmp))
	assert.True(t, bc.FS.Exists(keep))
}

func TestPutChecksHash(t *testing.T) {
	src := newTestBC(t)
	refs, err := src.WriteData([]byte("shared block"))
	require.NoError(t, err)
	data, err := src.Read(refs[0].Hash)
	require.NoError(t, err)

	dst := newTestBC(t)
	require.NoError(t, dst.Put(refs[0].Hash, data))
	assert.True(t, dst.Has(refs[0].Hash))

	err = dst.Put(refs[0].Hash, []byte("tampered"))
	assert.ErrorIs(t, err, block.ErrHashMismatch)
}
