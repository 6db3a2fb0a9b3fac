package merge_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/bvc-subtree/internal/merge"
	"github.com/keshon/bvc-subtree/internal/repo/meta"
	"github.com/keshon/bvc-subtree/internal/repo/store/block"
	"github.com/keshon/bvc-subtree/internal/repo/store/file"
	"github.com/keshon/bvc-subtree/internal/testutil"
)

type graph map[string][]string

func (g graph) GetCommit(id string) (*meta.Commit, error) {
	parents, ok := g[id]
	if !ok {
		return nil, meta.ErrCommitNotFound
	}
	return &meta.Commit{ID: id, Parents: parents}, nil
}

func TestCommonAncestor(t *testing.T) {
	//   a - b - c      (ours)
	//        \
	//         d - e    (theirs)
	g := graph{
		"a": nil,
		"b": {"a"},
		"c": {"b"},
		"d": {"b"},
		"e": {"d"},
		"x": nil,
		"m": {"c", "e"},
	}
	ctx := context.Background()

	cases := []struct {
		name, a, b, want string
	}{
		{"diverged", "c", "e", "b"},
		{"theirs is ancestor", "c", "a", "a"},
		{"ours is ancestor", "a", "e", "a"},
		{"same commit", "e", "e", "e"},
		{"unrelated", "c", "x", ""},
		{"after merge", "m", "e", "e"},
		{"empty side", "", "e", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := merge.CommonAncestor(ctx, g, tc.a, tc.b)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestCommonAncestorMissingCommit(t *testing.T) {
	g := graph{"b": {"a"}}
	_, err := merge.CommonAncestor(context.Background(), g, "b", "b")
	assert.ErrorIs(t, err, meta.ErrCommitNotFound)
}

func entry(path, hash string) file.Entry {
	return file.Entry{Path: path, Mode: 0o644, Blocks: []block.BlockRef{{Hash: hash, Size: 1}}}
}

func TestOnFirstParentChain(t *testing.T) {
	g := graph{
		"a": nil,
		"b": {"a"},
		"s": nil,
		"m": {"b", "s"},
		"c": {"m"},
	}
	ctx := context.Background()
	for _, tc := range []struct {
		id   string
		want bool
	}{
		{"c", true},
		{"m", true},
		{"a", true},
		{"s", false},
		{"", false},
	} {
		got, err := merge.OnFirstParentChain(ctx, g, "c", tc.id)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, tc.id)
	}

	_, err := merge.OnFirstParentChain(ctx, graph{"c": {"gone"}}, "c", "a")
	assert.ErrorIs(t, err, meta.ErrCommitNotFound)
}

func TestFilesets(t *testing.T) {
	base := []file.Entry{entry("same", "1"), entry("ours-edit", "1"), entry("theirs-edit", "1"), entry("both", "1"), entry("gone", "1")}
	ours := []file.Entry{entry("same", "1"), entry("ours-edit", "2"), entry("theirs-edit", "1"), entry("both", "2"), entry("ours-new", "1")}
	theirs := []file.Entry{entry("same", "1"), entry("ours-edit", "1"), entry("theirs-edit", "3"), entry("both", "3"), entry("theirs-new", "1")}

	merged, conflicts := merge.Filesets(base, ours, theirs)
	assert.Equal(t, []string{"both"}, conflicts)

	got := map[string]string{}
	for _, e := range merged {
		got[e.Path] = e.Blocks[0].Hash
	}
	assert.Equal(t, map[string]string{
		"both":              "2",
		"both.MERGE_THEIRS": "3",
		"ours-edit":         "2",
		"ours-new":          "1",
		"same":              "1",
		"theirs-edit":       "3",
		"theirs-new":        "1",
	}, got)
	assert.Equal(t, "both", merged[0].Path)
}

func TestFilesetsDeleteAgainstEdit(t *testing.T) {
	base := []file.Entry{entry("f", "1")}
	ours := []file.Entry{}
	theirs := []file.Entry{entry("f", "2")}

	merged, conflicts := merge.Filesets(base, ours, theirs)
	assert.Equal(t, []string{"f"}, conflicts)
	require.Len(t, merged, 1)
	assert.Equal(t, "f.MERGE_THEIRS", merged[0].Path)
}

func TestExecutorMergeUnderPrefix(t *testing.T) {
	r := testutil.NewRepo(t)
	ctx := context.Background()
	ex := merge.NewExecutor(r)

	testutil.Commit(t, r, "host", map[string]string{"README": "host"})
	sub1 := testutil.Detached(t, r, "sub v1", map[string]string{"lib.go": "v1", "doc.txt": "doc"})

	res, err := ex.Merge(ctx, merge.Request{Theirs: sub1.ID, Prefix: "vendor/lib", Message: "pull lib"})
	require.NoError(t, err)
	require.NotNil(t, res.Commit)
	assert.Empty(t, res.Base)
	assert.Equal(t, res.Commit.ID, testutil.Tip(t, r))
	assert.Len(t, res.Commit.Parents, 2)
	assert.Equal(t, sub1.ID, res.Commit.Parents[1])
	assert.Equal(t, []string{"README", "vendor/lib/doc.txt", "vendor/lib/lib.go"}, testutil.Paths(t, r, res.Commit.ID))
	assert.Equal(t, "v1", testutil.ReadFile(t, r, "vendor/lib/lib.go"))

	// local edit in the embedded tree survives an upstream change elsewhere
	testutil.Commit(t, r, "local doc", map[string]string{"vendor/lib/doc.txt": "local doc"})
	sub2 := testutil.Detached(t, r, "sub v2", map[string]string{"lib.go": "v2", "doc.txt": "doc"}, sub1.ID)

	res, err = ex.Merge(ctx, merge.Request{Theirs: sub2.ID, Prefix: "vendor/lib", Message: "pull lib again"})
	require.NoError(t, err)
	assert.Equal(t, sub1.ID, res.Base)
	assert.Equal(t, "v2", testutil.Content(t, r, res.Commit.ID, "vendor/lib/lib.go"))
	assert.Equal(t, "local doc", testutil.Content(t, r, res.Commit.ID, "vendor/lib/doc.txt"))
	assert.Equal(t, "host", testutil.Content(t, r, res.Commit.ID, "README"))

	st, err := r.Status(ctx)
	require.NoError(t, err)
	assert.True(t, st.Clean())
}

func TestExecutorMergeUpToDate(t *testing.T) {
	r := testutil.NewRepo(t)
	ctx := context.Background()
	ex := merge.NewExecutor(r)

	testutil.Commit(t, r, "host", map[string]string{"README": "host"})
	sub := testutil.Detached(t, r, "sub", map[string]string{"lib.go": "v1"})

	_, err := ex.Merge(ctx, merge.Request{Theirs: sub.ID, Prefix: "lib", Message: "m"})
	require.NoError(t, err)
	tip := testutil.Tip(t, r)

	res, err := ex.Merge(ctx, merge.Request{Theirs: sub.ID, Prefix: "lib", Message: "m"})
	require.NoError(t, err)
	assert.True(t, res.UpToDate)
	assert.Nil(t, res.Commit)
	assert.Equal(t, tip, testutil.Tip(t, r))
}

func TestExecutorMergeConflict(t *testing.T) {
	r := testutil.NewRepo(t)
	ctx := context.Background()
	ex := merge.NewExecutor(r)

	testutil.Commit(t, r, "host", map[string]string{"README": "host"})
	sub1 := testutil.Detached(t, r, "sub v1", map[string]string{"lib.go": "v1"})
	_, err := ex.Merge(ctx, merge.Request{Theirs: sub1.ID, Prefix: "lib", Message: "m"})
	require.NoError(t, err)

	testutil.Commit(t, r, "local", map[string]string{"lib/lib.go": "local"})
	tip := testutil.Tip(t, r)
	sub2 := testutil.Detached(t, r, "sub v2", map[string]string{"lib.go": "v2"}, sub1.ID)

	res, err := ex.Merge(ctx, merge.Request{Theirs: sub2.ID, Prefix: "lib", Message: "m"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, merge.ErrConflict))

	var ce *merge.ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, []string{"lib/lib.go"}, ce.Paths)
	assert.Equal(t, ce.Paths, res.Conflicts)

	assert.Equal(t, tip, testutil.Tip(t, r), "no commit on conflict")
	assert.Equal(t, "local", testutil.ReadFile(t, r, "lib/lib.go"))
	assert.Equal(t, "v2", testutil.ReadFile(t, r, "lib/lib.go.MERGE_THEIRS"))
}

func TestMergeIndexLeavesWorkingTree(t *testing.T) {
	r := testutil.NewRepo(t)
	ex := merge.NewExecutor(r)

	testutil.Commit(t, r, "host", map[string]string{"README": "host"})
	sub := testutil.Detached(t, r, "sub", map[string]string{"a.txt": "a"})

	_, merged, err := ex.MergeIndex(context.Background(), sub.ID, "ext")
	require.NoError(t, err)
	assert.Len(t, merged, 2)

	idx, err := r.Index()
	require.NoError(t, err)
	assert.Equal(t, "ext/a.txt", idx[1].Path)

	assert.False(t, r.Store.FileCtx.Exists("ext/a.txt"))
}
