package repo_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/bvc-subtree/internal/config"
	"github.com/keshon/bvc-subtree/internal/repo"
	"github.com/keshon/bvc-subtree/internal/testutil"
)

func TestInitAndOpen(t *testing.T) {
	r := testutil.NewRepo(t)

	_, err := repo.Init(r.Config.WorkingTreeDir)
	assert.ErrorIs(t, err, repo.ErrExists)

	opened, err := repo.Open(r.Config.WorkingTreeDir)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultBranch, opened.Config.Settings.DefaultBranch)

	_, err = repo.Open(t.TempDir())
	assert.ErrorIs(t, err, repo.ErrNotRepository)
}

func TestLockContention(t *testing.T) {
	r := testutil.NewRepo(t)
	other, err := repo.Open(r.Config.WorkingTreeDir)
	require.NoError(t, err)

	unlock, err := r.Lock()
	require.NoError(t, err)

	_, err = other.Lock()
	assert.ErrorIs(t, err, repo.ErrLocked)

	unlock()
	unlockOther, err := other.Lock()
	require.NoError(t, err)
	unlockOther()
}

func TestCommitAndHistory(t *testing.T) {
	r := testutil.NewRepo(t)

	_, err := r.Commit("empty")
	assert.ErrorIs(t, err, repo.ErrNothingToCommit)

	c1 := testutil.Commit(t, r, "first", map[string]string{"a.txt": "A", "dir/b.txt": "B"})
	assert.Empty(t, c1.Parents)
	assert.Equal(t, c1.ID, testutil.Tip(t, r))
	assert.Equal(t, []string{"a.txt", "dir/b.txt"}, testutil.Paths(t, r, c1.ID))

	_, err = r.Commit("again")
	assert.ErrorIs(t, err, repo.ErrNothingToCommit)

	c2 := testutil.Commit(t, r, "second", map[string]string{"a.txt": "A2"})
	assert.Equal(t, []string{c1.ID}, c2.Parents)
	assert.Equal(t, "A2", testutil.Content(t, r, c2.ID, "a.txt"))
	assert.Equal(t, "A", testutil.Content(t, r, c1.ID, "a.txt"))
}

func TestStageDeletion(t *testing.T) {
	ctx := context.Background()
	r := testutil.NewRepo(t)
	testutil.Commit(t, r, "first", map[string]string{"a.txt": "A", "dir/b.txt": "B"})

	testutil.RemoveFile(t, r, "dir/b.txt")
	staged, removed, err := r.Stage(ctx, []string{"dir/b.txt"})
	require.NoError(t, err)
	assert.Empty(t, staged)
	assert.Equal(t, []string{"dir/b.txt"}, removed)

	c, err := r.Commit("drop b")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt"}, testutil.Paths(t, r, c.ID))
}

func TestStatusAndCheckClean(t *testing.T) {
	ctx := context.Background()
	r := testutil.NewRepo(t)
	testutil.Commit(t, r, "first", map[string]string{"a.txt": "A"})
	require.NoError(t, r.CheckClean(ctx))

	testutil.WriteFile(t, r, "untracked.txt", "u")
	require.NoError(t, r.CheckClean(ctx), "untracked files keep the tree clean")

	testutil.WriteFile(t, r, "a.txt", "changed")
	st, err := r.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt"}, st.Unstaged.Modified)
	assert.Equal(t, []string{"untracked.txt"}, st.Unstaged.Added)
	assert.ErrorIs(t, r.CheckClean(ctx), repo.ErrDirty)

	_, _, err = r.Stage(ctx, []string{"a.txt"})
	require.NoError(t, err)
	st, err = r.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt"}, st.Staged.Modified)
	assert.ErrorIs(t, r.CheckClean(ctx), repo.ErrDirty)
}

func TestVerifyHead(t *testing.T) {
	ctx := context.Background()
	r := testutil.NewRepo(t)
	require.NoError(t, r.VerifyHead(ctx))

	c := testutil.Commit(t, r, "first", map[string]string{"a.txt": "A"})
	require.NoError(t, r.VerifyHead(ctx))

	fset, err := r.CommitFileset(c.ID)
	require.NoError(t, err)
	hash := fset.Files[0].Blocks[0].Hash
	require.NoError(t, r.FS.Remove(r.Config.ObjectsDir()+"/"+hash+".bin"))
	assert.Error(t, r.VerifyHead(ctx))
}
