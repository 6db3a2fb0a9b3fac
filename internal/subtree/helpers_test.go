package subtree_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/keshon/bvc-subtree/internal/repo"
	"github.com/keshon/bvc-subtree/internal/subtree"
	"github.com/keshon/bvc-subtree/internal/testutil"
	"github.com/keshon/bvc-subtree/internal/transport"
)

// newHost returns a repository with one commit and a driver over it.
func newHost(t *testing.T) (*repo.Repository, *subtree.Driver) {
	t.Helper()
	r := testutil.NewRepo(t)
	testutil.Commit(t, r, "init", map[string]string{"README": "host"})
	return r, subtree.NewDriver(r, transport.NewFetcher(r), nil)
}

// advance moves the current branch to id.
func advance(t *testing.T, r *repo.Repository, id string) {
	t.Helper()
	_, branch, err := r.Head()
	require.NoError(t, err)
	require.NoError(t, r.Meta.SetLastCommitID(branch, id))
}
