// Package testutil builds throwaway on-disk repositories for tests.
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/keshon/bvc-subtree/internal/repo"
	"github.com/keshon/bvc-subtree/internal/repo/meta"
	"github.com/keshon/bvc-subtree/internal/repo/store/file"
	"github.com/keshon/bvc-subtree/internal/repo/store/snapshot"
)

// NewRepo initializes a repository in a fresh temp dir with a deterministic clock.
func NewRepo(t testing.TB) *repo.Repository {
	t.Helper()
	r, err := repo.Init(t.TempDir())
	require.NoError(t, err)
	r.Meta.Now = Clock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	return r
}

// Clock returns a function yielding strictly increasing times from start.
func Clock(start time.Time) func() time.Time {
	n := 0
	return func() time.Time {
		n++
		return start.Add(time.Duration(n) * time.Second)
	}
}

// WriteFile writes content to a tree-relative path in the working tree.
func WriteFile(t testing.TB, r *repo.Repository, rel, content string) {
	t.Helper()
	abs := filepath.Join(r.Config.WorkingTreeDir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o755))
	require.NoError(t, os.WriteFile(abs, []byte(content), 0o644))
}

// ReadFile returns the content of a tree-relative path.
func ReadFile(t testing.TB, r *repo.Repository, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(r.Config.WorkingTreeDir, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(data)
}

// RemoveFile deletes a tree-relative path.
func RemoveFile(t testing.TB, r *repo.Repository, rel string) {
	t.Helper()
	require.NoError(t, os.RemoveAll(filepath.Join(r.Config.WorkingTreeDir, filepath.FromSlash(rel))))
}

// Commit writes files, stages the whole working tree and commits it.
func Commit(t testing.TB, r *repo.Repository, message string, files map[string]string) *meta.Commit {
	t.Helper()
	for rel, content := range files {
		WriteFile(t, r, rel, content)
	}
	StageAll(t, r)
	c, err := r.Commit(message)
	require.NoError(t, err)
	return c
}

// StageAll stages every file in the working tree, including deletions.
func StageAll(t testing.TB, r *repo.Repository) {
	t.Helper()
	_, _, err := r.Stage(context.Background(), []string{r.Config.WorkingTreeDir})
	require.NoError(t, err)
}

// Tip returns the tip of the current branch.
func Tip(t testing.TB, r *repo.Repository) string {
	t.Helper()
	tip, _, err := r.Head()
	require.NoError(t, err)
	return tip
}

// Paths lists the paths of a commit's tree.
func Paths(t testing.TB, r *repo.Repository, commitID string) []string {
	t.Helper()
	fset, err := r.CommitFileset(commitID)
	require.NoError(t, err)
	out := make([]string, 0, len(fset.Files))
	for _, f := range fset.Files {
		out = append(out, f.Path)
	}
	return out
}

// Content returns the content of path in a commit's tree.
func Content(t testing.TB, r *repo.Repository, commitID, path string) string {
	t.Helper()
	fset, err := r.CommitFileset(commitID)
	require.NoError(t, err)
	for _, f := range fset.Files {
		if f.Path == path {
			data, err := r.Store.FileCtx.ReadEntry(f)
			require.NoError(t, err)
			return string(data)
		}
	}
	t.Fatalf("path %q not in commit %s", path, meta.ShortID(commitID))
	return ""
}

// Detached stores files as a commit with the given parents without touching
// the index, the working tree or any branch tip.
func Detached(t testing.TB, r *repo.Repository, message string, files map[string]string, parents ...string) *meta.Commit {
	t.Helper()
	entries := make([]file.Entry, 0, len(files))
	for rel, content := range files {
		blocks, err := r.Store.BlockCtx.WriteData([]byte(content))
		require.NoError(t, err)
		entries = append(entries, file.Entry{Path: rel, Mode: 0o644, Blocks: blocks})
	}
	fset := snapshot.NewFileset(entries)
	require.NoError(t, r.Store.SnapshotCtx.Save(fset))
	c, err := r.CreateCommit(parents, fset.ID, message)
	require.NoError(t, err)
	return c
}
