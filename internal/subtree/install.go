package subtree

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/keshon/bvc-subtree/internal/merge"
	"github.com/keshon/bvc-subtree/internal/repo"
	"github.com/keshon/bvc-subtree/internal/repo/meta"
	"github.com/keshon/bvc-subtree/internal/repo/store/snapshot"
)

// Installer places the tree of a commit into the index below a prefix.
type Installer struct {
	Repo   *repo.Repository
	Merger *merge.Executor
}

func NewInstaller(r *repo.Repository) *Installer {
	return &Installer{Repo: r, Merger: merge.NewExecutor(r)}
}

// Install copies the tree of commitID to prefix/... in the index. When the
// index already holds content below prefix the incoming tree is three-way
// merged with it instead. Paths outside prefix are untouched and the working
// tree is not written.
func (in *Installer) Install(ctx context.Context, commitID, prefix string) error {
	r := in.Repo
	fset, err := r.CommitFileset(commitID)
	if err != nil {
		return fmt.Errorf("%w: couldn't get tree for commit %s: %w", ErrTreeUnavailable, meta.ShortID(commitID), err)
	}
	idx, err := r.Index()
	if err != nil {
		return fmt.Errorf("read index: %w", err)
	}

	if len(snapshot.Within(idx, prefix)) > 0 {
		_, _, err := in.Merger.MergeIndex(ctx, commitID, prefix)
		var conflict *merge.ConflictError
		switch {
		case errors.As(err, &conflict):
			return fmt.Errorf("%w: %w", ErrMergeConflict, err)
		case errors.Is(err, merge.ErrIndexWrite):
			return fmt.Errorf("%w: %w", ErrIndexWrite, err)
		case err != nil:
			return fmt.Errorf("%w: couldn't merge tree of %s: %w", ErrTreeUnavailable, meta.ShortID(commitID), err)
		}
		return nil
	}

	byPath := snapshot.ByPath(idx)
	var conflicts []string
	for dir := path.Dir(prefix); dir != "."; dir = path.Dir(dir) {
		if _, ok := byPath[dir]; ok {
			conflicts = append(conflicts, dir)
		}
	}
	if len(conflicts) > 0 {
		return fmt.Errorf("%w: %s is a file in the index", ErrMergeConflict, strings.Join(conflicts, ", "))
	}

	incoming := snapshot.Shift(fset.Files, prefix)
	if err := r.WriteIndex(append(idx, incoming...)); err != nil {
		return fmt.Errorf("%w: %w", ErrIndexWrite, err)
	}
	r.Log.Debug().
		Str("commit", meta.ShortID(commitID)).
		Str("prefix", prefix).
		Int("files", len(incoming)).
		Msg("installed tree")
	return nil
}
