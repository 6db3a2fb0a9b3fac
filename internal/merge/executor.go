// Package merge reconciles two lines of history, optionally scoped to a path prefix.
package merge

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/keshon/bvc-subtree/internal/repo"
	"github.com/keshon/bvc-subtree/internal/repo/meta"
	"github.com/keshon/bvc-subtree/internal/repo/store/file"
	"github.com/keshon/bvc-subtree/internal/repo/store/snapshot"
)

var (
	// ErrConflict is wrapped by *ConflictError.
	ErrConflict   = errors.New("merge conflict")
	ErrIndexWrite = errors.New("write index")
)

// ConflictError lists the paths both sides changed differently.
type ConflictError struct {
	Paths []string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s in %d path(s): %s", ErrConflict, len(e.Paths), strings.Join(e.Paths, ", "))
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// Request describes one merge.
type Request struct {
	// Theirs is the incoming commit.
	Theirs string
	// Prefix scopes the merge: the incoming tree is placed below it and
	// paths outside it keep our content. Empty merges whole trees.
	Prefix string
	// Message of the merge commit.
	Message string
}

type Result struct {
	Commit    *meta.Commit
	Base      string
	UpToDate  bool
	Conflicts []string
}

// Executor runs merges against the index and working tree of a repository.
type Executor struct {
	Repo *repo.Repository
}

func NewExecutor(r *repo.Repository) *Executor {
	return &Executor{Repo: r}
}

// MergeIndex merges theirs into the index below prefix and writes the index.
// The working tree is left alone. On conflicts the index still holds the
// merged tree with .MERGE_THEIRS copies and a *ConflictError is returned.
func (e *Executor) MergeIndex(ctx context.Context, theirs, prefix string) (base string, merged []file.Entry, err error) {
	r := e.Repo
	tip, _, err := r.Head()
	if err != nil {
		return "", nil, err
	}
	ours, err := r.Index()
	if err != nil {
		return "", nil, err
	}

	base, err = CommonAncestor(ctx, r.Meta, tip, theirs)
	if err != nil {
		return "", nil, err
	}

	theirsTree, err := r.CommitFileset(theirs)
	if err != nil {
		return "", nil, fmt.Errorf("load tree of %s: %w", meta.ShortID(theirs), err)
	}
	var baseFiles []file.Entry
	if base != "" {
		baseTree, err := r.CommitFileset(base)
		if err != nil {
			return "", nil, fmt.Errorf("load tree of %s: %w", meta.ShortID(base), err)
		}
		baseFiles = baseTree.Files
	}

	theirsView := theirsTree.Files
	baseView := baseFiles
	if prefix != "" {
		theirsView = snapshot.Shift(theirsTree.Files, prefix)
		// Embedded history only enters through later parents, so a base on
		// the tip's first-parent chain is a host commit holding the prefix.
		// Any other base is rooted at the embedded project's top.
		hostBase, err := OnFirstParentChain(ctx, r.Meta, tip, base)
		if err != nil {
			return "", nil, err
		}
		if hostBase {
			baseView = snapshot.Within(baseFiles, prefix)
		} else {
			baseView = snapshot.Shift(baseFiles, prefix)
		}
	}

	part, conflicts := Filesets(baseView, snapshot.Within(ours, prefix), theirsView)
	merged = append(snapshot.Without(ours, prefix), part...)
	if err := r.WriteIndex(merged); err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrIndexWrite, err)
	}

	r.Log.Debug().
		Str("theirs", meta.ShortID(theirs)).
		Str("base", meta.ShortID(base)).
		Str("prefix", prefix).
		Int("conflicts", len(conflicts)).
		Msg("merged index")

	if len(conflicts) > 0 {
		return base, merged, &ConflictError{Paths: conflicts}
	}
	return base, merged, nil
}

// Merge merges req.Theirs into the current branch, materializes the result
// and, without conflicts, records a merge commit [tip, theirs] and moves
// the tip. Callers hold the repository lock.
func (e *Executor) Merge(ctx context.Context, req Request) (Result, error) {
	r := e.Repo
	tip, branch, err := r.Head()
	if err != nil {
		return Result{}, err
	}
	if req.Theirs == tip {
		return Result{UpToDate: true, Base: tip}, nil
	}
	base, err := CommonAncestor(ctx, r.Meta, tip, req.Theirs)
	if err != nil {
		return Result{}, err
	}
	if base == req.Theirs {
		return Result{UpToDate: true, Base: base}, nil
	}

	base, merged, err := e.MergeIndex(ctx, req.Theirs, req.Prefix)
	var conflictErr *ConflictError
	if err != nil && !errors.As(err, &conflictErr) {
		return Result{}, err
	}

	if cerr := r.Checkout(merged, req.Prefix); cerr != nil {
		return Result{}, fmt.Errorf("checkout: %w", cerr)
	}
	if conflictErr != nil {
		return Result{Base: base, Conflicts: conflictErr.Paths}, conflictErr
	}

	fset, err := r.WriteIndexTree()
	if err != nil {
		return Result{}, err
	}
	parents := []string{req.Theirs}
	if tip != "" {
		parents = []string{tip, req.Theirs}
	}
	c, err := r.CreateCommit(parents, fset.ID, req.Message)
	if err != nil {
		return Result{}, err
	}
	if err := r.Meta.CompareAndSwapTip(branch, tip, c.ID); err != nil {
		return Result{}, err
	}
	return Result{Commit: c, Base: base}, nil
}
