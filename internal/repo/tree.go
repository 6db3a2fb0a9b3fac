package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/keshon/bvc-subtree/internal/repo/meta"
	"github.com/keshon/bvc-subtree/internal/repo/store/file"
	"github.com/keshon/bvc-subtree/internal/repo/store/snapshot"
)

var (
	// ErrDirty is returned when the working tree or index differ from HEAD.
	ErrDirty           = errors.New("working tree has uncommitted changes")
	ErrNothingToCommit = errors.New("nothing to commit")
)

// Head returns the current branch and its tip ("" for an unborn branch).
func (r *Repository) Head() (tip string, branch string, err error) {
	id, b, err := r.Meta.HeadCommitID()
	if err != nil {
		return "", "", err
	}
	return id, b.Name, nil
}

// CommitFileset loads the tree of a commit.
func (r *Repository) CommitFileset(commitID string) (snapshot.Fileset, error) {
	c, err := r.Meta.GetCommit(commitID)
	if err != nil {
		return snapshot.Fileset{}, err
	}
	return r.Store.SnapshotCtx.Load(c.FilesetID)
}

// HeadFileset returns the tree at HEAD, empty for an unborn branch.
func (r *Repository) HeadFileset() (snapshot.Fileset, error) {
	tip, _, err := r.Head()
	if err != nil {
		return snapshot.Fileset{}, err
	}
	if tip == "" {
		return snapshot.NewFileset(nil), nil
	}
	return r.CommitFileset(tip)
}

// Index returns the staged tree.
func (r *Repository) Index() ([]file.Entry, error) {
	return r.Store.FileCtx.LoadIndex()
}

// WriteIndex replaces the staged tree.
func (r *Repository) WriteIndex(entries []file.Entry) error {
	return r.Store.FileCtx.SaveIndex(entries)
}

// WriteIndexTree saves the staged tree as a fileset. Blocks are stored at staging time.
func (r *Repository) WriteIndexTree() (snapshot.Fileset, error) {
	entries, err := r.Index()
	if err != nil {
		return snapshot.Fileset{}, err
	}
	fset := snapshot.NewFileset(entries)
	if err := r.Store.SnapshotCtx.Save(fset); err != nil {
		return snapshot.Fileset{}, err
	}
	return fset, nil
}

// CreateCommit stores a commit of filesetID on the current branch. The tip is not moved.
func (r *Repository) CreateCommit(parents []string, filesetID, message string) (*meta.Commit, error) {
	_, branch, err := r.Head()
	if err != nil {
		return nil, err
	}
	c := meta.NewCommit(parents, filesetID, branch, message, r.Meta.Now())
	if _, err := r.Meta.CreateCommit(c); err != nil {
		return nil, err
	}
	r.Log.Debug().Str("commit", meta.ShortID(c.ID)).Strs("parents", parents).Msg("created commit")
	return c, nil
}

// Commit records the index as a new commit on the current branch and moves the tip.
// Callers hold the repository lock.
func (r *Repository) Commit(message string) (*meta.Commit, error) {
	tip, branch, err := r.Head()
	if err != nil {
		return nil, err
	}
	fset, err := r.WriteIndexTree()
	if err != nil {
		return nil, err
	}

	var parents []string
	if tip != "" {
		head, err := r.CommitFileset(tip)
		if err != nil {
			return nil, err
		}
		if head.ID == fset.ID {
			return nil, ErrNothingToCommit
		}
		parents = []string{tip}
	} else if len(fset.Files) == 0 {
		return nil, ErrNothingToCommit
	}

	c, err := r.CreateCommit(parents, fset.ID, message)
	if err != nil {
		return nil, err
	}
	if err := r.Meta.CompareAndSwapTip(branch, tip, c.ID); err != nil {
		return nil, err
	}
	return c, nil
}

// Stage records the current content of paths in the index. Missing paths are unstaged.
func (r *Repository) Stage(ctx context.Context, paths []string) (staged, removed []string, err error) {
	fc := r.Store.FileCtx
	var present []string
	for _, p := range paths {
		rel, err := fc.Rel(p)
		if err != nil {
			return nil, nil, fmt.Errorf("stage %q: %w", p, err)
		}
		if r.FS.IsDir(fc.Abs(rel)) {
			files, err := fc.ScanDir(rel)
			if err != nil {
				return nil, nil, err
			}
			present = append(present, files...)
			removed = append(removed, r.missingUnder(rel, files)...)
			continue
		}
		if fc.Exists(rel) {
			present = append(present, rel)
		} else {
			removed = append(removed, rel)
		}
	}

	entries, err := fc.BuildEntries(ctx, present)
	if err != nil {
		return nil, nil, err
	}
	if err := fc.Store(ctx, entries); err != nil {
		return nil, nil, err
	}
	if err := fc.UpdateIndex(entries, removed); err != nil {
		return nil, nil, err
	}
	return present, removed, nil
}

func (r *Repository) missingUnder(dir string, present []string) []string {
	idx, err := r.Index()
	if err != nil {
		return nil
	}
	have := make(map[string]bool, len(present))
	for _, p := range present {
		have[p] = true
	}
	var out []string
	for _, e := range snapshot.Within(idx, dir) {
		if !have[e.Path] {
			out = append(out, e.Path)
		}
	}
	return out
}

// Status describes uncommitted work.
type Status struct {
	// Unstaged compares the working tree against the index; Added holds untracked files.
	Unstaged file.Changes
	// Staged compares the index against HEAD.
	Staged file.Changes
}

// Clean reports whether tracked content matches HEAD. Untracked files do not count.
func (s Status) Clean() bool {
	return len(s.Unstaged.Modified) == 0 && len(s.Unstaged.Deleted) == 0 && s.Staged.Empty()
}

// Status compares working tree, index and HEAD.
func (r *Repository) Status(ctx context.Context) (Status, error) {
	idx, err := r.Index()
	if err != nil {
		return Status{}, err
	}
	unstaged, _, err := r.Store.FileCtx.Diff(ctx, idx)
	if err != nil {
		return Status{}, err
	}
	head, err := r.HeadFileset()
	if err != nil {
		return Status{}, err
	}
	return Status{Unstaged: unstaged, Staged: diffEntries(head.Files, idx)}, nil
}

// CheckClean fails with ErrDirty unless the working tree and index match HEAD.
func (r *Repository) CheckClean(ctx context.Context) error {
	st, err := r.Status(ctx)
	if err != nil {
		return err
	}
	if !st.Clean() {
		n := len(st.Unstaged.Modified) + len(st.Unstaged.Deleted) +
			len(st.Staged.Added) + len(st.Staged.Modified) + len(st.Staged.Deleted)
		return fmt.Errorf("%w (%d paths)", ErrDirty, n)
	}
	return nil
}

func diffEntries(from, to []file.Entry) file.Changes {
	before := snapshot.ByPath(from)
	after := snapshot.ByPath(to)
	var ch file.Changes
	for _, e := range to {
		old, ok := before[e.Path]
		switch {
		case !ok:
			ch.Added = append(ch.Added, e.Path)
		case !old.Equal(&e):
			ch.Modified = append(ch.Modified, e.Path)
		}
	}
	for _, e := range from {
		if _, ok := after[e.Path]; !ok {
			ch.Deleted = append(ch.Deleted, e.Path)
		}
	}
	return ch
}

// Checkout materializes entries below prefix into the working tree.
func (r *Repository) Checkout(entries []file.Entry, prefix string) error {
	return r.Store.FileCtx.Checkout(entries, prefix)
}
