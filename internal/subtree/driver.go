// Package subtree embeds the history of another repository below a path
// prefix and keeps it synchronized through commit trailers.
package subtree

import (
	"context"
	"errors"
	"fmt"

	"github.com/keshon/bvc-subtree/internal/merge"
	"github.com/keshon/bvc-subtree/internal/repo"
	"github.com/keshon/bvc-subtree/internal/repo/meta"
	"github.com/keshon/bvc-subtree/internal/trailer"
	"github.com/keshon/bvc-subtree/internal/transport"
)

// AddOptions configure a first import. The source is either Commit or
// Remote plus Ref.
type AddOptions struct {
	Prefix  string
	Commit  string
	Remote  string
	Ref     string
	Squash  bool
	Message string
	// Rejoin records the sync point without installing the tree; prefix
	// must already hold the content.
	Rejoin bool
}

// MergeOptions configure an incremental sync. The target is either Commit
// or Remote plus Ref. Remote alone is only a hint for fetching split commits
// missing locally.
type MergeOptions struct {
	Prefix  string
	Commit  string
	Remote  string
	Ref     string
	Squash  bool
	Message string
}

// Result of an add or merge.
type Result struct {
	// Commit is the new branch tip, nil for no-ops and failures.
	Commit *meta.Commit
	// Squash is the synthesized squash commit, if any.
	Squash    *meta.Commit
	NoOp      bool
	Warning   string
	Conflicts []string
}

// Driver runs add and merge against one repository.
type Driver struct {
	Repo      *repo.Repository
	Installer *Installer
	Synth     *Synthesizer
	Resolver  *Resolver
	Fetcher   Fetcher

	cache *SyncCache
}

// NewDriver wires the components around r. fetcher and cache may be nil.
func NewDriver(r *repo.Repository, fetcher Fetcher, cache *SyncCache) *Driver {
	return &Driver{
		Repo:      r,
		Installer: NewInstaller(r),
		Synth:     NewSynthesizer(r),
		Resolver:  NewResolver(r, fetcher, cache),
		Fetcher:   fetcher,
		cache:     cache,
	}
}

// Open builds a driver from the repository settings: a filesystem fetcher
// and, when cache.sync_points is set, the sync point cache.
func Open(r *repo.Repository) (*Driver, error) {
	var cache *SyncCache
	if r.Config.Settings.CacheSyncs {
		c, err := OpenSyncCache(r.Config.SyncCacheFile())
		if err != nil {
			return nil, err
		}
		cache = c
	}
	return NewDriver(r, transport.NewFetcher(r), cache), nil
}

// Close releases the sync point cache.
func (d *Driver) Close() error {
	if d.cache == nil {
		return nil
	}
	return d.cache.Close()
}

// Add imports a commit below a prefix that does not exist yet and records
// the sync point. With Squash the imported history is replaced by a single
// parentless squash commit.
func (d *Driver) Add(ctx context.Context, opts AddOptions) (Result, error) {
	r := d.Repo
	prefix, err := NormalizePrefix(opts.Prefix)
	if err != nil {
		return Result{}, err
	}
	unlock, err := r.Lock()
	if err != nil {
		return Result{}, err
	}
	defer unlock()

	exists := r.Store.FileCtx.Exists(prefix)
	switch {
	case !opts.Rejoin && exists:
		return Result{}, fmt.Errorf("%w: '%s'", ErrPrefixExists, prefix)
	case opts.Rejoin && !exists:
		return Result{}, fmt.Errorf("%w: '%s'", ErrPrefixMissing, prefix)
	}
	if err := r.CheckClean(ctx); err != nil {
		return Result{}, fmt.Errorf("subtree add: %w; please commit them first", err)
	}

	commitID, err := d.resolveSource(ctx, opts.Commit, opts.Remote, opts.Ref)
	if err != nil {
		return Result{}, err
	}

	if !opts.Rejoin {
		if err := d.Installer.Install(ctx, commitID, prefix); err != nil {
			return Result{}, fmt.Errorf("couldn't read tree into index for commit %s: %w", meta.ShortID(commitID), err)
		}
	}
	fsetID, err := d.materialize(prefix)
	if err != nil {
		return Result{}, err
	}

	tip, branch, err := r.Head()
	if err != nil {
		return Result{}, err
	}

	incoming := commitID
	var squash *meta.Commit
	if opts.Squash {
		squash, err = d.Synth.Commit(ctx, "", commitID, prefix, "")
		if err != nil {
			return Result{}, err
		}
		incoming = squash.ID
	}

	var parents []string
	if tip != "" {
		parents = append(parents, tip)
	}
	if incoming != tip {
		parents = append(parents, incoming)
	}

	msg := opts.Message
	if msg == "" {
		msg = fmt.Sprintf("Add '%s/' from commit '%s'", prefix, commitID)
	}
	if !opts.Squash {
		msg = trailer.Append(msg, SyncTrailers(prefix, commitID)...)
	}

	c, err := r.CreateCommit(parents, fsetID, msg)
	if err != nil {
		return Result{}, err
	}
	if err := r.Meta.CompareAndSwapTip(branch, tip, c.ID); err != nil {
		return Result{}, err
	}
	r.Log.Info().
		Str("prefix", prefix).
		Str("commit", meta.ShortID(c.ID)).
		Str("source", meta.ShortID(commitID)).
		Bool("squash", opts.Squash).
		Msg("subtree added")
	return Result{Commit: c, Squash: squash}, nil
}

// Merge brings prefix up to date with the target. With Squash the range
// since the last sync point is collapsed into one squash commit chained
// from the previous one, and a target equal to the last synced commit is a
// no-op.
func (d *Driver) Merge(ctx context.Context, opts MergeOptions) (Result, error) {
	r := d.Repo
	prefix, err := NormalizePrefix(opts.Prefix)
	if err != nil {
		return Result{}, err
	}
	unlock, err := r.Lock()
	if err != nil {
		return Result{}, err
	}
	defer unlock()

	if err := r.CheckClean(ctx); err != nil {
		return Result{}, fmt.Errorf("subtree merge: %w; please commit them first", err)
	}

	var sp SyncPoint
	if opts.Squash {
		sp, err = d.Resolver.Resolve(ctx, prefix, opts.Remote)
		if errors.Is(err, ErrNotFound) {
			return Result{}, fmt.Errorf("%w: can't squash-merge '%s', use 'subtree add' first: %w", ErrNoPriorSync, prefix, err)
		}
		if err != nil {
			return Result{}, err
		}
	}
	if !r.Store.FileCtx.Exists(prefix) {
		return Result{}, fmt.Errorf("%w: '%s'; use 'subtree add' first", ErrPrefixMissing, prefix)
	}

	target, err := d.resolveSource(ctx, opts.Commit, fetchRemote(opts), opts.Ref)
	if err != nil {
		return Result{}, err
	}

	incoming := target
	var squash *meta.Commit
	if opts.Squash {
		if target == sp.Subordinate {
			warning := fmt.Sprintf("Subtree is already at commit %s.", meta.ShortID(target))
			r.Log.Warn().Str("prefix", prefix).Str("commit", meta.ShortID(target)).Msg("subtree already at commit")
			return Result{NoOp: true, Warning: warning}, nil
		}
		squash, err = d.Synth.Commit(ctx, sp.Subordinate, target, prefix, sp.Mainline)
		if err != nil {
			return Result{}, err
		}
		incoming = squash.ID
	}

	msg := opts.Message
	if msg == "" {
		msg = fmt.Sprintf("Merge commit '%s' as '%s'", incoming, prefix)
	}
	if !opts.Squash {
		msg = trailer.Append(msg, SyncTrailers(prefix, target)...)
	}

	tip, branch, err := r.Head()
	if err != nil {
		return Result{}, err
	}
	base, err := merge.CommonAncestor(ctx, r.Meta, tip, incoming)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrRevisionWalk, err)
	}
	if incoming == tip || base == incoming {
		return Result{Squash: squash, NoOp: true, Warning: "Already up to date."}, nil
	}

	err = d.Installer.Install(ctx, incoming, prefix)
	var conflict *merge.ConflictError
	if errors.As(err, &conflict) {
		idx, ierr := r.Index()
		if ierr != nil {
			return Result{}, fmt.Errorf("%w: %w", ErrIndexWrite, ierr)
		}
		if cerr := r.Checkout(idx, prefix); cerr != nil {
			return Result{}, fmt.Errorf("%w: couldn't checkout working tree at %s: %w", ErrCheckout, prefix, cerr)
		}
		return Result{Squash: squash, Conflicts: conflict.Paths}, err
	}
	if err != nil {
		return Result{}, err
	}
	fsetID, err := d.materialize(prefix)
	if err != nil {
		return Result{}, err
	}

	parents := []string{incoming}
	if tip != "" {
		parents = []string{tip, incoming}
	}
	c, err := r.CreateCommit(parents, fsetID, msg)
	if err != nil {
		return Result{}, err
	}
	if err := r.Meta.CompareAndSwapTip(branch, tip, c.ID); err != nil {
		return Result{}, err
	}

	r.Log.Info().
		Str("prefix", prefix).
		Str("commit", meta.ShortID(c.ID)).
		Str("target", meta.ShortID(target)).
		Bool("squash", opts.Squash).
		Msg("subtree merged")
	return Result{Commit: c, Squash: squash}, nil
}

// Run dispatches op.
func (d *Driver) Run(ctx context.Context, op Operation) (Result, error) {
	d.Repo.Log.Debug().Str("op", op.Name()).Msg("subtree operation")
	return op.Run(ctx, d)
}

func fetchRemote(opts MergeOptions) string {
	if opts.Ref == "" {
		return ""
	}
	return opts.Remote
}

// resolveSource turns a commit reference, or a remote and ref to fetch,
// into a local commit id.
func (d *Driver) resolveSource(ctx context.Context, commit, remote, ref string) (string, error) {
	if remote != "" && ref != "" {
		if !meta.ValidRefName("branches/" + ref) {
			return "", fmt.Errorf("%w: '%s' does not look like a ref", transport.ErrInvalidRef, ref)
		}
		if d.Fetcher == nil {
			return "", fmt.Errorf("%w: no transport for %s", ErrResolution, remote)
		}
		id, err := d.Fetcher.Fetch(ctx, remote, ref)
		if err != nil {
			return "", fmt.Errorf("%w: couldn't fetch ref %s from repository %s: %w", ErrResolution, ref, remote, err)
		}
		return id, nil
	}
	if commit == "" {
		return "", fmt.Errorf("%w: no commit given", ErrResolution)
	}
	id, err := d.Repo.Meta.ResolveRevision(commit)
	if err != nil {
		return "", fmt.Errorf("%w: '%s' does not refer to a commit: %w", ErrResolution, commit, err)
	}
	return id, nil
}

// materialize checks out prefix from the index and stores the index as a
// fileset, returning its id.
func (d *Driver) materialize(prefix string) (string, error) {
	r := d.Repo
	idx, err := r.Index()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrIndexWrite, err)
	}
	if err := r.Checkout(idx, prefix); err != nil {
		return "", fmt.Errorf("%w: couldn't checkout working tree at %s: %w", ErrCheckout, prefix, err)
	}
	fset, err := r.WriteIndexTree()
	if err != nil {
		return "", fmt.Errorf("%w: couldn't write index into new tree: %w", ErrIndexWrite, err)
	}
	return fset.ID, nil
}
