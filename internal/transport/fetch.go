// Package transport copies history between bvc repositories on the local filesystem.
package transport

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/keshon/bvc-subtree/internal/repo"
	"github.com/keshon/bvc-subtree/internal/repo/meta"
	"github.com/keshon/bvc-subtree/internal/repo/store/block"
	"github.com/keshon/bvc-subtree/internal/repo/store/snapshot"
	"github.com/keshon/bvc-subtree/internal/revwalk"
	"github.com/keshon/bvc-subtree/internal/util"
)

var (
	ErrInvalidRef = errors.New("invalid ref name")
	ErrUnknownRef = errors.New("unknown remote ref")
)

// Fetcher pulls commits from other repositories into Repo.
type Fetcher struct {
	Repo    *repo.Repository
	Retries int
	Timeout time.Duration

	// open is replaced in tests.
	open func(path string) (*repo.Repository, error)
}

// Stats counts what one fetch copied.
type Stats struct {
	Commits  int
	Filesets int
	Blocks   int
}

// NewFetcher uses the fetch settings of r.
func NewFetcher(r *repo.Repository) *Fetcher {
	return &Fetcher{
		Repo:    r,
		Retries: r.Config.Settings.FetchRetries,
		Timeout: r.Config.Settings.FetchTimeout,
		open: func(path string) (*repo.Repository, error) {
			return repo.Open(path, repo.WithLogger(r.Log))
		},
	}
}

// Fetch copies ref of remote and everything it reaches that is missing
// locally, then points FETCH_HEAD at it. ref is a branch name or a commit id.
func (f *Fetcher) Fetch(ctx context.Context, remote, ref string) (string, error) {
	id, _, err := f.FetchStats(ctx, remote, ref)
	return id, err
}

// FetchStats is Fetch that also reports what was copied.
func (f *Fetcher) FetchStats(ctx context.Context, remote, ref string) (string, Stats, error) {
	if ref == "" || !meta.ValidRefName("branches/"+ref) {
		return "", Stats{}, fmt.Errorf("%w: %q", ErrInvalidRef, ref)
	}
	path, err := ResolveRemote(f.Repo, remote)
	if err != nil {
		return "", Stats{}, err
	}

	if f.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}

	var (
		id    string
		stats Stats
	)
	op := func() error {
		var err error
		id, stats, err = f.fetchOnce(ctx, path, ref)
		return err
	}
	notify := func(err error, wait time.Duration) {
		f.Repo.Log.Warn().Err(err).Dur("retry_in", wait).Str("remote", remote).Msg("fetch failed")
	}
	if err := backoff.RetryNotify(op, f.backOff(ctx), notify); err != nil {
		return "", Stats{}, fmt.Errorf("fetch %s from %s: %w", ref, remote, err)
	}

	if err := f.Repo.Meta.SetFetchHead(id); err != nil {
		return "", Stats{}, err
	}
	f.Repo.Log.Info().
		Str("remote", remote).
		Str("ref", ref).
		Str("commit", meta.ShortID(id)).
		Int("commits", stats.Commits).
		Int("blocks", stats.Blocks).
		Msg("fetched")
	return id, stats, nil
}

func (f *Fetcher) backOff(ctx context.Context) backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 100 * time.Millisecond
	if f.Timeout > 0 {
		bo.MaxElapsedTime = f.Timeout
	}
	retries := f.Retries
	if retries < 0 {
		retries = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(bo, uint64(retries)), ctx)
}

func (f *Fetcher) fetchOnce(ctx context.Context, path, ref string) (string, Stats, error) {
	src, err := f.open(path)
	if err != nil {
		if errors.Is(err, repo.ErrNotRepository) {
			return "", Stats{}, backoff.Permanent(err)
		}
		return "", Stats{}, err
	}
	id, err := src.Meta.ResolveRevision(ref)
	if err != nil {
		if errors.Is(err, meta.ErrUnknownRevision) || errors.Is(err, meta.ErrAmbiguousRevision) {
			return "", Stats{}, backoff.Permanent(fmt.Errorf("%w %q: %w", ErrUnknownRef, ref, err))
		}
		return "", Stats{}, err
	}
	stats, err := f.copyHistory(ctx, src, id)
	if errors.Is(err, block.ErrHashMismatch) {
		return "", Stats{}, backoff.Permanent(err)
	}
	return id, stats, err
}

// copyHistory copies the commits reachable from id that are missing locally,
// writing each commit only after its parents.
func (f *Fetcher) copyHistory(ctx context.Context, src *repo.Repository, id string) (Stats, error) {
	dst := f.Repo
	var stats Stats

	boundary, err := localBoundary(ctx, src.Meta, dst.Meta, id)
	if err != nil {
		return stats, err
	}
	commits, err := revwalk.New(src.Meta).Push(id).Hide(boundary...).Reverse().All(ctx)
	if err != nil {
		return stats, err
	}
	if len(commits) == 0 {
		return stats, nil
	}

	var filesets []snapshot.Fileset
	wanted := map[string]struct{}{}
	for _, c := range commits {
		if dst.Store.SnapshotCtx.Has(c.FilesetID) {
			continue
		}
		fset, err := src.Store.SnapshotCtx.Load(c.FilesetID)
		if err != nil {
			return stats, fmt.Errorf("load fileset of %s: %w", meta.ShortID(c.ID), err)
		}
		filesets = append(filesets, fset)
		for _, e := range fset.Files {
			for _, b := range e.Blocks {
				if !dst.Store.BlockCtx.Has(b.Hash) {
					wanted[b.Hash] = struct{}{}
				}
			}
		}
	}

	hashes := util.SortedKeys(wanted)
	err = util.Parallel(ctx, hashes, util.WorkerCount(), func(_ context.Context, h string) error {
		data, err := src.Store.BlockCtx.Read(h)
		if err != nil {
			return err
		}
		return dst.Store.BlockCtx.Put(h, data)
	})
	if err != nil {
		return stats, err
	}
	stats.Blocks = len(hashes)

	for _, fset := range filesets {
		if err := dst.Store.SnapshotCtx.Save(fset); err != nil {
			return stats, err
		}
		stats.Filesets++
	}
	for _, c := range commits {
		if _, err := dst.Meta.CreateCommit(c); err != nil {
			return stats, err
		}
		stats.Commits++
	}
	return stats, nil
}

// localBoundary returns the commits reachable from id that dst already has
// and whose children it lacks.
func localBoundary(ctx context.Context, src, dst *meta.MetaContext, id string) ([]string, error) {
	var boundary []string
	seen := map[string]bool{}
	queue := []string{id}
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cur := queue[0]
		queue = queue[1:]
		if seen[cur] {
			continue
		}
		seen[cur] = true
		if dst.HasCommit(cur) {
			boundary = append(boundary, cur)
			continue
		}
		c, err := src.GetCommit(cur)
		if err != nil {
			return nil, err
		}
		queue = append(queue, c.Parents...)
	}
	return boundary, nil
}
