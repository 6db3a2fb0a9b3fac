package subtree

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/keshon/bvc-subtree/internal/repo"
	"github.com/keshon/bvc-subtree/internal/repo/meta"
	"github.com/keshon/bvc-subtree/internal/revwalk"
	"github.com/keshon/bvc-subtree/internal/trailer"
)

// SyncPoint is where the last synchronization of a prefix left off.
type SyncPoint struct {
	// Mainline is the host commit representing the embedded state.
	Mainline string
	// Subordinate is the embedded project commit it corresponds to.
	Subordinate string
}

// Fetcher retrieves a ref from a remote into the local store.
type Fetcher interface {
	Fetch(ctx context.Context, remote, ref string) (string, error)
}

// Resolver recovers the last sync point of a prefix from commit trailers.
type Resolver struct {
	Repo    *repo.Repository
	Fetcher Fetcher
	// Cache is optional.
	Cache *SyncCache
}

func NewResolver(r *repo.Repository, f Fetcher, cache *SyncCache) *Resolver {
	return &Resolver{Repo: r, Fetcher: f, Cache: cache}
}

// Resolve walks the history of the current tip, newest first, and returns the
// sync point recorded by the first commit carrying embedded-split whose
// embedded-dir, when present, equals prefix. ErrNotFound means prefix was
// never synchronized on this line of history.
func (rs *Resolver) Resolve(ctx context.Context, prefix, remoteHint string) (SyncPoint, error) {
	r := rs.Repo
	tip, _, err := r.Head()
	if err != nil {
		return SyncPoint{}, err
	}
	if tip == "" {
		return SyncPoint{}, fmt.Errorf("%w for '%s': branch has no commits", ErrNotFound, prefix)
	}

	if sp, ok := rs.cached(prefix, tip); ok {
		return sp, nil
	}

	walk := revwalk.New(r.Meta).Push(tip)
	if err := walk.Prepare(ctx); err != nil {
		return SyncPoint{}, fmt.Errorf("%w: %w", ErrRevisionWalk, err)
	}
	for {
		c, err := walk.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return SyncPoint{}, fmt.Errorf("%w: %w", ErrRevisionWalk, err)
		}

		ts := trailer.Parse(c.Message)
		if dir, ok := ts.Get(trailer.KeyDir); ok && dir != prefix {
			continue
		}
		split, ok := ts.Get(trailer.KeySplit)
		if !ok {
			continue
		}

		mainline := c.ID
		if ts.Has(trailer.KeyMainline) {
			if len(c.Parents) <= 2 {
				return SyncPoint{}, fmt.Errorf("%w: %s carries %s but has %d parent(s)",
					ErrAmbiguousSyncPoint, meta.ShortID(c.ID), trailer.KeyMainline, len(c.Parents))
			}
			mainline = c.Parents[1]
		}

		sub, err := rs.resolveSplit(ctx, split, remoteHint)
		if err != nil {
			return SyncPoint{}, fmt.Errorf("%w: %q in %s: %w", ErrSplitRefUnresolvable, split, meta.ShortID(c.ID), err)
		}

		sp := SyncPoint{Mainline: mainline, Subordinate: sub}
		r.Log.Debug().
			Str("prefix", prefix).
			Str("mainline", meta.ShortID(mainline)).
			Str("split", meta.ShortID(sub)).
			Msg("resolved sync point")
		if rs.Cache != nil {
			if err := rs.Cache.Put(prefix, tip, sp); err != nil {
				r.Log.Warn().Err(err).Msg("store sync point in cache")
			}
		}
		return sp, nil
	}
	return SyncPoint{}, fmt.Errorf("%w for '%s'", ErrNotFound, prefix)
}

func (rs *Resolver) cached(prefix, tip string) (SyncPoint, bool) {
	if rs.Cache == nil {
		return SyncPoint{}, false
	}
	sp, ok, err := rs.Cache.Get(prefix, tip)
	if err != nil {
		rs.Repo.Log.Warn().Err(err).Msg("read sync point cache")
		return SyncPoint{}, false
	}
	if !ok {
		return SyncPoint{}, false
	}
	if !rs.Repo.Meta.HasCommit(sp.Mainline) || !rs.Repo.Meta.HasCommit(sp.Subordinate) {
		// The entry names commits this store no longer has.
		if err := rs.Cache.Forget(prefix); err != nil {
			rs.Repo.Log.Warn().Err(err).Msg("drop stale sync point")
		}
		return SyncPoint{}, false
	}
	return sp, true
}

// resolveSplit resolves an embedded-split value locally, fetching it from
// remoteHint once when it is missing.
func (rs *Resolver) resolveSplit(ctx context.Context, split, remoteHint string) (string, error) {
	id, err := rs.Repo.Meta.ResolveRevision(split)
	if err == nil {
		return id, nil
	}
	if remoteHint == "" || rs.Fetcher == nil {
		return "", err
	}

	rs.Repo.Log.Info().Str("remote", remoteHint).Str("split", meta.ShortID(split)).Msg("fetching split commit")
	if _, ferr := rs.Fetcher.Fetch(ctx, remoteHint, split); ferr != nil {
		return "", errors.Join(err, ferr)
	}
	return rs.Repo.Meta.ResolveRevision(split)
}
