package subtree

import (
	"context"
	"fmt"
	"strings"

	"github.com/keshon/bvc-subtree/internal/repo"
	"github.com/keshon/bvc-subtree/internal/repo/meta"
	"github.com/keshon/bvc-subtree/internal/revwalk"
	"github.com/keshon/bvc-subtree/internal/trailer"
)

// Synthesizer builds squash commits standing in for a range of embedded history.
type Synthesizer struct {
	Repo *repo.Repository
}

func NewSynthesizer(r *repo.Repository) *Synthesizer {
	return &Synthesizer{Repo: r}
}

// SyncTrailers are the trailers recording that prefix holds split.
func SyncTrailers(prefix, split string) []trailer.Trailer {
	return []trailer.Trailer{
		{Key: trailer.KeyDir, Value: prefix},
		{Key: trailer.KeySplit, Value: split},
	}
}

// Message renders the squash message for oldSub..newSub. An empty oldSub
// describes a first import. The commits of the range are listed in walk
// order, then again reversed as REVERT lines.
func (s *Synthesizer) Message(ctx context.Context, oldSub, newSub, prefix string) (string, error) {
	var sb strings.Builder
	if oldSub == "" {
		fmt.Fprintf(&sb, "Squashed '%s/' content from commit %s\n", prefix, meta.ShortID(newSub))
	} else {
		fmt.Fprintf(&sb, "Squashed '%s/' changes from %s..%s\n", prefix, meta.ShortID(oldSub), meta.ShortID(newSub))

		commits, err := revwalk.New(s.Repo.Meta).Push(newSub).Hide(oldSub).All(ctx)
		if err != nil {
			return "", fmt.Errorf("%w: %s..%s: %w", ErrRevisionWalk, meta.ShortID(oldSub), meta.ShortID(newSub), err)
		}
		if len(commits) > 0 {
			sb.WriteByte('\n')
			for _, c := range commits {
				fmt.Fprintf(&sb, "%s %s\n", meta.ShortID(c.ID), c.Subject())
			}
			for i := len(commits) - 1; i >= 0; i-- {
				fmt.Fprintf(&sb, "REVERT: %s %s\n", meta.ShortID(commits[i].ID), commits[i].Subject())
			}
		}
	}
	sb.WriteByte('\n')
	sb.WriteString(trailer.Trailers(SyncTrailers(prefix, newSub)).Format())
	return sb.String(), nil
}

// Commit creates the squash commit for oldSub..newSub: the tree of newSub
// with parent as its only parent, or no parent when parent is empty.
// Branch tips are not moved.
func (s *Synthesizer) Commit(ctx context.Context, oldSub, newSub, prefix, parent string) (*meta.Commit, error) {
	sub, err := s.Repo.Meta.GetCommit(newSub)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrTreeUnavailable, meta.ShortID(newSub), err)
	}
	msg, err := s.Message(ctx, oldSub, newSub, prefix)
	if err != nil {
		return nil, err
	}
	var parents []string
	if parent != "" {
		parents = []string{parent}
	}
	c, err := s.Repo.CreateCommit(parents, sub.FilesetID, msg)
	if err != nil {
		return nil, err
	}
	s.Repo.Log.Debug().
		Str("squash", meta.ShortID(c.ID)).
		Str("from", meta.ShortID(oldSub)).
		Str("to", meta.ShortID(newSub)).
		Msg("created squash commit")
	return c, nil
}
