// Package revwalk walks the commit graph in topological order.
package revwalk

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/keshon/bvc-subtree/internal/repo/meta"
)

// ErrPrepare wraps every failure to set up a walk.
var ErrPrepare = errors.New("prepare revision walk")

// Loader reads commits by id.
type Loader interface {
	GetCommit(id string) (*meta.Commit, error)
}

// Walker emits the commits reachable from the pushed ids and not reachable
// from the hidden ones. Every commit is emitted once, before any of its
// parents; among commits that are ready at the same time the newest comes
// first, then the one discovered first.
type Walker struct {
	loader  Loader
	pushes  []string
	hides   []string
	reverse bool

	prepared bool
	order    []*meta.Commit
	pos      int
}

func New(loader Loader) *Walker {
	return &Walker{loader: loader}
}

// Push adds starting points.
func (w *Walker) Push(ids ...string) *Walker {
	for _, id := range ids {
		if id != "" {
			w.pushes = append(w.pushes, id)
		}
	}
	return w
}

// Hide excludes ids and all their ancestors.
func (w *Walker) Hide(ids ...string) *Walker {
	for _, id := range ids {
		if id != "" {
			w.hides = append(w.hides, id)
		}
	}
	return w
}

// Reverse emits ancestors first.
func (w *Walker) Reverse() *Walker {
	w.reverse = true
	return w
}

// Prepare loads the reachable graph and fixes the emission order.
func (w *Walker) Prepare(ctx context.Context) error {
	hidden, err := w.ancestors(ctx, w.hides)
	if err != nil {
		return err
	}

	visible := map[string]*node{}
	var seq int
	queue := append([]string(nil), w.pushes...)
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %w", ErrPrepare, err)
		}
		id := queue[0]
		queue = queue[1:]
		if hidden[id] || visible[id] != nil {
			continue
		}
		c, err := w.loader.GetCommit(id)
		if err != nil {
			return fmt.Errorf("%w: load %s: %w", ErrPrepare, meta.ShortID(id), err)
		}
		visible[id] = &node{commit: c, seq: seq, when: c.Time().UnixNano()}
		seq++
		queue = append(queue, c.Parents...)
	}

	for _, n := range visible {
		for _, p := range uniq(n.commit.Parents) {
			if pn := visible[p]; pn != nil {
				pn.children++
			}
		}
	}

	ready := &nodeHeap{}
	for _, n := range visible {
		if n.children == 0 {
			heap.Push(ready, n)
		}
	}

	order := make([]*meta.Commit, 0, len(visible))
	for ready.Len() > 0 {
		n := heap.Pop(ready).(*node)
		order = append(order, n.commit)
		for _, p := range uniq(n.commit.Parents) {
			pn := visible[p]
			if pn == nil {
				continue
			}
			pn.children--
			if pn.children == 0 {
				heap.Push(ready, pn)
			}
		}
	}
	if len(order) != len(visible) {
		return fmt.Errorf("%w: commit graph has a cycle", ErrPrepare)
	}

	if w.reverse {
		for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
			order[i], order[j] = order[j], order[i]
		}
	}
	w.order = order
	w.pos = 0
	w.prepared = true
	return nil
}

func (w *Walker) ancestors(ctx context.Context, roots []string) (map[string]bool, error) {
	seen := map[string]bool{}
	stack := append([]string(nil), roots...)
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrPrepare, err)
		}
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[id] {
			continue
		}
		c, err := w.loader.GetCommit(id)
		if err != nil {
			return nil, fmt.Errorf("%w: load %s: %w", ErrPrepare, meta.ShortID(id), err)
		}
		seen[id] = true
		stack = append(stack, c.Parents...)
	}
	return seen, nil
}

// Next returns the next commit, or io.EOF when the walk is exhausted.
func (w *Walker) Next() (*meta.Commit, error) {
	if !w.prepared {
		if err := w.Prepare(context.Background()); err != nil {
			return nil, err
		}
	}
	if w.pos >= len(w.order) {
		return nil, io.EOF
	}
	c := w.order[w.pos]
	w.pos++
	return c, nil
}

// All prepares the walk and returns every commit in emission order.
func (w *Walker) All(ctx context.Context) ([]*meta.Commit, error) {
	if err := w.Prepare(ctx); err != nil {
		return nil, err
	}
	return append([]*meta.Commit(nil), w.order...), nil
}

// Len is the number of commits in a prepared walk.
func (w *Walker) Len() int { return len(w.order) }

func uniq(ids []string) []string {
	if len(ids) < 2 {
		return ids
	}
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

type node struct {
	commit   *meta.Commit
	seq      int
	when     int64
	children int
}

type nodeHeap []*node

func (h nodeHeap) Len() int { return len(h) }
func (h nodeHeap) Less(i, j int) bool {
	if h[i].when != h[j].when {
		return h[i].when > h[j].when
	}
	return h[i].seq < h[j].seq
}
func (h nodeHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *nodeHeap) Push(x any)   { *h = append(*h, x.(*node)) }
func (h *nodeHeap) Pop() any {
	old := *h
	n := old[len(old)-1]
	*h = old[:len(old)-1]
	return n
}
