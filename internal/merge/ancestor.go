package merge

import (
	"context"
	"fmt"

	"github.com/keshon/bvc-subtree/internal/repo/meta"
)

// Loader reads commits by id.
type Loader interface {
	GetCommit(id string) (*meta.Commit, error)
}

// CommonAncestor returns the merge base of a and b: the ancestor of b
// nearest to it (breadth-first) that is also an ancestor of a.
// It returns "" when the histories are unrelated or either side is empty.
func CommonAncestor(ctx context.Context, loader Loader, a, b string) (string, error) {
	if a == "" || b == "" {
		return "", nil
	}

	seen := map[string]bool{}
	stack := []string{a}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true

		c, err := loader.GetCommit(id)
		if err != nil {
			return "", fmt.Errorf("walk ancestors of %s: %w", meta.ShortID(a), err)
		}
		stack = append(stack, c.Parents...)
	}

	queue := []string{b}
	visited := map[string]bool{}
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		id := queue[0]
		queue = queue[1:]
		if id == "" || visited[id] {
			continue
		}
		visited[id] = true
		if seen[id] {
			return id, nil
		}

		c, err := loader.GetCommit(id)
		if err != nil {
			return "", fmt.Errorf("walk ancestors of %s: %w", meta.ShortID(b), err)
		}
		queue = append(queue, c.Parents...)
	}
	return "", nil
}

// OnFirstParentChain reports whether id is tip or reachable from tip by
// following first parents only.
func OnFirstParentChain(ctx context.Context, loader Loader, tip, id string) (bool, error) {
	if id == "" {
		return false, nil
	}
	for cur := tip; cur != ""; {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		if cur == id {
			return true, nil
		}
		c, err := loader.GetCommit(cur)
		if err != nil {
			return false, fmt.Errorf("walk first parents of %s: %w", meta.ShortID(tip), err)
		}
		if len(c.Parents) == 0 {
			break
		}
		cur = c.Parents[0]
	}
	return false, nil
}
