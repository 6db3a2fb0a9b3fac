package repo

import (
	"context"
	"fmt"

	"github.com/keshon/bvc-subtree/internal/progress"
	"github.com/keshon/bvc-subtree/internal/repo/store/block"
)

// VerifyHead checks every block referenced by the HEAD tree and the index.
func (r *Repository) VerifyHead(ctx context.Context) error {
	head, err := r.HeadFileset()
	if err != nil {
		return err
	}
	idx, err := r.Index()
	if err != nil {
		return err
	}

	hashes := map[string]struct{}{}
	for _, f := range append(head.Files, idx...) {
		for _, b := range f.Blocks {
			hashes[b.Hash] = struct{}{}
		}
	}
	if len(hashes) == 0 {
		return nil
	}

	bar := progress.New(r.Store.FileCtx.Progress, len(hashes), "Checking blocks")
	defer bar.Finish()

	var bad []block.BlockCheck
	for bc := range r.Store.BlockCtx.Verify(ctx, hashes, 0) {
		bar.Increment()
		if bc.Status != block.OK {
			bad = append(bad, bc)
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(bad) > 0 {
		return fmt.Errorf("block %s is %s (%d bad blocks)", bad[0].Hash, bad[0].Status, len(bad))
	}
	return nil
}
