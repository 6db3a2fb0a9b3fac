package block

import (
	"context"
	"encoding/hex"
	"path/filepath"
	"strings"

	"github.com/zeebo/xxh3"

	"github.com/keshon/bvc-subtree/internal/util"
)

// VerifyBlock checks a single block against its hash.
func (bc *BlockContext) VerifyBlock(hash string) (BlockStatus, error) {
	data, err := bc.FS.ReadFile(bc.path(hash))
	if err != nil {
		if bc.FS.IsNotExist(err) {
			return Missing, nil
		}
		return Damaged, err
	}

	h := xxh3.Hash128(data).Bytes()
	if hex.EncodeToString(h[:]) == hash {
		return OK, nil
	}
	return Damaged, nil
}

// Verify checks a set of block hashes concurrently and streams results.
// VerifyBlock folds errors into the status, so every hash is reported.
func (bc *BlockContext) Verify(ctx context.Context, hashes map[string]struct{}, workers int) <-chan BlockCheck {
	out := make(chan BlockCheck, 128)
	if workers <= 0 {
		workers = util.WorkerCount()
	}

	go func() {
		defer close(out)
		_ = util.Parallel(ctx, util.SortedKeys(hashes), workers, func(ctx context.Context, h string) error {
			status, _ := bc.VerifyBlock(h)
			select {
			case out <- BlockCheck{Hash: h, Status: status}:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}()
	return out
}

// CleanupTemp removes orphaned empty temp files from the objects directory.
func (bc *BlockContext) CleanupTemp() error {
	entries, err := bc.FS.ReadDir(bc.Root)
	if err != nil {
		if bc.FS.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, "tmp-") || strings.HasPrefix(name, ".tmp-") {
			p := filepath.Join(bc.Root, name)
			if fi, err := bc.FS.Stat(p); err != nil || fi.Size() == 0 {
				_ = bc.FS.Remove(p)
			}
		}
	}
	return nil
}
