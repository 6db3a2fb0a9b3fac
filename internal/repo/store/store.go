package store

import (
	"fmt"

	"github.com/keshon/bvc-subtree/internal/config"
	"github.com/keshon/bvc-subtree/internal/fs"
	"github.com/keshon/bvc-subtree/internal/repo/store/block"
	"github.com/keshon/bvc-subtree/internal/repo/store/file"
	"github.com/keshon/bvc-subtree/internal/repo/store/snapshot"
)

// StoreContext unifies the block, file and fileset layers.
type StoreContext struct {
	Config      *config.RepoConfig
	BlockCtx    *block.BlockContext
	FileCtx     *file.FileContext
	SnapshotCtx *snapshot.SnapshotContext
}

// NewStore wires the store layers over fsys and ensures the on-disk layout.
func NewStore(cfg *config.RepoConfig, fsys fs.FS) (*StoreContext, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil RepoConfig provided")
	}
	if fsys == nil {
		fsys = fs.NewOSFS()
	}

	blockCtx := block.NewBlockContext(cfg.ObjectsDir(), fsys)
	fileCtx := file.NewFileContext(cfg.WorkingTreeDir, cfg.RepoRoot, cfg.IgnoreFile(), blockCtx, fsys)
	snapshotCtx := snapshot.NewSnapshotContext(cfg.FilesetsDir(), fileCtx, blockCtx, fsys)

	if err := createStoreStructure(cfg, fsys); err != nil {
		return nil, err
	}

	return &StoreContext{
		Config:      cfg,
		BlockCtx:    blockCtx,
		FileCtx:     fileCtx,
		SnapshotCtx: snapshotCtx,
	}, nil
}

func createStoreStructure(cfg *config.RepoConfig, fsys fs.FS) error {
	for _, d := range []string{cfg.FilesetsDir(), cfg.ObjectsDir()} {
		if fsys.IsDir(d) {
			continue
		}
		if err := fsys.MkdirAll(d, 0o755); err != nil {
			return fmt.Errorf("create store dir %q: %w", d, err)
		}
	}
	return nil
}
