package meta

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/keshon/bvc-subtree/internal/config"
	"github.com/keshon/bvc-subtree/internal/fs"
)

// MetaContext owns commits, branches and HEAD of a repository.
type MetaContext struct {
	Config *config.RepoConfig
	FS     fs.FS
	// Now stamps new commits.
	Now func() time.Time
}

// NewMeta opens the metadata of the repository at cfg, creating the layout if missing.
func NewMeta(cfg *config.RepoConfig, fsys fs.FS) (*MetaContext, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil RepoConfig provided")
	}
	if fsys == nil {
		fsys = fs.NewOSFS()
	}
	mc := &MetaContext{Config: cfg, FS: fsys, Now: time.Now}

	if IsMetaExists(cfg, fsys) {
		return mc, nil
	}
	if err := createMetaStructure(cfg, fsys); err != nil {
		return nil, err
	}
	return mc, nil
}

func createMetaStructure(cfg *config.RepoConfig, fsys fs.FS) error {
	dirs := []string{
		cfg.RepoRoot,
		cfg.CommitsDir(),
		cfg.BranchesDir(),
	}
	for _, d := range dirs {
		if err := fsys.MkdirAll(d, 0o755); err != nil {
			return fmt.Errorf("create dir %q: %w", d, err)
		}
	}

	branch := cfg.Settings.DefaultBranch
	if branch == "" {
		branch = config.DefaultBranch
	}
	if err := fsys.WriteFile(filepath.Join(cfg.BranchesDir(), branch), nil, 0o644); err != nil {
		return fmt.Errorf("create default branch: %w", err)
	}
	if err := fsys.WriteFile(cfg.HeadFile(), []byte(headPrefix+"branches/"+branch), 0o644); err != nil {
		return fmt.Errorf("write HEAD: %w", err)
	}
	return nil
}

// IsMetaExists reports whether cfg points to an initialized repository.
func IsMetaExists(cfg *config.RepoConfig, fsys fs.FS) bool {
	fi, err := fsys.Stat(cfg.HeadFile())
	return err == nil && fi.Mode().IsRegular()
}
