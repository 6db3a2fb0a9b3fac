package repo

import (
	"errors"
	"fmt"
	"io"

	"github.com/gofrs/flock"
	"github.com/rs/zerolog"

	"github.com/keshon/bvc-subtree/internal/config"
	"github.com/keshon/bvc-subtree/internal/fs"
	"github.com/keshon/bvc-subtree/internal/repo/meta"
	"github.com/keshon/bvc-subtree/internal/repo/store"
)

var (
	ErrExists        = errors.New("repository already exists")
	ErrNotRepository = errors.New("not a repository")
	ErrLocked        = errors.New("repository is locked by another process")
)

// Repository is an opened bvc repository.
type Repository struct {
	Config *config.RepoConfig
	Meta   *meta.MetaContext
	Store  *store.StoreContext
	FS     fs.FS
	Log    zerolog.Logger

	lock *flock.Flock
}

// Option customizes a Repository at open time.
type Option func(*Repository)

// WithLogger sets the repository logger.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Repository) { r.Log = l }
}

// WithProgress sends spinner output of long operations to w.
func WithProgress(w io.Writer) Option {
	return func(r *Repository) {
		if r.Store != nil {
			r.Store.FileCtx.Progress = w
		}
	}
}

// Init creates a repository in workingTree.
func Init(workingTree string, opts ...Option) (*Repository, error) {
	cfg := config.NewRepoConfig(workingTree)
	fsys := fs.NewOSFS()
	if meta.IsMetaExists(cfg, fsys) {
		return nil, fmt.Errorf("%w: %s", ErrExists, cfg.RepoRoot)
	}

	if err := fsys.MkdirAll(cfg.RepoRoot, 0o755); err != nil {
		return nil, fmt.Errorf("create %q: %w", cfg.RepoRoot, err)
	}
	if err := cfg.Save(); err != nil {
		return nil, err
	}
	r, err := build(cfg, fsys, opts)
	if err != nil {
		return nil, err
	}
	r.Log.Debug().Str("root", cfg.WorkingTreeDir).Msg("initialized repository")
	return r, nil
}

// Open opens the repository whose working tree is workingTree.
func Open(workingTree string, opts ...Option) (*Repository, error) {
	cfg := config.NewRepoConfig(workingTree)
	fsys := fs.NewOSFS()
	if !meta.IsMetaExists(cfg, fsys) {
		return nil, fmt.Errorf("%w: missing %s", ErrNotRepository, cfg.HeadFile())
	}
	if err := cfg.Load(); err != nil {
		return nil, err
	}
	return build(cfg, fsys, opts)
}

func build(cfg *config.RepoConfig, fsys fs.FS, opts []Option) (*Repository, error) {
	mc, err := meta.NewMeta(cfg, fsys)
	if err != nil {
		return nil, fmt.Errorf("init meta: %w", err)
	}
	st, err := store.NewStore(cfg, fsys)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}
	r := &Repository{
		Config: cfg,
		Meta:   mc,
		Store:  st,
		FS:     fsys,
		Log:    zerolog.Nop(),
		lock:   flock.New(cfg.LockFile()),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Lock takes the exclusive repository lock without blocking.
// The returned function releases it.
func (r *Repository) Lock() (func(), error) {
	ok, err := r.lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %q: %w", r.Config.LockFile(), err)
	}
	if !ok {
		return nil, ErrLocked
	}
	return func() {
		if err := r.lock.Unlock(); err != nil {
			r.Log.Warn().Err(err).Msg("release repository lock")
		}
	}, nil
}
