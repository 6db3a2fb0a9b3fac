package config

import (
	"path/filepath"
)

const (
	RepoDir     = ".bvc"
	CommitsDir  = "commits"
	FilesetsDir = "filesets"
	BranchesDir = "branches"
	ObjectsDir  = "objects"
	CacheDir    = "cache"

	HeadFile      = "HEAD"
	IndexFile     = "index.json"
	FetchHeadFile = "FETCH_HEAD"
	RemotesFile   = "remotes.toml"
	SettingsFile  = "config.json"
	LockFile      = "index.lock"

	IgnoreFile = ".bvc-ignore"
)

const (
	DefaultBranch = "main"
	DefaultHash   = "xxh3"
)

// DefaultIgnoredFiles are never tracked, regardless of .bvc-ignore.
var DefaultIgnoredFiles = []string{RepoDir}

// RepoConfig resolves every on-disk location of a repository from its working tree root.
type RepoConfig struct {
	WorkingTreeDir string
	RepoRoot       string
	Settings       Settings
}

// NewRepoConfig returns a config rooted at workingTree with default settings.
func NewRepoConfig(workingTree string) *RepoConfig {
	abs, err := filepath.Abs(workingTree)
	if err != nil {
		abs = filepath.Clean(workingTree)
	}
	return &RepoConfig{
		WorkingTreeDir: abs,
		RepoRoot:       filepath.Join(abs, RepoDir),
		Settings:       DefaultSettings(),
	}
}

func (c *RepoConfig) CommitsDir() string    { return filepath.Join(c.RepoRoot, CommitsDir) }
func (c *RepoConfig) FilesetsDir() string   { return filepath.Join(c.RepoRoot, FilesetsDir) }
func (c *RepoConfig) BranchesDir() string   { return filepath.Join(c.RepoRoot, BranchesDir) }
func (c *RepoConfig) ObjectsDir() string    { return filepath.Join(c.RepoRoot, ObjectsDir) }
func (c *RepoConfig) CacheDir() string      { return filepath.Join(c.RepoRoot, CacheDir) }
func (c *RepoConfig) HeadFile() string      { return filepath.Join(c.RepoRoot, HeadFile) }
func (c *RepoConfig) IndexFile() string     { return filepath.Join(c.RepoRoot, IndexFile) }
func (c *RepoConfig) FetchHeadFile() string { return filepath.Join(c.RepoRoot, FetchHeadFile) }
func (c *RepoConfig) RemotesFile() string   { return filepath.Join(c.RepoRoot, RemotesFile) }
func (c *RepoConfig) SettingsFile() string  { return filepath.Join(c.RepoRoot, SettingsFile) }
func (c *RepoConfig) LockFile() string      { return filepath.Join(c.RepoRoot, LockFile) }
func (c *RepoConfig) IgnoreFile() string    { return filepath.Join(c.WorkingTreeDir, IgnoreFile) }

// SyncCacheFile is the sqlite database memoizing resolved sync points.
func (c *RepoConfig) SyncCacheFile() string {
	return filepath.Join(c.CacheDir(), "syncpoints.db")
}
