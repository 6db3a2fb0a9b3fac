package transport

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/keshon/bvc-subtree/internal/repo"
	"github.com/keshon/bvc-subtree/internal/repo/meta"
	"github.com/keshon/bvc-subtree/internal/util"
)

// ErrInvalidRemote is returned for malformed remote names or paths.
var ErrInvalidRemote = errors.New("invalid remote")

// Remote is a named bvc working tree on the local filesystem.
type Remote struct {
	Path string `toml:"path"`
}

type remotesFile struct {
	Remote map[string]Remote `toml:"remote"`
}

// LoadRemotes reads .bvc/remotes.toml. A missing file means no remotes.
func LoadRemotes(r *repo.Repository) (map[string]Remote, error) {
	path := r.Config.RemotesFile()
	if !r.FS.Exists(path) {
		return map[string]Remote{}, nil
	}
	data, err := r.FS.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read remotes: %w", err)
	}
	var rf remotesFile
	if err := toml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	if rf.Remote == nil {
		rf.Remote = map[string]Remote{}
	}
	return rf.Remote, nil
}

// AddRemote adds or replaces a remote.
func AddRemote(r *repo.Repository, name, path string) error {
	if !meta.ValidRefName("remotes/"+name) || filepath.Base(name) != name {
		return fmt.Errorf("%w: name %q", ErrInvalidRemote, name)
	}
	if path == "" {
		return fmt.Errorf("%w: empty path for %q", ErrInvalidRemote, name)
	}
	remotes, err := LoadRemotes(r)
	if err != nil {
		return err
	}
	remotes[name] = Remote{Path: path}
	return saveRemotes(r, remotes)
}

// RemoveRemote deletes a remote. Removing an unknown name is an error.
func RemoveRemote(r *repo.Repository, name string) error {
	remotes, err := LoadRemotes(r)
	if err != nil {
		return err
	}
	if _, ok := remotes[name]; !ok {
		return fmt.Errorf("%w: no remote named %q", ErrInvalidRemote, name)
	}
	delete(remotes, name)
	return saveRemotes(r, remotes)
}

// ListRemotes returns the configured remote names, sorted.
func ListRemotes(r *repo.Repository) ([]string, error) {
	remotes, err := LoadRemotes(r)
	if err != nil {
		return nil, err
	}
	return util.SortedKeys(remotes), nil
}

// ResolveRemote maps a remote name to its working tree. Anything that is not
// a configured name is taken as a path; relative paths are relative to the
// working tree of r.
func ResolveRemote(r *repo.Repository, remote string) (string, error) {
	if remote == "" {
		return "", fmt.Errorf("%w: empty remote", ErrInvalidRemote)
	}
	remotes, err := LoadRemotes(r)
	if err != nil {
		return "", err
	}
	path := remote
	if rm, ok := remotes[remote]; ok {
		path = rm.Path
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(r.Config.WorkingTreeDir, path)
	}
	return filepath.Clean(path), nil
}

func saveRemotes(r *repo.Repository, remotes map[string]Remote) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(remotesFile{Remote: remotes}); err != nil {
		return fmt.Errorf("encode remotes: %w", err)
	}
	if err := r.FS.WriteFile(r.Config.RemotesFile(), buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write remotes: %w", err)
	}
	return nil
}
