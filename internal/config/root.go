package config

import (
	"errors"
	"os"
	"path/filepath"
)

// ErrNoRepository is returned when no .bvc directory is found above a path.
var ErrNoRepository = errors.New("not a bvc repository (or any of the parent directories)")

// ResolveWorkingTreeRoot walks up from start until it finds a directory holding .bvc.
func ResolveWorkingTreeRoot(start string) (string, error) {
	cwd, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}
	for {
		if fi, err := os.Stat(filepath.Join(cwd, RepoDir)); err == nil && fi.IsDir() {
			return cwd, nil
		}
		parent := filepath.Dir(cwd)
		if parent == cwd {
			return "", ErrNoRepository
		}
		cwd = parent
	}
}
