package file

import (
	"path"
	"sort"

	"github.com/keshon/bvc-subtree/internal/config"
)

// ScanFilesInWorkingTree returns tree-relative paths of all user files,
// excluding the repository directory and ignored paths.
func (fc *FileContext) ScanFilesInWorkingTree() ([]string, error) {
	return fc.ScanDir("")
}

// ScanDir returns the tracked-eligible files below the tree-relative dir.
func (fc *FileContext) ScanDir(dir string) ([]string, error) {
	matcher := NewIgnore(fc.FS, fc.IgnoreFile)

	var paths []string
	var walk func(rel string) error
	walk = func(rel string) error {
		entries, err := fc.FS.ReadDir(fc.Abs(rel))
		if err != nil {
			if fc.FS.IsNotExist(err) {
				return nil
			}
			return err
		}
		for _, e := range entries {
			child := e.Name()
			if rel != "" {
				child = path.Join(rel, e.Name())
			}
			if e.IsDir() {
				if e.Name() == config.RepoDir || matcher.Match(child) {
					continue
				}
				if err := walk(child); err != nil {
					return err
				}
				continue
			}
			if matcher.Match(child) {
				continue
			}
			paths = append(paths, child)
		}
		return nil
	}

	if err := walk(dir); err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}
