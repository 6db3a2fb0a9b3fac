package file

import (
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/keshon/bvc-subtree/internal/config"
	"github.com/keshon/bvc-subtree/internal/progress"
)

// Checkout makes the working tree below prefix match entries exactly.
// Entries outside prefix are ignored; an empty prefix covers the whole tree.
// Files below prefix that are not listed are removed, ignored paths are kept.
func (fc *FileContext) Checkout(entries []Entry, prefix string) error {
	prefix = strings.Trim(path.Clean("/"+filepath.ToSlash(prefix)), "/")
	within := func(p string) bool {
		return prefix == "" || p == prefix || strings.HasPrefix(p, prefix+"/")
	}

	want := make(map[string]bool, len(entries))
	var selected []Entry
	for _, e := range entries {
		if within(e.Path) {
			want[e.Path] = true
			selected = append(selected, e)
		}
	}

	bar := progress.New(fc.Progress, len(selected), "Checking out")
	defer bar.Finish()

	for _, e := range selected {
		if err := fc.writeEntry(e); err != nil {
			return fmt.Errorf("checkout %q: %w", e.Path, err)
		}
		bar.Increment()
	}

	existing, err := fc.ScanDir(prefix)
	if err != nil {
		return fmt.Errorf("scan %q: %w", prefix, err)
	}
	for _, p := range existing {
		if want[p] {
			continue
		}
		if err := fc.FS.Remove(fc.Abs(p)); err != nil && !fc.FS.IsNotExist(err) {
			return fmt.Errorf("remove %q: %w", p, err)
		}
	}
	fc.pruneEmptyDirs(prefix)
	return nil
}

func (fc *FileContext) writeEntry(e Entry) error {
	dst := fc.Abs(e.Path)
	data, err := fc.Blocks.ReadAll(e.Blocks)
	if err != nil {
		return err
	}
	if err := fc.FS.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	tmp, tmpPath, err := fc.FS.CreateTempFile(filepath.Dir(dst), "tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		_ = fc.FS.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = fc.FS.Remove(tmpPath)
		return err
	}
	if err := fc.FS.Rename(tmpPath, dst); err != nil {
		_ = fc.FS.Remove(tmpPath)
		return err
	}
	return nil
}

// pruneEmptyDirs removes directories left empty below prefix, deepest first.
func (fc *FileContext) pruneEmptyDirs(prefix string) {
	var dirs []string
	var walk func(rel string)
	walk = func(rel string) {
		entries, err := fc.FS.ReadDir(fc.Abs(rel))
		if err != nil {
			return
		}
		for _, e := range entries {
			if !e.IsDir() || (rel == "" && e.Name() == config.RepoDir) {
				continue
			}
			child := path.Join(rel, e.Name())
			dirs = append(dirs, child)
			walk(child)
		}
	}
	walk(prefix)
	if prefix != "" {
		dirs = append(dirs, prefix)
	}

	sort.Slice(dirs, func(i, j int) bool { return len(dirs[i]) > len(dirs[j]) })
	for _, d := range dirs {
		if entries, err := fc.FS.ReadDir(fc.Abs(d)); err == nil && len(entries) == 0 {
			_ = fc.FS.Remove(fc.Abs(d))
		}
	}
}
