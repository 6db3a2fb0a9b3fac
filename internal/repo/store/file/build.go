package file

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/keshon/bvc-subtree/internal/progress"
	"github.com/keshon/bvc-subtree/internal/util"
)

// BuildEntry splits a working tree file into block references.
func (fc *FileContext) BuildEntry(rel string) (Entry, error) {
	if fc.Blocks == nil {
		return Entry{}, fmt.Errorf("no block store attached")
	}
	abs := fc.Abs(rel)
	fi, err := fc.FS.Stat(abs)
	if err != nil {
		return Entry{}, fmt.Errorf("stat %q: %w", rel, err)
	}
	blocks, err := fc.Blocks.SplitFile(abs)
	if err != nil {
		return Entry{}, fmt.Errorf("split %q: %w", rel, err)
	}
	return Entry{Path: rel, Mode: fi.Mode().Perm(), Blocks: blocks}, nil
}

// BuildEntries builds entries for the given paths concurrently, sorted by path.
func (fc *FileContext) BuildEntries(ctx context.Context, rels []string) ([]Entry, error) {
	bar := progress.New(fc.Progress, len(rels), "Scanning files")
	defer bar.Finish()

	var (
		mu      sync.Mutex
		entries = make([]Entry, 0, len(rels))
	)
	err := util.Parallel(ctx, rels, util.WorkerCount(), func(_ context.Context, rel string) error {
		e, err := fc.BuildEntry(rel)
		if err != nil {
			return err
		}
		mu.Lock()
		entries = append(entries, e)
		mu.Unlock()
		bar.Increment()
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries, nil
}

// Store writes all blocks of the given entries to the object store.
func (fc *FileContext) Store(ctx context.Context, entries []Entry) error {
	for _, e := range entries {
		if err := fc.Blocks.Write(ctx, fc.Abs(e.Path), e.Blocks); err != nil {
			return fmt.Errorf("store %q: %w", e.Path, err)
		}
	}
	return nil
}

// Changes describes how the working tree differs from a set of entries.
type Changes struct {
	Added    []string
	Modified []string
	Deleted  []string
}

func (c Changes) Empty() bool {
	return len(c.Added) == 0 && len(c.Modified) == 0 && len(c.Deleted) == 0
}

// Diff compares the working tree against tracked entries.
func (fc *FileContext) Diff(ctx context.Context, tracked []Entry) (Changes, []Entry, error) {
	paths, err := fc.ScanFilesInWorkingTree()
	if err != nil {
		return Changes{}, nil, err
	}
	current, err := fc.BuildEntries(ctx, paths)
	if err != nil {
		return Changes{}, nil, err
	}

	byPath := make(map[string]Entry, len(tracked))
	for _, t := range tracked {
		byPath[t.Path] = t
	}

	var ch Changes
	seen := make(map[string]bool, len(current))
	for i := range current {
		c := current[i]
		seen[c.Path] = true
		t, ok := byPath[c.Path]
		switch {
		case !ok:
			ch.Added = append(ch.Added, c.Path)
		case !t.Equal(&c):
			ch.Modified = append(ch.Modified, c.Path)
		}
	}
	for _, t := range tracked {
		if !seen[t.Path] {
			ch.Deleted = append(ch.Deleted, t.Path)
		}
	}
	sort.Strings(ch.Deleted)
	return ch, current, nil
}
