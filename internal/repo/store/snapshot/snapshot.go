package snapshot

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/zeebo/xxh3"

	"github.com/keshon/bvc-subtree/internal/fs"
	"github.com/keshon/bvc-subtree/internal/progress"
	"github.com/keshon/bvc-subtree/internal/repo/store/block"
	"github.com/keshon/bvc-subtree/internal/repo/store/file"
	"github.com/keshon/bvc-subtree/internal/util"
)

// Fileset is a snapshot of tracked files and their block mappings: the tree of a commit.
type Fileset struct {
	ID    string       `json:"id"`
	Files []file.Entry `json:"files"`
}

// SnapshotContext handles fileset persistence (.bvc/filesets).
type SnapshotContext struct {
	Root   string
	Files  *file.FileContext
	Blocks *block.BlockContext
	FS     fs.FS
}

func NewSnapshotContext(root string, files *file.FileContext, blocks *block.BlockContext, fsys fs.FS) *SnapshotContext {
	return &SnapshotContext{Root: root, Files: files, Blocks: blocks, FS: fsys}
}

// NewFileset sorts entries by path and derives the fileset ID from them.
func NewFileset(entries []file.Entry) Fileset {
	sorted := append([]file.Entry(nil), entries...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })
	return Fileset{ID: HashFileset(sorted), Files: sorted}
}

// HashFileset generates a stable hash over paths, modes and block hashes.
func HashFileset(entries []file.Entry) string {
	paths := make([]string, 0, len(entries))
	index := make(map[string]file.Entry, len(entries))
	for _, f := range entries {
		clean := filepath.ToSlash(filepath.Clean(f.Path))
		paths = append(paths, clean)
		index[clean] = f
	}
	sort.Strings(paths)

	var sb strings.Builder
	for _, p := range paths {
		sb.WriteString(p)
		sb.WriteByte(0)
		fmt.Fprintf(&sb, "%o", index[p].Mode)
		sb.WriteByte(0)
		for _, b := range index[p].Blocks {
			sb.WriteString(b.Hash)
			sb.WriteByte('\n')
		}
	}
	return fmt.Sprintf("%x", xxh3.HashString128(sb.String()).Bytes())
}

// BuildFilesetFromWorkingTree builds a Fileset from the current working tree.
func (sc *SnapshotContext) BuildFilesetFromWorkingTree(ctx context.Context) (Fileset, error) {
	paths, err := sc.Files.ScanFilesInWorkingTree()
	if err != nil {
		return Fileset{}, fmt.Errorf("list files: %w", err)
	}
	entries, err := sc.Files.BuildEntries(ctx, paths)
	if err != nil {
		return Fileset{}, fmt.Errorf("create entries: %w", err)
	}
	return NewFileset(entries), nil
}

// WriteAndSave stores every file's blocks from the working tree and saves the fileset.
func (sc *SnapshotContext) WriteAndSave(ctx context.Context, fset *Fileset) error {
	if fset.ID == "" {
		return fmt.Errorf("invalid fileset: missing ID")
	}
	if sc.Blocks != nil {
		_ = sc.Blocks.CleanupTemp()
	}

	bar := progress.New(sc.Files.Progress, len(fset.Files), "Storing files")
	err := util.Parallel(ctx, fset.Files, util.WorkerCount(), func(ctx context.Context, f file.Entry) error {
		if err := sc.Files.Store(ctx, []file.Entry{f}); err != nil {
			return err
		}
		bar.Increment()
		return nil
	})
	bar.Finish()
	if err != nil {
		return fmt.Errorf("store files: %w", err)
	}
	return sc.Save(*fset)
}

func (sc *SnapshotContext) path(id string) string {
	return filepath.Join(sc.Root, id+".json")
}

// Save persists a Fileset whose blocks are already stored.
func (sc *SnapshotContext) Save(fset Fileset) error {
	if fset.ID == "" {
		return fmt.Errorf("invalid fileset: missing ID")
	}
	if err := util.WriteJSON(sc.FS, sc.path(fset.ID), fset); err != nil {
		return fmt.Errorf("save fileset %q: %w", fset.ID, err)
	}
	return nil
}

// Has reports whether the fileset is stored.
func (sc *SnapshotContext) Has(id string) bool {
	return id != "" && sc.FS.Exists(sc.path(id))
}

// Load retrieves a Fileset by its ID.
func (sc *SnapshotContext) Load(id string) (Fileset, error) {
	var fset Fileset
	if err := util.ReadJSON(sc.FS, sc.path(id), &fset); err != nil {
		return Fileset{}, fmt.Errorf("read fileset %q: %w", id, err)
	}
	return fset, nil
}

// List returns the IDs of all stored filesets.
func (sc *SnapshotContext) List() ([]string, error) {
	entries, err := sc.FS.ReadDir(sc.Root)
	if err != nil {
		if sc.FS.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list filesets: %w", err)
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(e.Name(), ".json"))
	}
	return ids, nil
}
