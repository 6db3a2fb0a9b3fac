package file

import (
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/keshon/bvc-subtree/internal/fs"
	"github.com/keshon/bvc-subtree/internal/repo/store/block"
)

// Entry represents a tracked file and its content blocks.
// Path is relative to the working tree and slash-separated.
type Entry struct {
	Path   string           `json:"path"`
	Mode   os.FileMode      `json:"mode,omitempty"`
	Blocks []block.BlockRef `json:"blocks"`
}

// Equal compares two entries by their block lists.
func (e *Entry) Equal(other *Entry) bool {
	if e == nil && other == nil {
		return true
	}
	if e == nil || other == nil {
		return false
	}
	if len(e.Blocks) != len(other.Blocks) {
		return false
	}
	for i := range e.Blocks {
		if e.Blocks[i].Hash != other.Blocks[i].Hash ||
			e.Blocks[i].Size != other.Blocks[i].Size {
			return false
		}
	}
	return true
}

// BlockStore abstracts block operations.
type BlockStore interface {
	SplitFile(path string) ([]block.BlockRef, error)
	Write(ctx context.Context, path string, blocks []block.BlockRef) error
	ReadAll(blocks []block.BlockRef) ([]byte, error)
}

// FileContext manages file-level operations (staging, checkout, scan).
type FileContext struct {
	WorkingTreeDir string
	RepoRoot       string
	IgnoreFile     string
	Blocks         BlockStore
	FS             fs.FS
	// Progress receives spinner output for long operations; nil keeps quiet.
	Progress io.Writer
}

func NewFileContext(workingTreeDir, repoRoot, ignoreFile string, blocks BlockStore, fsys fs.FS) *FileContext {
	return &FileContext{
		WorkingTreeDir: workingTreeDir,
		RepoRoot:       repoRoot,
		IgnoreFile:     ignoreFile,
		Blocks:         blocks,
		FS:             fsys,
	}
}

// Abs maps a tree-relative path onto the working tree.
func (fc *FileContext) Abs(rel string) string {
	return filepath.Join(fc.WorkingTreeDir, filepath.FromSlash(rel))
}

// Rel maps a working tree path to its tree-relative, slash-separated form.
func (fc *FileContext) Rel(p string) (string, error) {
	if !filepath.IsAbs(p) {
		p = filepath.Join(fc.WorkingTreeDir, p)
	}
	rel, err := filepath.Rel(fc.WorkingTreeDir, p)
	if err != nil {
		return "", err
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", &os.PathError{Op: "rel", Path: p, Err: os.ErrInvalid}
	}
	rel = path.Clean(rel)
	if rel == "." {
		return "", nil
	}
	return rel, nil
}

// Exists checks whether a tree-relative path exists in the working tree.
func (fc *FileContext) Exists(rel string) bool {
	return fc.FS.Exists(fc.Abs(rel))
}

// ReadEntry returns the content of an entry.
func (fc *FileContext) ReadEntry(e Entry) ([]byte, error) {
	return fc.Blocks.ReadAll(e.Blocks)
}
