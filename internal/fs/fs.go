package fs

import (
	"io"
	"os"
)

// Reader is the read side of FS.
type Reader interface {
	Open(path string) (io.ReadSeekCloser, error)
	ReadFile(path string) ([]byte, error)
	Stat(path string) (os.FileInfo, error)
	ReadDir(path string) ([]os.DirEntry, error)
	IsNotExist(err error) bool
	Exists(path string) bool
	IsDir(path string) bool
}

// Writer mutates the tree. Replacements go through CreateTempFile and Rename
// so readers never observe a partial file.
type Writer interface {
	WriteFile(path string, data []byte, perm os.FileMode) error
	MkdirAll(path string, perm os.FileMode) error
	Remove(path string) error
	Rename(oldPath, newPath string) error
	CreateTempFile(dir, pattern string) (io.WriteCloser, string, error)
}

// FS is the filesystem seen by a repository: its metadata, stores and
// working tree. OSFS backs real repositories, MemoryFS backs tests.
type FS interface {
	Reader
	Writer
}

var (
	_ FS = (*OSFS)(nil)
	_ FS = (*MemoryFS)(nil)
)
