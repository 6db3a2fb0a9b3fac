package fs

import (
	"errors"
	"io"
	"io/fs"
	"os"

	"golang.org/x/exp/mmap"
)

// OSFS is the production implementation of FS backed by the operating system.
// Files opened for reading are memory mapped.
type OSFS struct{}

func NewOSFS() *OSFS {
	return &OSFS{}
}

// mappedFile exposes a read-only memory mapping as an io.ReadSeekCloser.
type mappedFile struct {
	*io.SectionReader
	ra *mmap.ReaderAt
}

func (m *mappedFile) Close() error { return m.ra.Close() }

func (r *OSFS) Open(path string) (io.ReadSeekCloser, error) {
	ra, err := openMapped(path)
	if err != nil {
		return nil, err
	}
	return &mappedFile{SectionReader: io.NewSectionReader(ra, 0, int64(ra.Len())), ra: ra}, nil
}

func (r *OSFS) Stat(path string) (os.FileInfo, error) {
	return stat(path)
}

func (r *OSFS) ReadFile(path string) ([]byte, error) {
	return readFile(path)
}

func (r *OSFS) ReadDir(path string) ([]os.DirEntry, error) {
	return readDir(path)
}

func (r *OSFS) WriteFile(path string, data []byte, perm os.FileMode) error {
	return writeFile(path, data, perm)
}

func (r *OSFS) MkdirAll(path string, perm os.FileMode) error {
	return mkdirAll(path, perm)
}

func (r *OSFS) Remove(path string) error {
	return remove(path)
}

func (r *OSFS) Rename(oldPath, newPath string) error {
	return rename(oldPath, newPath)
}

func (r *OSFS) CreateTempFile(dir, pattern string) (io.WriteCloser, string, error) {
	f, err := createTemp(dir, pattern)
	if err != nil {
		return nil, "", err
	}
	return f, f.Name(), nil
}

func (r *OSFS) IsNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

func (r *OSFS) IsDir(path string) bool {
	fi, err := stat(path)
	return err == nil && fi.IsDir()
}

func (r *OSFS) Exists(path string) bool {
	_, err := stat(path)
	return err == nil
}
