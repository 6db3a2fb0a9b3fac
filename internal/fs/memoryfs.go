package fs

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryFS is a pure in-memory filesystem for tests or lightweight storage.
// It is safe for concurrent use.
type MemoryFS struct {
	mu    sync.RWMutex
	files map[string]memFile
	dirs  map[string]struct{}
	seq   int
}

type memFile struct {
	data []byte
	mode os.FileMode
}

func NewMemoryFS() *MemoryFS {
	f := &MemoryFS{
		files: make(map[string]memFile),
		dirs:  make(map[string]struct{}),
	}
	f.dirs["/"] = struct{}{}
	f.dirs["."] = struct{}{}
	return f
}

// normalize paths
func clean(p string) string {
	if p == "" {
		return "."
	}
	return filepath.ToSlash(filepath.Clean(p))
}

func (f *MemoryFS) dirExists(p string) bool {
	_, ok := f.dirs[clean(p)]
	return ok
}

func (f *MemoryFS) Open(p string) (io.ReadSeekCloser, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	file, ok := f.files[clean(p)]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: p, Err: fs.ErrNotExist}
	}
	return &memReadSeekCloser{Reader: bytes.NewReader(file.data)}, nil
}

type memReadSeekCloser struct {
	*bytes.Reader
}

func (m *memReadSeekCloser) Close() error { return nil }

func (f *MemoryFS) ReadFile(p string) ([]byte, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	file, ok := f.files[clean(p)]
	if !ok {
		return nil, &fs.PathError{Op: "read", Path: p, Err: fs.ErrNotExist}
	}
	return append([]byte(nil), file.data...), nil
}

func (f *MemoryFS) WriteFile(p string, data []byte, perm os.FileMode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p = clean(p)
	dir := path.Dir(p)
	if !f.dirExists(dir) {
		return fmt.Errorf("write %q: dir %q does not exist: %w", p, dir, fs.ErrNotExist)
	}
	if _, ok := f.dirs[p]; ok {
		return fmt.Errorf("write %q: is a directory", p)
	}
	f.files[p] = memFile{data: append([]byte(nil), data...), mode: perm}
	return nil
}

func (f *MemoryFS) MkdirAll(p string, perm os.FileMode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p = clean(p)
	cur := ""
	if strings.HasPrefix(p, "/") {
		cur = "/"
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == "" || seg == "." {
			continue
		}
		cur = path.Join(cur, seg)
		if _, ok := f.files[cur]; ok {
			return fmt.Errorf("mkdir %q: not a directory", cur)
		}
		f.dirs[cur] = struct{}{}
	}
	return nil
}

func (f *MemoryFS) Remove(p string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p = clean(p)
	if _, ok := f.files[p]; ok {
		delete(f.files, p)
		return nil
	}
	if _, ok := f.dirs[p]; ok {
		if f.hasChildren(p) {
			return fmt.Errorf("remove %q: directory not empty", p)
		}
		delete(f.dirs, p)
		return nil
	}
	return &fs.PathError{Op: "remove", Path: p, Err: fs.ErrNotExist}
}

func (f *MemoryFS) hasChildren(dir string) bool {
	prefix := dir + "/"
	for fp := range f.files {
		if strings.HasPrefix(fp, prefix) {
			return true
		}
	}
	for dp := range f.dirs {
		if strings.HasPrefix(dp, prefix) {
			return true
		}
	}
	return false
}

func (f *MemoryFS) Rename(oldp, newp string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	oldp, newp = clean(oldp), clean(newp)

	if file, ok := f.files[oldp]; ok {
		if !f.dirExists(path.Dir(newp)) {
			return &fs.PathError{Op: "rename", Path: newp, Err: fs.ErrNotExist}
		}
		delete(f.files, oldp)
		f.files[newp] = file
		return nil
	}

	if _, ok := f.dirs[oldp]; ok {
		delete(f.dirs, oldp)
		f.dirs[newp] = struct{}{}
		return nil
	}

	return &fs.PathError{Op: "rename", Path: oldp, Err: fs.ErrNotExist}
}

func (f *MemoryFS) Stat(p string) (os.FileInfo, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	p = clean(p)
	if file, ok := f.files[p]; ok {
		return &fakeInfo{name: path.Base(p), size: int64(len(file.data)), mode: file.mode}, nil
	}
	if _, ok := f.dirs[p]; ok {
		return &fakeInfo{name: path.Base(p), dir: true, mode: fs.ModeDir | 0o755}, nil
	}
	return nil, &fs.PathError{Op: "stat", Path: p, Err: fs.ErrNotExist}
}

func (f *MemoryFS) ReadDir(p string) ([]os.DirEntry, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	p = clean(p)
	if _, ok := f.dirs[p]; !ok {
		return nil, &fs.PathError{Op: "readdir", Path: p, Err: fs.ErrNotExist}
	}

	prefix := p
	if prefix == "." {
		prefix = ""
	} else if prefix != "/" {
		prefix += "/"
	}

	seen := map[string]bool{}
	var out []os.DirEntry

	for dp := range f.dirs {
		if dp == p || !strings.HasPrefix(dp, prefix) {
			continue
		}
		name := strings.Split(strings.TrimPrefix(dp, prefix), "/")[0]
		if name != "" && name != "." && !seen[name] {
			seen[name] = true
			out = append(out, fakeDirEntry{name: name, isDir: true})
		}
	}

	for fp, file := range f.files {
		if !strings.HasPrefix(fp, prefix) {
			continue
		}
		rest := strings.TrimPrefix(fp, prefix)
		if strings.Contains(rest, "/") || rest == "" || seen[rest] {
			continue
		}
		seen[rest] = true
		out = append(out, fakeDirEntry{name: rest, size: int64(len(file.data)), mode: file.mode})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out, nil
}

func (f *MemoryFS) CreateTempFile(dir, pattern string) (io.WriteCloser, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.dirExists(dir) {
		return nil, "", &fs.PathError{Op: "createtemp", Path: dir, Err: fs.ErrNotExist}
	}

	f.seq++
	name := strings.Replace(pattern, "*", fmt.Sprintf("%d", f.seq), 1)
	if name == pattern {
		name = fmt.Sprintf("%s%d", pattern, f.seq)
	}
	tmpName := clean(path.Join(clean(dir), name))

	buf := &bytes.Buffer{}
	wc := &memWriteCloser{
		buf: buf,
		onClose: func() {
			f.mu.Lock()
			f.files[tmpName] = memFile{data: buf.Bytes(), mode: 0o600}
			f.mu.Unlock()
		},
	}
	f.files[tmpName] = memFile{mode: 0o600}
	return wc, tmpName, nil
}

type memWriteCloser struct {
	buf     *bytes.Buffer
	onClose func()
	closed  bool
}

func (m *memWriteCloser) Write(p []byte) (int, error) {
	if m.closed {
		return 0, os.ErrClosed
	}
	return m.buf.Write(p)
}

func (m *memWriteCloser) Close() error {
	if m.closed {
		return os.ErrClosed
	}
	m.closed = true
	if m.onClose != nil {
		m.onClose()
	}
	return nil
}

func (f *MemoryFS) IsNotExist(err error) bool { return errors.Is(err, fs.ErrNotExist) }

func (f *MemoryFS) IsDir(p string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.dirExists(p)
}

func (f *MemoryFS) Exists(p string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	p = clean(p)
	_, isFile := f.files[p]
	_, isDir := f.dirs[p]
	return isFile || isDir
}

type fakeInfo struct {
	name string
	size int64
	mode os.FileMode
	dir  bool
}

func (f *fakeInfo) Name() string       { return f.name }
func (f *fakeInfo) Size() int64        { return f.size }
func (f *fakeInfo) Mode() fs.FileMode  { return f.mode }
func (f *fakeInfo) ModTime() time.Time { return time.Time{} }
func (f *fakeInfo) IsDir() bool        { return f.dir }
func (f *fakeInfo) Sys() any           { return nil }

type fakeDirEntry struct {
	name  string
	isDir bool
	size  int64
	mode  os.FileMode
}

func (d fakeDirEntry) Name() string { return d.name }
func (d fakeDirEntry) IsDir() bool  { return d.isDir }
func (d fakeDirEntry) Type() fs.FileMode {
	if d.isDir {
		return fs.ModeDir
	}
	return 0
}
func (d fakeDirEntry) Info() (os.FileInfo, error) {
	mode := d.mode
	if d.isDir {
		mode = fs.ModeDir | 0o755
	}
	return &fakeInfo{name: d.name, dir: d.isDir, size: d.size, mode: mode}, nil
}
