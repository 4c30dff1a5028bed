package cpath

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/absfs/absfs"
)

// normalizePath normalizes a path for consistent storage/lookup
func normalizePath(name string) string {
	name = filepath.Clean(name)
	name = strings.TrimPrefix(name, "/")
	name = strings.TrimPrefix(name, string(filepath.Separator))
	if name == "" || name == "." {
		name = "."
	}
	return name
}

// memFS is a simple in-memory filesystem, used by the tests to stage
// compressed fixtures without touching disk
type memFS struct {
	files map[string]*memFile
	mu    sync.RWMutex
}

// NewMemFS creates a new in-memory filesystem
func NewMemFS() absfs.Filer {
	return &memFS{
		files: make(map[string]*memFile),
	}
}

type memFile struct {
	name    string
	data    *bytes.Buffer
	mode    fs.FileMode
	modTime time.Time
	pos     int64
	closed  bool
	mu      sync.Mutex
}

// hasDir reports whether any stored file lives under the given directory.
// memFS has no explicit directory entries; directories exist implicitly.
func (mfs *memFS) hasDir(name string) bool {
	if name == "." {
		return true
	}
	prefix := name + "/"
	for path := range mfs.files {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func (mfs *memFS) OpenFile(name string, flag int, perm os.FileMode) (absfs.File, error) {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	name = normalizePath(name)

	// Directory open, for Readdirnames support
	if _, exists := mfs.files[name]; !exists && mfs.hasDir(name) {
		return &memDir{mfs: mfs, name: name}, nil
	}

	if flag&os.O_CREATE != 0 {
		if _, exists := mfs.files[name]; !exists {
			mfs.files[name] = &memFile{
				name:    name,
				data:    new(bytes.Buffer),
				mode:    perm,
				modTime: time.Now(),
			}
		}
	}

	mf, exists := mfs.files[name]
	if !exists {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}

	if flag&os.O_TRUNC != 0 {
		mf.data.Reset()
		mf.modTime = time.Now()
	}

	// Each handle reads from its own position
	handle := &memFile{
		name:    mf.name,
		data:    mf.data,
		mode:    mf.mode,
		modTime: mf.modTime,
	}
	if flag&os.O_APPEND != 0 {
		handle.pos = int64(mf.data.Len())
	}
	return handle, nil
}

func (mfs *memFS) Mkdir(name string, perm os.FileMode) error {
	// Directories exist implicitly
	return nil
}

func (mfs *memFS) Remove(name string) error {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	name = normalizePath(name)
	if _, exists := mfs.files[name]; !exists {
		return &fs.PathError{Op: "remove", Path: name, Err: fs.ErrNotExist}
	}
	delete(mfs.files, name)
	return nil
}

func (mfs *memFS) Rename(oldpath, newpath string) error {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	oldpath = normalizePath(oldpath)
	newpath = normalizePath(newpath)

	mf, exists := mfs.files[oldpath]
	if !exists {
		return &fs.PathError{Op: "rename", Path: oldpath, Err: fs.ErrNotExist}
	}
	mfs.files[newpath] = &memFile{
		name:    newpath,
		data:    mf.data,
		mode:    mf.mode,
		modTime: time.Now(),
	}
	delete(mfs.files, oldpath)
	return nil
}

func (mfs *memFS) Stat(name string) (os.FileInfo, error) {
	mfs.mu.RLock()
	defer mfs.mu.RUnlock()

	name = normalizePath(name)
	mf, exists := mfs.files[name]
	if !exists {
		if mfs.hasDir(name) {
			return &memFileInfo{
				name:    filepath.Base(name),
				mode:    fs.ModeDir | 0755,
				modTime: time.Now(),
			}, nil
		}
		return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrNotExist}
	}

	return &memFileInfo{
		name:    filepath.Base(mf.name),
		size:    int64(mf.data.Len()),
		mode:    mf.mode,
		modTime: mf.modTime,
	}, nil
}

func (mfs *memFS) Chmod(name string, mode os.FileMode) error {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	name = normalizePath(name)
	mf, exists := mfs.files[name]
	if !exists {
		return &fs.PathError{Op: "chmod", Path: name, Err: fs.ErrNotExist}
	}
	mf.mode = mode
	return nil
}

func (mfs *memFS) Chtimes(name string, atime time.Time, mtime time.Time) error {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	name = normalizePath(name)
	mf, exists := mfs.files[name]
	if !exists {
		return &fs.PathError{Op: "chtimes", Path: name, Err: fs.ErrNotExist}
	}
	mf.modTime = mtime
	return nil
}

func (mfs *memFS) Chown(name string, uid, gid int) error {
	mfs.mu.RLock()
	defer mfs.mu.RUnlock()

	name = normalizePath(name)
	if _, exists := mfs.files[name]; !exists && !mfs.hasDir(name) {
		return &fs.PathError{Op: "chown", Path: name, Err: fs.ErrNotExist}
	}
	return nil
}

func (mf *memFile) Read(p []byte) (n int, err error) {
	mf.mu.Lock()
	defer mf.mu.Unlock()

	if mf.closed {
		return 0, fs.ErrClosed
	}
	if mf.pos >= int64(mf.data.Len()) {
		return 0, io.EOF
	}
	n = copy(p, mf.data.Bytes()[mf.pos:])
	mf.pos += int64(n)
	return n, nil
}

func (mf *memFile) Write(p []byte) (n int, err error) {
	mf.mu.Lock()
	defer mf.mu.Unlock()

	if mf.closed {
		return 0, fs.ErrClosed
	}
	n, err = mf.data.Write(p)
	mf.modTime = time.Now()
	return n, err
}

func (mf *memFile) Close() error {
	mf.mu.Lock()
	defer mf.mu.Unlock()

	mf.closed = true
	return nil
}

func (mf *memFile) Seek(offset int64, whence int) (int64, error) {
	mf.mu.Lock()
	defer mf.mu.Unlock()

	if mf.closed {
		return 0, fs.ErrClosed
	}

	var newPos int64
	switch whence {
	case io.SeekStart:
		newPos = offset
	case io.SeekCurrent:
		newPos = mf.pos + offset
	case io.SeekEnd:
		newPos = int64(mf.data.Len()) + offset
	default:
		return 0, errors.New("invalid whence")
	}
	if newPos < 0 {
		return 0, errors.New("negative position")
	}
	mf.pos = newPos
	return newPos, nil
}

func (mf *memFile) Stat() (os.FileInfo, error) {
	mf.mu.Lock()
	defer mf.mu.Unlock()

	return &memFileInfo{
		name:    filepath.Base(mf.name),
		size:    int64(mf.data.Len()),
		mode:    mf.mode,
		modTime: mf.modTime,
	}, nil
}

func (mf *memFile) Sync() error {
	return nil
}

func (mf *memFile) Name() string {
	return mf.name
}

func (mf *memFile) ReadAt(b []byte, off int64) (n int, err error) {
	mf.mu.Lock()
	defer mf.mu.Unlock()

	if mf.closed {
		return 0, fs.ErrClosed
	}
	if off < 0 {
		return 0, errors.New("negative offset")
	}
	data := mf.data.Bytes()
	if off >= int64(len(data)) {
		return 0, io.EOF
	}
	n = copy(b, data[off:])
	if n < len(b) {
		return n, io.EOF
	}
	return n, nil
}

func (mf *memFile) WriteAt(b []byte, off int64) (n int, err error) {
	mf.mu.Lock()
	defer mf.mu.Unlock()

	if mf.closed {
		return 0, fs.ErrClosed
	}
	if off < 0 {
		return 0, errors.New("negative offset")
	}
	data := mf.data.Bytes()
	needed := int(off) + len(b)
	if needed > len(data) {
		newData := make([]byte, needed)
		copy(newData, data)
		mf.data = bytes.NewBuffer(newData)
	}
	data = mf.data.Bytes()
	n = copy(data[off:], b)
	mf.modTime = time.Now()
	return n, nil
}

func (mf *memFile) WriteString(s string) (n int, err error) {
	return mf.Write([]byte(s))
}

func (mf *memFile) Truncate(size int64) error {
	mf.mu.Lock()
	defer mf.mu.Unlock()

	if mf.closed {
		return fs.ErrClosed
	}
	data := mf.data.Bytes()
	if size < int64(len(data)) {
		mf.data = bytes.NewBuffer(data[:size])
	} else if size > int64(len(data)) {
		newData := make([]byte, size)
		copy(newData, data)
		mf.data = bytes.NewBuffer(newData)
	}
	mf.modTime = time.Now()
	return nil
}

func (mf *memFile) Readdir(n int) ([]os.FileInfo, error) {
	return nil, os.ErrInvalid
}

func (mf *memFile) Readdirnames(n int) ([]string, error) {
	return nil, os.ErrInvalid
}

type memFileInfo struct {
	name    string
	size    int64
	mode    fs.FileMode
	modTime time.Time
}

func (fi *memFileInfo) Name() string       { return fi.name }
func (fi *memFileInfo) Size() int64        { return fi.size }
func (fi *memFileInfo) Mode() fs.FileMode  { return fi.mode }
func (fi *memFileInfo) ModTime() time.Time { return fi.modTime }
func (fi *memFileInfo) IsDir() bool        { return fi.mode.IsDir() }
func (fi *memFileInfo) Sys() interface{}   { return nil }

// memDir is a handle on an implicit memFS directory
type memDir struct {
	mfs  *memFS
	name string
}

func (md *memDir) Read(p []byte) (n int, err error)  { return 0, os.ErrInvalid }
func (md *memDir) Write(p []byte) (n int, err error) { return 0, os.ErrInvalid }
func (md *memDir) Close() error                      { return nil }

func (md *memDir) Seek(offset int64, whence int) (int64, error) {
	return 0, os.ErrInvalid
}

func (md *memDir) Stat() (os.FileInfo, error) {
	return &memFileInfo{
		name:    filepath.Base(md.name),
		mode:    fs.ModeDir | 0755,
		modTime: time.Now(),
	}, nil
}

func (md *memDir) Sync() error  { return nil }
func (md *memDir) Name() string { return md.name }

func (md *memDir) ReadAt(b []byte, off int64) (n int, err error) {
	return 0, os.ErrInvalid
}

func (md *memDir) WriteAt(b []byte, off int64) (n int, err error) {
	return 0, os.ErrInvalid
}

func (md *memDir) WriteString(s string) (n int, err error) {
	return 0, os.ErrInvalid
}

func (md *memDir) Truncate(size int64) error {
	return os.ErrInvalid
}

func (md *memDir) Readdir(n int) ([]os.FileInfo, error) {
	names, err := md.Readdirnames(n)
	if err != nil {
		return nil, err
	}
	infos := make([]os.FileInfo, 0, len(names))
	for _, name := range names {
		info, err := md.mfs.Stat(filepath.Join(md.name, name))
		if err != nil {
			continue
		}
		infos = append(infos, info)
	}
	return infos, nil
}

func (md *memDir) Readdirnames(n int) ([]string, error) {
	md.mfs.mu.RLock()
	defer md.mfs.mu.RUnlock()

	dirPath := normalizePath(md.name)
	seen := make(map[string]bool)
	var names []string
	for path := range md.mfs.files {
		rel := path
		if dirPath != "." {
			if !strings.HasPrefix(path, dirPath+"/") {
				continue
			}
			rel = path[len(dirPath)+1:]
		}
		// First segment only: deeper files imply a child directory
		seg := rel
		if i := strings.IndexByte(rel, '/'); i >= 0 {
			seg = rel[:i]
		}
		if !seen[seg] {
			seen[seg] = true
			names = append(names, seg)
		}
	}
	sort.Strings(names)
	if n > 0 && len(names) > n {
		names = names[:n]
	}
	return names, nil
}
