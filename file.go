package cpath

import (
	"io"
	"io/fs"
	"os"
	"sync"

	"github.com/absfs/absfs"
)

// file wraps an underlying handle with transparent decompression. It
// implements absfs.File so a decoded stream can be passed anywhere a plain
// file is expected; the write-side methods fail with ErrReadOnly.
type file struct {
	cfs  *FS
	base absfs.File // container handle, always closed on Close

	// Decompression state; nil for passthrough reads
	rc    io.ReadCloser
	codec Codec

	// name is the façade's name for this handle, which for archive
	// members differs from base.Name()
	name string

	// info overrides Stat for synthesized results (archive members,
	// unknown-size streams); nil delegates to base
	info os.FileInfo

	bytesRead int64
	closed    bool
	mu        sync.Mutex
}

// multiReadCloser reads from a decode chain and releases every resource in
// the chain on Close, in order.
type multiReadCloser struct {
	r       io.Reader
	closers []io.Closer
}

func (m *multiReadCloser) Read(p []byte) (n int, err error) {
	return m.r.Read(p)
}

func (m *multiReadCloser) Close() error {
	var first error
	for _, c := range m.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Read reads from the file, decompressing if a decoder is attached
func (f *file) Read(p []byte) (n int, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return 0, fs.ErrClosed
	}

	if f.rc != nil {
		n, err = f.rc.Read(p)
		if err != nil && err != io.EOF {
			err = corrupt(err)
		}
		if n > 0 {
			f.bytesRead += int64(n)
			f.cfs.addBytes(&f.cfs.stats.BytesRead, int64(n))
			// Hold back EOF until the next call, like a plain file read
			if err == io.EOF {
				err = nil
			}
		}
		return n, err
	}

	n, err = f.base.Read(p)
	if n > 0 {
		f.bytesRead += int64(n)
		f.cfs.addBytes(&f.cfs.stats.BytesRead, int64(n))
	}
	return n, err
}

// Close releases the decode chain and the underlying handle
func (f *file) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil
	}
	f.closed = true

	var err error
	if f.rc != nil {
		err = f.rc.Close()
		f.cfs.incrementStat(&f.cfs.stats.FilesDecompressed)
		f.cfs.addBytes(&f.cfs.stats.BytesDecompressed, f.bytesRead)
		f.cfs.stats.IncrementCodecCount(f.codec)
	} else {
		f.cfs.incrementStat(&f.cfs.stats.FilesPassthrough)
	}

	if cerr := f.base.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// Name returns the façade name of the file
func (f *file) Name() string {
	return f.name
}

// Stat returns file information. For decompressed streams the size is
// reported as -1: computing it would mean decoding the whole stream.
func (f *file) Stat() (os.FileInfo, error) {
	if f.info != nil {
		return f.info, nil
	}
	return f.base.Stat()
}

// Seek seeks in the file; decompressed streams cannot seek
func (f *file) Seek(offset int64, whence int) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return 0, fs.ErrClosed
	}
	if f.rc != nil {
		return 0, ErrSeekNotSupported
	}
	return f.base.Seek(offset, whence)
}

// ReadAt reads len(b) bytes starting at byte offset off
func (f *file) ReadAt(b []byte, off int64) (n int, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return 0, fs.ErrClosed
	}
	if f.rc != nil {
		return 0, ErrSeekNotSupported
	}
	return f.base.ReadAt(b, off)
}

func (f *file) Write(p []byte) (n int, err error) {
	return 0, ErrReadOnly
}

func (f *file) WriteAt(b []byte, off int64) (n int, err error) {
	return 0, ErrReadOnly
}

func (f *file) WriteString(s string) (n int, err error) {
	return 0, ErrReadOnly
}

func (f *file) Truncate(size int64) error {
	return ErrReadOnly
}

func (f *file) Sync() error {
	return nil
}

// Readdir reads directory contents; only passthrough directories have any
func (f *file) Readdir(n int) ([]os.FileInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil, fs.ErrClosed
	}
	if f.rc != nil {
		return nil, ErrUnsupportedOperation
	}
	return f.base.Readdir(n)
}

// Readdirnames reads directory contents and returns the names
func (f *file) Readdirnames(n int) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil, fs.ErrClosed
	}
	if f.rc != nil {
		return nil, ErrUnsupportedOperation
	}
	return f.base.Readdirnames(n)
}

// streamFileInfo reports a decompressed stream's info: the container's
// identity with an unknown size.
type streamFileInfo struct {
	os.FileInfo
}

func (fi streamFileInfo) Size() int64 { return -1 }
func (fi streamFileInfo) IsDir() bool { return false }
