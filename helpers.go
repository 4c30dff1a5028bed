package cpath

import (
	"bytes"
	"io"
	"sync"

	"github.com/absfs/absfs"
)

var (
	defaultOnce sync.Once
	defaultFS   *FS
)

// DefaultFS returns the package-level façade over the host filesystem
// with the default config. It is shared by the convenience functions.
func DefaultFS() *FS {
	defaultOnce.Do(func() {
		// DefaultConfig cannot fail validation
		defaultFS, _ = NewOSFS(nil)
	})
	return defaultFS
}

// Open opens a host-filesystem path for reading, transparently
// decompressing by filename
func Open(name string) (absfs.File, error) {
	return DefaultFS().Path(name).Open()
}

// ReadFile reads the whole decompressed content of a host-filesystem path
func ReadFile(name string) ([]byte, error) {
	return DefaultFS().Path(name).ReadFile()
}

// ReadText reads the whole content of a host-filesystem path as UTF-8 text
func ReadText(name string) (string, error) {
	return DefaultFS().Path(name).ReadText()
}

// Exists reports whether a host-filesystem path exists; a non-empty
// subpath names a member inside the archive at name. Any failure to reach
// the target counts as absent.
func Exists(name, subpath string) bool {
	p := DefaultFS().Path(name)
	if subpath != "" {
		p = p.Join(subpath)
	}
	return p.Exists()
}

// Decompress wraps r in the streaming decoder for the given codec
func Decompress(c Codec, r io.Reader) (io.ReadCloser, error) {
	return newDecoder(c, r)
}

// DecompressBytes decompresses a byte slice using the specified codec
func DecompressBytes(data []byte, c Codec) ([]byte, error) {
	rc, err := newDecoder(c, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	out, err := io.ReadAll(rc)
	if err != nil {
		return nil, corrupt(err)
	}
	return out, nil
}
