package cpath

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"io"
	"os"
	"testing"

	"github.com/absfs/absfs"
	"github.com/andybalholm/brotli"
	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"
)

// Fixture builders. The package itself never compresses; tests drive the
// engines directly to stage inputs.

// compress compresses data with the given codec's engine
func compress(t testing.TB, c Codec, data []byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	var w io.WriteCloser
	var err error
	switch c {
	case CodecGzip:
		w = gzip.NewWriter(&buf)
	case CodecXz:
		w, err = xz.NewWriter(&buf)
	case CodecLZ4:
		w = lz4.NewWriter(&buf)
	case CodecZstd:
		w, err = zstd.NewWriter(&buf)
	case CodecBrotli:
		w = brotli.NewWriter(&buf)
	case CodecSnappy:
		w = snappy.NewBufferedWriter(&buf)
	default:
		t.Fatalf("no fixture writer for codec %q", c)
	}
	if err != nil {
		t.Fatalf("Failed to create %s writer: %v", c, err)
	}
	if _, err := w.Write(data); err != nil {
		t.Fatalf("Failed to compress fixture: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to flush fixture: %v", err)
	}
	return buf.Bytes()
}

// The stdlib has no bzip2 writer, so this fixture is pre-built:
// "bzip2 fixture payload\n" compressed with bzip2.
var bzip2Payload = []byte("bzip2 fixture payload\n")
var bzip2Fixture = []byte{
	66, 90, 104, 57, 49, 65, 89, 38, 83, 89, 84, 139, 164, 134, 0, 0,
	3, 89, 128, 0, 16, 64, 0, 16, 0, 55, 36, 214, 112, 32, 0, 49,
	77, 50, 49, 49, 49, 10, 104, 218, 129, 234, 52, 122, 130, 182, 37, 133,
	247, 132, 84, 64, 242, 79, 165, 241, 119, 36, 83, 133, 9, 5, 72, 186,
	72, 96,
}

// entry is one archive member for the fixture builders
type entry struct {
	name string
	data string
	dir  bool
}

// rawTar builds an uncompressed tar stream with entries in order
func rawTar(t testing.TB, entries []entry) []byte {
	t.Helper()

	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for _, e := range entries {
		if e.dir {
			hdr := &tar.Header{
				Name:     e.name + "/",
				Mode:     0755,
				Typeflag: tar.TypeDir,
			}
			if err := tw.WriteHeader(hdr); err != nil {
				t.Fatalf("Failed to write tar dir header: %v", err)
			}
			continue
		}
		hdr := &tar.Header{
			Name:     e.name,
			Mode:     0644,
			Size:     int64(len(e.data)),
			Typeflag: tar.TypeReg,
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("Failed to write tar header: %v", err)
		}
		if _, err := tw.Write([]byte(e.data)); err != nil {
			t.Fatalf("Failed to write tar data: %v", err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("Failed to close tar writer: %v", err)
	}
	return buf.Bytes()
}

// buildTar builds a tar stream compressed with the given wrapper codec
func buildTar(t testing.TB, wrap Codec, entries []entry) []byte {
	t.Helper()
	return compress(t, wrap, rawTar(t, entries))
}

// buildZip builds a zip archive with entries in order
func buildZip(t testing.TB, entries []entry) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		name := e.name
		if e.dir {
			name += "/"
		}
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("Failed to create zip entry: %v", err)
		}
		if !e.dir {
			if _, err := w.Write([]byte(e.data)); err != nil {
				t.Fatalf("Failed to write zip entry: %v", err)
			}
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("Failed to close zip writer: %v", err)
	}
	return buf.Bytes()
}

// writeFile stages a fixture file on the given filer
func writeFile(t testing.TB, base absfs.Filer, name string, data []byte) {
	t.Helper()

	f, err := base.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		t.Fatalf("Failed to create fixture %s: %v", name, err)
	}
	if _, err := f.Write(data); err != nil {
		t.Fatalf("Failed to write fixture %s: %v", name, err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Failed to close fixture %s: %v", name, err)
	}
}

// newTestFS builds a façade over a fresh in-memory filesystem
func newTestFS(t testing.TB, config *Config) (*FS, absfs.Filer) {
	t.Helper()

	base := NewMemFS()
	cfs, err := New(base, config)
	if err != nil {
		t.Fatalf("Failed to create cpath FS: %v", err)
	}
	return cfs, base
}
