package cpath

import (
	"compress/bzip2"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/andybalholm/brotli"
	"github.com/golang/snappy"
	"github.com/ulikunitz/xz"
)

// decoderFactory wraps a compressed byte stream in its streaming decoder.
type decoderFactory func(r io.Reader) (io.ReadCloser, error)

// decoders holds the available decompression engines. Core engines are
// registered here; optional ones (lz4, zstd) register themselves from
// their own files. An unregistered codec fails at open time with
// ErrUnsupportedFormat, never at resolve time.
var decoders = map[Codec]decoderFactory{
	CodecGzip:   newGzipDecoder,
	CodecBzip2:  newBzip2Decoder,
	CodecXz:     newXzDecoder,
	CodecBrotli: newBrotliDecoder,
	CodecSnappy: newSnappyDecoder,
}

// EngineAvailable reports whether the decompression engine for a codec is
// linked into the binary. Archive codecs report on their stream wrapper.
func EngineAvailable(c Codec) bool {
	s := c.stream()
	if s == CodecNone {
		return true
	}
	_, ok := decoders[s]
	return ok
}

// newDecoder creates a decompressor for the specified codec
func newDecoder(c Codec, r io.Reader) (io.ReadCloser, error) {
	factory, ok := decoders[c]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, c)
	}
	return factory(r)
}

func newGzipDecoder(r io.Reader) (io.ReadCloser, error) {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return nil, corrupt(err)
	}
	return zr, nil
}

func newBzip2Decoder(r io.Reader) (io.ReadCloser, error) {
	// bzip2 has no streaming writer in the stdlib, which is fine here:
	// this package only ever reads.
	return io.NopCloser(bzip2.NewReader(r)), nil
}

func newXzDecoder(r io.Reader) (io.ReadCloser, error) {
	xr, err := xz.NewReader(r)
	if err != nil {
		return nil, corrupt(err)
	}
	return io.NopCloser(xr), nil
}

func newBrotliDecoder(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(brotli.NewReader(r)), nil
}

func newSnappyDecoder(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(snappy.NewReader(r)), nil
}

// decoder creates a decompressor through the façade, honoring the
// DisabledEngines capability flags. CodecNone passes the stream through.
func (cfs *FS) decoder(c Codec, r io.Reader) (io.ReadCloser, error) {
	if c == CodecNone {
		return io.NopCloser(r), nil
	}
	if cfs.disabled[c] {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, c)
	}
	return newDecoder(c, r)
}

// corrupt tags a decoder failure as ErrCorruptData. Errors that came from
// the filesystem rather than the decoder pass through unchanged, so a
// missing file never masquerades as a corrupt one.
func corrupt(err error) error {
	if err == nil || err == io.EOF {
		return err
	}
	var perr *fs.PathError
	if errors.As(err, &perr) || errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if errors.Is(err, ErrCorruptData) || errors.Is(err, ErrUnsupportedFormat) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrCorruptData, err)
}
