package cpath

import (
	"io"

	"github.com/klauspost/compress/zstd"
)

// zstd is an optional engine, registered the same way as lz4.

func init() {
	decoders[CodecZstd] = newZstdDecoder
}

func newZstdDecoder(r io.Reader) (io.ReadCloser, error) {
	zr, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, corrupt(err)
	}
	return zr.IOReadCloser(), nil
}
