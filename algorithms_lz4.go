package cpath

import (
	"io"

	"github.com/pierrec/lz4/v4"
)

// lz4 is an optional engine; dropping this file from the build removes the
// codec and .lz4 paths fail with ErrUnsupportedFormat when opened.

func init() {
	decoders[CodecLZ4] = newLZ4Decoder
}

func newLZ4Decoder(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(lz4.NewReader(r)), nil
}
