package cpath

import (
	"path/filepath"
	"strings"
)

// format maps a filename suffix to the codec that decodes it.
type format struct {
	suffix string
	codec  Codec
}

// formats is checked in order; multi-segment suffixes come first so that
// "export.tar.gz" resolves to the tar extractor and never to plain gzip.
// Matching is case-sensitive against the final path component.
var formats = []format{
	{".tar.gz", CodecTarGz},
	{".tar.xz", CodecTarXz},
	{".tar.zst", CodecTarZst},
	{".tar.bz2", CodecTarBz2},
	{".tgz", CodecTarGz},
	{".xz", CodecXz},
	{".zip", CodecZip},
	{".lz4", CodecLZ4},
	{".zstd", CodecZstd},
	{".zst", CodecZstd},
	{".gz", CodecGzip},
	{".bz2", CodecBzip2},
	{".br", CodecBrotli},
	{".sz", CodecSnappy},
	{".snappy", CodecSnappy},
}

// ResolveCodec returns the codec for a path based on its filename alone.
// It performs no I/O and cannot fail: names matching no registered suffix
// resolve to CodecNone, the passthrough codec.
func ResolveCodec(name string) Codec {
	base := filepath.Base(name)
	for _, f := range formats {
		if strings.HasSuffix(base, f.suffix) {
			return f.codec
		}
	}
	return CodecNone
}

// IsCompressed reports whether the path's name matches a known compressed
// or archive format. It is the branch-without-opening predicate: callers
// that only want to classify a path do not need to construct a Path.
func IsCompressed(name string) bool {
	return ResolveCodec(name) != CodecNone
}

// Extensions returns the registered suffixes for a codec, most specific
// first. Unknown codecs return nil.
func Extensions(c Codec) []string {
	var exts []string
	for _, f := range formats {
		if f.codec == c {
			exts = append(exts, f.suffix)
		}
	}
	return exts
}
