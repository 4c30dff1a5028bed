package cpath

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/absfs/absfs"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
)

// Codec identifies how the bytes behind a path are stored.
type Codec string

const (
	// CodecNone is the passthrough codec for files that need no decoding.
	CodecNone Codec = ""

	// Single-stream decompressors.
	CodecGzip   Codec = "gzip"
	CodecBzip2  Codec = "bzip2"
	CodecXz     Codec = "xz"
	CodecLZ4    Codec = "lz4"
	CodecZstd   Codec = "zstd"
	CodecBrotli Codec = "brotli"
	CodecSnappy Codec = "snappy"

	// Archive extractors.
	CodecZip    Codec = "zip"
	CodecTarGz  Codec = "tar+gzip"
	CodecTarXz  Codec = "tar+xz"
	CodecTarZst Codec = "tar+zstd"
	CodecTarBz2 Codec = "tar+bzip2"
)

// IsArchive reports whether the codec is a multi-member archive format.
func (c Codec) IsArchive() bool {
	switch c {
	case CodecZip, CodecTarGz, CodecTarXz, CodecTarZst, CodecTarBz2:
		return true
	}
	return false
}

// stream returns the single-stream codec that actually decodes the bytes:
// the wrapper compression for tar archives, the codec itself for plain
// streams, and CodecNone for zip (the zip reader decodes its own members).
func (c Codec) stream() Codec {
	switch c {
	case CodecTarGz:
		return CodecGzip
	case CodecTarXz:
		return CodecXz
	case CodecTarZst:
		return CodecZstd
	case CodecTarBz2:
		return CodecBzip2
	case CodecZip:
		return CodecNone
	}
	return c
}

// Config holds façade configuration
type Config struct {
	// Encoding is the IANA name of the text encoding used by ReadText and
	// by OpenText when the caller passes "" (default: utf-8)
	Encoding string

	// DisabledEngines lists codecs that should behave as if their
	// decompression engine were not installed. Resolution by filename is
	// unaffected; opening such a path fails with ErrUnsupportedFormat.
	DisabledEngines []Codec
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Encoding: "utf-8",
	}
}

// Stats holds read-side statistics
type Stats struct {
	FilesDecompressed int64
	FilesPassthrough  int64
	MembersListed     int64

	BytesRead         int64
	BytesDecompressed int64

	CodecCounts sync.Map // map[Codec]int64
}

// GetCodecCount returns the count for a specific codec
func (s *Stats) GetCodecCount(c Codec) int64 {
	if val, ok := s.CodecCounts.Load(c); ok {
		return val.(int64)
	}
	return 0
}

// IncrementCodecCount increments the count for a specific codec
func (s *Stats) IncrementCodecCount(c Codec) {
	val, _ := s.CodecCounts.LoadOrStore(c, int64(0))
	s.CodecCounts.Store(c, val.(int64)+1)
}

var (
	ErrUnsupportedFormat    = errors.New("cpath: decompression engine not available")
	ErrCorruptData          = errors.New("cpath: corrupted compressed data")
	ErrUnsupportedOperation = errors.New("cpath: operation not supported")
	ErrReadOnly             = errors.New("cpath: write not supported")
	ErrSeekNotSupported     = errors.New("cpath: seek not supported for compressed files")
	ErrUnknownEncoding      = errors.New("cpath: unknown text encoding")
)

// FS constructs transparent paths over a base filesystem. It holds no
// per-path state; Path values are independent of each other.
type FS struct {
	base     absfs.Filer
	config   *Config
	encoding encoding.Encoding // resolved once from config.Encoding
	disabled map[Codec]bool
	stats    Stats
	mu       sync.RWMutex
}

// New creates a transparent-path façade over the given base filesystem.
// The config's text encoding and engine capability flags are resolved here,
// once; unknown encodings are rejected up front rather than on first read.
func New(base absfs.Filer, config *Config) (*FS, error) {
	if config == nil {
		config = DefaultConfig()
	}

	enc, err := lookupEncoding(config.Encoding)
	if err != nil {
		return nil, err
	}

	disabled := make(map[Codec]bool, len(config.DisabledEngines))
	for _, c := range config.DisabledEngines {
		disabled[c] = true
	}

	return &FS{
		base:     base,
		config:   config,
		encoding: enc,
		disabled: disabled,
	}, nil
}

// NewOSFS creates a façade over the host filesystem
func NewOSFS(config *Config) (*FS, error) {
	return New(NewOSFiler(), config)
}

// lookupEncoding resolves an IANA charset name. "" means utf-8, which is
// returned as nil: UTF-8 byte streams need no transformation.
func lookupEncoding(name string) (encoding.Encoding, error) {
	switch name {
	case "", "utf-8", "utf8", "UTF-8":
		return nil, nil
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, name)
	}
	return enc, nil
}

// engineAvailable reports whether a codec can actually be opened through
// this façade, consulting both the linked engines and DisabledEngines.
func (cfs *FS) engineAvailable(c Codec) bool {
	if cfs.disabled[c] || cfs.disabled[c.stream()] {
		return false
	}
	return EngineAvailable(c)
}

// GetStats returns current statistics
func (cfs *FS) GetStats() *Stats {
	cfs.mu.RLock()
	defer cfs.mu.RUnlock()
	// Return a copy
	return &Stats{
		FilesDecompressed: atomic.LoadInt64(&cfs.stats.FilesDecompressed),
		FilesPassthrough:  atomic.LoadInt64(&cfs.stats.FilesPassthrough),
		MembersListed:     atomic.LoadInt64(&cfs.stats.MembersListed),
		BytesRead:         atomic.LoadInt64(&cfs.stats.BytesRead),
		BytesDecompressed: atomic.LoadInt64(&cfs.stats.BytesDecompressed),
	}
}

// ResetStats resets statistics to zero
func (cfs *FS) ResetStats() {
	cfs.mu.Lock()
	defer cfs.mu.Unlock()
	atomic.StoreInt64(&cfs.stats.FilesDecompressed, 0)
	atomic.StoreInt64(&cfs.stats.FilesPassthrough, 0)
	atomic.StoreInt64(&cfs.stats.MembersListed, 0)
	atomic.StoreInt64(&cfs.stats.BytesRead, 0)
	atomic.StoreInt64(&cfs.stats.BytesDecompressed, 0)
	cfs.stats.CodecCounts = sync.Map{}
}

// incrementStat atomically increments a stat counter
func (cfs *FS) incrementStat(counter *int64) {
	atomic.AddInt64(counter, 1)
}

// addBytes atomically adds to a byte counter
func (cfs *FS) addBytes(counter *int64, n int64) {
	atomic.AddInt64(counter, n)
}
