// Package cpath provides transparent, format-agnostic read access to
// compressed and archived files behind a plain path-like interface.
//
// A Path is classified by filename alone: open "events.json.gz" and read
// decompressed bytes, open "export.tar.gz" and read the single file inside
// it, iterate "backup.zip" like a directory. Callers never name the codec;
// if the filename matches no known format the bytes pass through untouched.
//
// # Features
//
//   - One read interface over plain, compressed, and archived files
//   - Formats: gzip, bzip2, xz, lz4, zstd, brotli, snappy, zip, tar.gz
//     (plus tar.xz, tar.zst, tar.bz2, tgz)
//   - Archive members addressable as compound paths (archive + inner path)
//   - Single-member archives open directly, multi-member archives list
//     like directories, in the archive's own stored order
//   - Text reads with any IANA charset (default UTF-8)
//   - Pluggable base filesystem via absfs (host filesystem by default)
//   - Read-side statistics
//
// # Quick Start
//
//	import "github.com/absfs/cpath"
//
//	// One-shot reads through the host filesystem
//	text, err := cpath.ReadText("logs/app.log.zst")
//
//	// Path values for richer access
//	fs, _ := cpath.NewOSFS(nil)
//	p := fs.Path("export.zip")
//	if p.IsDir() {
//	    children, _ := p.ReadDir()
//	    for _, c := range children {
//	        data, _ := c.ReadFile()
//	        _ = data
//	    }
//	}
//
//	// Address a member inside an archive directly
//	data, err := fs.Path("export.zip").Join("profile/settings.json").ReadFile()
//
// # Classification
//
// Suffix patterns are matched against the filename in a fixed precedence
// order, most specific first, so "dump.tar.gz" is a tar archive and never
// plain gzip. Classification performs no I/O and never fails; real errors
// surface when bytes are read. IsCompressed answers the classification
// question without constructing a Path.
//
// # Errors
//
// Missing files and archive members report fs.ErrNotExist. Streams the
// engine rejects report ErrCorruptData. A recognized extension whose
// engine is unavailable (or disabled via Config.DisabledEngines) fails at
// open time with ErrUnsupportedFormat. Directory-style operations on
// single files, and file-style operations on directory-like archives,
// fail with ErrUnsupportedOperation.
//
// This package only reads. Handles implement absfs.File so they can be
// passed wherever a plain file is expected; their write-side methods
// return ErrReadOnly.
package cpath
