package cpath

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/absfs/absfs"
	"golang.org/x/text/transform"
)

// Path is a transparent reference to possibly-compressed bytes: a plain
// filesystem path, or a compound (archive, inner member) reference.
// Construction only classifies the name; no file is touched until an
// operation is invoked, and each operation opens and releases its own
// handles. Path values are immutable.
type Path struct {
	cfs   *FS
	name  string // filesystem path of the file or archive container
	sub   string // member path inside an archive, "" otherwise
	codec Codec
}

// Path constructs a transparent path, classifying it by filename
func (cfs *FS) Path(name string) *Path {
	return &Path{cfs: cfs, name: name, codec: ResolveCodec(name)}
}

// PathAs constructs a path with an explicit codec, overriding filename
// classification. Useful for compressed files with nonstandard names.
func (cfs *FS) PathAs(name string, codec Codec) *Path {
	return &Path{cfs: cfs, name: name, codec: codec}
}

// Join appends path elements. Below an archive the elements extend the
// inner member path (archives always use forward slashes); otherwise the
// result is re-classified, so joining "logs.gz" onto a directory path
// yields a gzip path.
func (p *Path) Join(elem ...string) *Path {
	if p.codec.IsArchive() {
		sub := path.Join(append([]string{p.sub}, elem...)...)
		if sub == "." {
			sub = ""
		}
		return &Path{cfs: p.cfs, name: p.name, sub: sub, codec: p.codec}
	}
	return p.cfs.Path(filepath.Join(append([]string{p.name}, elem...)...))
}

// String returns the path in plain syntax; compound references append the
// member path to the container path.
func (p *Path) String() string {
	if p.sub == "" {
		return p.name
	}
	return p.name + "/" + p.sub
}

// Name returns the final path component
func (p *Path) Name() string {
	if p.sub != "" {
		return path.Base(p.sub)
	}
	return filepath.Base(p.name)
}

// Ext returns the suffix of the final path component
func (p *Path) Ext() string {
	return filepath.Ext(p.Name())
}

// Parent returns the containing path; the parent of a top-level archive
// member is the archive itself.
func (p *Path) Parent() *Path {
	if p.sub != "" {
		sub := path.Dir(p.sub)
		if sub == "." {
			sub = ""
		}
		return &Path{cfs: p.cfs, name: p.name, sub: sub, codec: p.codec}
	}
	return p.cfs.Path(filepath.Dir(p.name))
}

// Codec returns the codec this path resolved to
func (p *Path) Codec() Codec {
	return p.codec
}

// Open returns a binary read handle for the path. Plain files are opened
// directly; compressed files are wrapped in their streaming decoder; for
// archives the sole top-level file member is the implicit target, and
// directory-like archives fail with ErrUnsupportedOperation.
func (p *Path) Open() (absfs.File, error) {
	switch {
	case p.codec.IsArchive():
		return p.openArchive()
	case p.codec == CodecNone:
		base, err := p.cfs.base.OpenFile(p.name, os.O_RDONLY, 0)
		if err != nil {
			return nil, err
		}
		return &file{cfs: p.cfs, base: base, name: p.name}, nil
	default:
		if !p.cfs.engineAvailable(p.codec) {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, p.codec)
		}
		base, err := p.cfs.base.OpenFile(p.name, os.O_RDONLY, 0)
		if err != nil {
			return nil, err
		}
		rc, err := p.cfs.decoder(p.codec, base)
		if err != nil {
			base.Close()
			return nil, err
		}
		var fi os.FileInfo
		if info, err := base.Stat(); err == nil {
			fi = streamFileInfo{info}
		}
		return &file{
			cfs:   p.cfs,
			base:  base,
			rc:    rc,
			codec: p.codec,
			name:  p.name,
			info:  fi,
		}, nil
	}
}

func (p *Path) openArchive() (absfs.File, error) {
	if !p.cfs.engineAvailable(p.codec) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, p.codec)
	}
	sub := p.sub
	if sub == "" {
		members, err := p.cfs.archiveMembers(p.name, p.codec)
		if err != nil {
			return nil, err
		}
		m, ok := soleFileMember(members)
		if !ok {
			if len(members) == 0 {
				return nil, &fs.PathError{Op: "open", Path: p.String(), Err: fs.ErrNotExist}
			}
			return nil, ErrUnsupportedOperation
		}
		sub = m.name
	}
	return p.cfs.openArchiveMember(p.name, p.codec, sub, p.String())
}

// OpenText returns a character stream decoded with the named IANA text
// encoding; "" uses the façade's configured default (utf-8 unless set).
func (p *Path) OpenText(encodingName string) (io.ReadCloser, error) {
	enc := p.cfs.encoding
	if encodingName != "" {
		var err error
		enc, err = lookupEncoding(encodingName)
		if err != nil {
			return nil, err
		}
	}

	f, err := p.Open()
	if err != nil {
		return nil, err
	}
	if enc == nil {
		// UTF-8 bytes pass through untransformed
		return f, nil
	}
	return &textReader{r: transform.NewReader(f, enc.NewDecoder()), f: f}, nil
}

// textReader decodes a byte stream into UTF-8 text, closing the
// underlying handle on Close.
type textReader struct {
	r io.Reader
	f absfs.File
}

func (t *textReader) Read(p []byte) (int, error) { return t.r.Read(p) }
func (t *textReader) Close() error               { return t.f.Close() }

// ReadFile reads the whole decompressed content
func (p *Path) ReadFile() ([]byte, error) {
	f, err := p.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// ReadText reads the whole content as text in the configured encoding
func (p *Path) ReadText() (string, error) {
	rc, err := p.OpenText("")
	if err != nil {
		return "", err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Stat returns file information for the path. Decompressed streams report
// size -1; archives report their member's own header info, or a synthetic
// directory when the path refers to a container with several members.
func (p *Path) Stat() (os.FileInfo, error) {
	if p.codec.IsArchive() {
		info, err := p.cfs.base.Stat(p.name)
		if err != nil {
			return nil, err
		}
		members, err := p.cfs.archiveMembers(p.name, p.codec)
		if err != nil {
			return nil, err
		}
		if p.sub == "" {
			if m, ok := soleFileMember(members); ok && m.info != nil {
				return m.info, nil
			}
			return dirFileInfo{name: filepath.Base(p.name), modTime: info.ModTime()}, nil
		}
		m, ok := findMember(members, p.sub)
		if !ok {
			return nil, &fs.PathError{Op: "stat", Path: p.String(), Err: fs.ErrNotExist}
		}
		if m.info != nil && !m.dir {
			return m.info, nil
		}
		return dirFileInfo{name: path.Base(p.sub), modTime: info.ModTime()}, nil
	}

	info, err := p.cfs.base.Stat(p.name)
	if err != nil {
		return nil, err
	}
	if p.codec != CodecNone {
		return streamFileInfo{info}, nil
	}
	return info, nil
}

// Exists reports whether the path (or archive member) exists
func (p *Path) Exists() bool {
	_, err := p.Stat()
	return err == nil
}

// IsFile reports whether the path resolves to a single readable file
func (p *Path) IsFile() bool {
	info, err := p.Stat()
	return err == nil && !info.IsDir()
}

// IsDir reports whether the path is directory-like: a real directory, or
// an archive container with more than one top-level member.
func (p *Path) IsDir() bool {
	info, err := p.Stat()
	return err == nil && info.IsDir()
}

// ReadDir lists the path's children as transparent paths. Archive members
// come back as compound references in the order stored in the archive's
// own index, re-read on every call. Paths resolving to a single file fail
// with ErrUnsupportedOperation.
func (p *Path) ReadDir() ([]*Path, error) {
	if p.codec.IsArchive() {
		members, err := p.cfs.archiveMembers(p.name, p.codec)
		if err != nil {
			return nil, err
		}
		if p.sub == "" {
			if _, ok := soleFileMember(members); ok {
				return nil, ErrUnsupportedOperation
			}
		} else {
			m, ok := findMember(members, p.sub)
			if !ok {
				return nil, &fs.PathError{Op: "readdir", Path: p.String(), Err: fs.ErrNotExist}
			}
			if !m.dir {
				return nil, ErrUnsupportedOperation
			}
		}

		children := childEntries(members, p.sub)
		out := make([]*Path, 0, len(children))
		for _, c := range children {
			sub := c.name
			if p.sub != "" {
				sub = p.sub + "/" + c.name
			}
			out = append(out, &Path{cfs: p.cfs, name: p.name, sub: sub, codec: p.codec})
		}
		return out, nil
	}

	if p.codec != CodecNone {
		return nil, ErrUnsupportedOperation
	}

	info, err := p.cfs.base.Stat(p.name)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, ErrUnsupportedOperation
	}
	f, err := p.cfs.base.OpenFile(p.name, os.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	names, err := f.Readdirnames(-1)
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	out := make([]*Path, 0, len(names))
	for _, n := range names {
		out = append(out, p.cfs.Path(filepath.Join(p.name, n)))
	}
	return out, nil
}
