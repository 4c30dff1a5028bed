package cpath

import (
	"archive/tar"
	"archive/zip"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/absfs/absfs"
)

// member is one entry of an archive's own index. Listings preserve the
// order stored in the archive and are re-derived on every call; nothing
// here is cached between operations.
type member struct {
	name string      // normalized slash-separated path, no trailing slash
	dir  bool
	info os.FileInfo // header info; nil for implicit directories
}

// normalizeMemberName cleans an archive entry name: trailing slashes mark
// directories, and leading "./" segments (tar archives created against the
// current directory) are stripped. Returns "" for the root entry itself.
func normalizeMemberName(name string) (string, bool) {
	dir := strings.HasSuffix(name, "/")
	name = strings.TrimSuffix(name, "/")
	for strings.HasPrefix(name, "./") {
		name = name[2:]
	}
	if name == "" || name == "." {
		return "", dir
	}
	return name, dir
}

// archiveMembers opens the container and scans its full member table.
func (cfs *FS) archiveMembers(name string, codec Codec) ([]member, error) {
	base, err := cfs.base.OpenFile(name, os.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}
	defer base.Close()

	var members []member
	if codec == CodecZip {
		zr, err := zipReaderFor(base)
		if err != nil {
			return nil, err
		}
		for _, zf := range zr.File {
			n, dir := normalizeMemberName(zf.Name)
			if n == "" {
				continue
			}
			fi := zf.FileInfo()
			members = append(members, member{name: n, dir: dir || fi.IsDir(), info: fi})
		}
	} else {
		wrap, err := cfs.decoder(codec.stream(), base)
		if err != nil {
			return nil, err
		}
		defer wrap.Close()

		tr := tar.NewReader(wrap)
		for {
			hdr, err := tr.Next()
			if err == io.EOF {
				break
			}
			if err != nil {
				return nil, corrupt(err)
			}
			n, _ := normalizeMemberName(hdr.Name)
			if n == "" {
				continue
			}
			members = append(members, member{
				name: n,
				dir:  hdr.Typeflag == tar.TypeDir,
				info: hdr.FileInfo(),
			})
		}
	}

	cfs.incrementStat(&cfs.stats.MembersListed)
	return members, nil
}

// openArchiveMember resolves sub inside the archive and returns a handle
// reading only that member's decompressed bytes. Members that are
// themselves archives are returned as raw bytes; there is no recursion.
func (cfs *FS) openArchiveMember(name string, codec Codec, sub, display string) (absfs.File, error) {
	base, err := cfs.base.OpenFile(name, os.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}

	if codec == CodecZip {
		zr, err := zipReaderFor(base)
		if err != nil {
			base.Close()
			return nil, err
		}
		for _, zf := range zr.File {
			n, dir := normalizeMemberName(zf.Name)
			if n != sub {
				continue
			}
			if dir || zf.FileInfo().IsDir() {
				base.Close()
				return nil, ErrUnsupportedOperation
			}
			rc, err := zf.Open()
			if err != nil {
				base.Close()
				return nil, corrupt(err)
			}
			return &file{
				cfs:   cfs,
				base:  base,
				rc:    rc,
				codec: codec,
				name:  display,
				info:  zf.FileInfo(),
			}, nil
		}
		base.Close()
		return nil, &fs.PathError{Op: "open", Path: display, Err: fs.ErrNotExist}
	}

	wrap, err := cfs.decoder(codec.stream(), base)
	if err != nil {
		base.Close()
		return nil, err
	}

	tr := tar.NewReader(wrap)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			wrap.Close()
			base.Close()
			return nil, corrupt(err)
		}
		n, _ := normalizeMemberName(hdr.Name)
		if n != sub {
			continue
		}
		if hdr.Typeflag == tar.TypeDir {
			wrap.Close()
			base.Close()
			return nil, ErrUnsupportedOperation
		}
		// tar.Reader yields EOF at the end of the current entry, so
		// reading from it here covers exactly this member
		return &file{
			cfs:   cfs,
			base:  base,
			rc:    &multiReadCloser{r: tr, closers: []io.Closer{wrap}},
			codec: codec,
			name:  display,
			info:  hdr.FileInfo(),
		}, nil
	}
	wrap.Close()
	base.Close()
	return nil, &fs.PathError{Op: "open", Path: display, Err: fs.ErrNotExist}
}

// zipReaderFor builds a zip central-directory reader over an open handle.
func zipReaderFor(f absfs.File) (*zip.Reader, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	zr, err := zip.NewReader(f, info.Size())
	if err != nil {
		return nil, corrupt(err)
	}
	return zr, nil
}

// childEntries returns the direct children below prefix ("" for top level)
// in stored order, one entry per name. Directories that exist only as path
// segments of deeper members are synthesized, matching how tools list
// archives that carry no explicit directory entries.
func childEntries(members []member, prefix string) []member {
	p := ""
	if prefix != "" {
		p = prefix + "/"
	}

	var out []member
	index := make(map[string]int)
	for _, m := range members {
		if !strings.HasPrefix(m.name, p) || m.name == prefix {
			continue
		}
		seg, _, nested := strings.Cut(m.name[len(p):], "/")
		child := member{name: seg, dir: m.dir || nested}
		if !nested {
			child.info = m.info
		}
		if i, ok := index[seg]; ok {
			if child.dir {
				out[i].dir = true
			}
			if out[i].info == nil && child.info != nil {
				out[i].info = child.info
			}
			continue
		}
		index[seg] = len(out)
		out = append(out, child)
	}
	return out
}

// findMember locates sub in the member table, recognizing implicit
// directories the same way childEntries does.
func findMember(members []member, sub string) (member, bool) {
	for _, m := range members {
		if m.name == sub {
			return m, true
		}
	}
	p := sub + "/"
	for _, m := range members {
		if strings.HasPrefix(m.name, p) {
			return member{name: sub, dir: true}, true
		}
	}
	return member{}, false
}

// soleFileMember reports the implicit open target: an archive whose only
// top-level member is a regular file stands in for that file.
func soleFileMember(members []member) (member, bool) {
	top := childEntries(members, "")
	if len(top) == 1 && !top[0].dir {
		return top[0], true
	}
	return member{}, false
}

// dirFileInfo is the synthesized stat result for directory-like archive
// paths: the container itself, or members with no explicit entry.
type dirFileInfo struct {
	name    string
	modTime time.Time
}

func (fi dirFileInfo) Name() string       { return fi.name }
func (fi dirFileInfo) Size() int64        { return 0 }
func (fi dirFileInfo) Mode() os.FileMode  { return os.ModeDir | 0755 }
func (fi dirFileInfo) ModTime() time.Time { return fi.modTime }
func (fi dirFileInfo) IsDir() bool        { return true }
func (fi dirFileInfo) Sys() interface{}   { return nil }
