package cpath

import (
	"bytes"
	"errors"
	"io/fs"
	"testing"
)

// Generated with bzip2; holds a single ustar member "note.txt".
var tarBz2Fixture = []byte{
	66, 90, 104, 57, 49, 65, 89, 38, 83, 89, 4, 243, 210, 74, 0, 0,
	128, 251, 144, 202, 16, 16, 64, 64, 1, 119, 128, 0, 64, 115, 33, 158,
	80, 4, 0, 0, 8, 32, 0, 116, 26, 9, 0, 104, 54, 144, 26, 98,
	9, 40, 106, 104, 13, 0, 0, 15, 186, 85, 52, 16, 130, 51, 36, 36,
	51, 73, 199, 47, 128, 200, 16, 228, 106, 240, 107, 161, 44, 97, 17, 0,
	215, 106, 100, 20, 28, 41, 178, 51, 241, 142, 72, 174, 83, 190, 215, 26,
	8, 7, 234, 137, 220, 92, 36, 37, 224, 155, 50, 88, 41, 74, 170, 253,
	164, 206, 181, 129, 17, 1, 248, 187, 146, 41, 194, 132, 128, 39, 158, 146,
	80,
}

func multiEntries() []entry {
	return []entry{
		{name: "readme.md", data: "hello"},
		{name: "data", dir: true},
		{name: "data/values.csv", data: "1,2,3\n"},
		{name: "data/notes.txt", data: "notes"},
	}
}

func TestZipMultiMember(t *testing.T) {
	cfs, base := newTestFS(t, nil)
	writeFile(t, base, "bundle.zip", buildZip(t, multiEntries()))

	p := cfs.Path("bundle.zip")
	if !p.IsDir() || p.IsFile() {
		t.Fatal("Multi-member archive should be directory-like")
	}

	// The container itself has no single content to open
	if _, err := p.Open(); !errors.Is(err, ErrUnsupportedOperation) {
		t.Fatalf("Expected ErrUnsupportedOperation, got %v", err)
	}

	children, err := p.ReadDir()
	if err != nil {
		t.Fatalf("Failed to list: %v", err)
	}
	names := make([]string, len(children))
	for i, c := range children {
		names[i] = c.Name()
	}
	// Stored order, not sorted
	want := []string{"readme.md", "data"}
	if len(names) != len(want) {
		t.Fatalf("Expected %v, got %v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("Expected %v, got %v", want, names)
		}
	}

	data, err := p.Join("data", "values.csv").ReadFile()
	if err != nil {
		t.Fatalf("Failed to read member: %v", err)
	}
	if string(data) != "1,2,3\n" {
		t.Fatalf("Expected %q, got %q", "1,2,3\n", data)
	}
}

func TestZipMemberSemantics(t *testing.T) {
	cfs, base := newTestFS(t, nil)
	writeFile(t, base, "bundle.zip", buildZip(t, multiEntries()))

	p := cfs.Path("bundle.zip")

	sub := p.Join("data")
	if !sub.Exists() || !sub.IsDir() {
		t.Fatal("data/ member should be an existing directory")
	}
	subNames, err := sub.ReadDir()
	if err != nil {
		t.Fatalf("Failed to list member dir: %v", err)
	}
	if len(subNames) != 2 || subNames[0].Name() != "values.csv" || subNames[1].Name() != "notes.txt" {
		t.Fatalf("Unexpected member dir listing: %v", subNames)
	}
	if _, err := sub.Open(); !errors.Is(err, ErrUnsupportedOperation) {
		t.Errorf("Opening a directory member: expected ErrUnsupportedOperation, got %v", err)
	}

	f := p.Join("readme.md")
	if !f.IsFile() || f.IsDir() {
		t.Error("readme.md should be a file member")
	}
	info, err := f.Stat()
	if err != nil {
		t.Fatalf("Failed to stat member: %v", err)
	}
	if info.Size() != int64(len("hello")) {
		t.Errorf("Expected member size %d, got %d", len("hello"), info.Size())
	}
	if _, err := f.ReadDir(); !errors.Is(err, ErrUnsupportedOperation) {
		t.Errorf("Listing a file member: expected ErrUnsupportedOperation, got %v", err)
	}

	missing := p.Join("no/such/member.txt")
	if missing.Exists() {
		t.Error("Missing member should not exist")
	}
	if _, err := missing.Open(); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Expected fs.ErrNotExist, got %v", err)
	}
}

func TestSoleMemberImplicitOpen(t *testing.T) {
	sole := []entry{{name: "payload.txt", data: "the one and only"}}

	tests := []struct {
		filename string
		build    func(t *testing.T) []byte
	}{
		{"sole.zip", func(t *testing.T) []byte { return buildZip(t, sole) }},
		{"sole.tar.gz", func(t *testing.T) []byte { return buildTar(t, CodecGzip, sole) }},
		{"sole.tgz", func(t *testing.T) []byte { return buildTar(t, CodecGzip, sole) }},
		{"sole.tar.xz", func(t *testing.T) []byte { return buildTar(t, CodecXz, sole) }},
		{"sole.tar.zst", func(t *testing.T) []byte { return buildTar(t, CodecZstd, sole) }},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			cfs, base := newTestFS(t, nil)
			writeFile(t, base, tt.filename, tt.build(t))

			p := cfs.Path(tt.filename)
			if !p.IsFile() || p.IsDir() {
				t.Fatal("Sole-member archive should behave as a file")
			}

			data, err := p.ReadFile()
			if err != nil {
				t.Fatalf("Failed to read: %v", err)
			}
			if string(data) != "the one and only" {
				t.Fatalf("Expected %q, got %q", "the one and only", data)
			}

			// The sole member is the content, not a directory to list
			if _, err := p.ReadDir(); !errors.Is(err, ErrUnsupportedOperation) {
				t.Errorf("Expected ErrUnsupportedOperation, got %v", err)
			}

			info, err := p.Stat()
			if err != nil {
				t.Fatalf("Failed to stat: %v", err)
			}
			if info.IsDir() || info.Size() != int64(len("the one and only")) {
				t.Errorf("Expected member stat, got dir=%v size=%d", info.IsDir(), info.Size())
			}
		})
	}
}

func TestTarBz2Read(t *testing.T) {
	cfs, base := newTestFS(t, nil)
	writeFile(t, base, "fix.tar.bz2", tarBz2Fixture)

	data, err := cfs.Path("fix.tar.bz2").ReadFile()
	if err != nil {
		t.Fatalf("Failed to read: %v", err)
	}
	if string(data) != "tar bz2 fixture\n" {
		t.Fatalf("Expected %q, got %q", "tar bz2 fixture\n", data)
	}
}

func TestTarImplicitDirectories(t *testing.T) {
	// No explicit directory entries; the dirs exist only as path segments
	entries := []entry{
		{name: "a/b/deep.txt", data: "deep"},
		{name: "a/top.txt", data: "top"},
	}

	cfs, base := newTestFS(t, nil)
	writeFile(t, base, "tree.tar.gz", buildTar(t, CodecGzip, entries))

	p := cfs.Path("tree.tar.gz")
	if !p.IsDir() {
		t.Fatal("Archive with nested members should be directory-like")
	}

	a := p.Join("a")
	if !a.IsDir() {
		t.Fatal("Implicit directory a/ should stat as a directory")
	}
	children, err := a.ReadDir()
	if err != nil {
		t.Fatalf("Failed to list implicit dir: %v", err)
	}
	if len(children) != 2 || children[0].Name() != "b" || children[1].Name() != "top.txt" {
		names := make([]string, len(children))
		for i, c := range children {
			names[i] = c.Name()
		}
		t.Fatalf("Unexpected listing: %v", names)
	}

	data, err := p.Join("a/b/deep.txt").ReadFile()
	if err != nil {
		t.Fatalf("Failed to read nested member: %v", err)
	}
	if string(data) != "deep" {
		t.Fatalf("Expected %q, got %q", "deep", data)
	}
}

func TestTarDotSlashNormalization(t *testing.T) {
	// tar created against "." prefixes every entry with "./"
	entries := []entry{
		{name: ".", dir: true},
		{name: "./report.txt", data: "quarterly"},
		{name: "./img", dir: true},
		{name: "./img/logo.bin", data: "\x00\x01"},
	}

	cfs, base := newTestFS(t, nil)
	writeFile(t, base, "dot.tar.gz", buildTar(t, CodecGzip, entries))

	p := cfs.Path("dot.tar.gz")
	children, err := p.ReadDir()
	if err != nil {
		t.Fatalf("Failed to list: %v", err)
	}
	if len(children) != 2 || children[0].Name() != "report.txt" || children[1].Name() != "img" {
		names := make([]string, len(children))
		for i, c := range children {
			names[i] = c.Name()
		}
		t.Fatalf("Unexpected listing: %v", names)
	}

	data, err := p.Join("img", "logo.bin").ReadFile()
	if err != nil {
		t.Fatalf("Failed to read member: %v", err)
	}
	if !bytes.Equal(data, []byte{0x00, 0x01}) {
		t.Fatalf("Unexpected member bytes: %v", data)
	}
}

func TestNestedArchiveNotRecursive(t *testing.T) {
	innerZip := buildZip(t, []entry{{name: "inner.txt", data: "inner"}})

	cfs, base := newTestFS(t, nil)
	writeFile(t, base, "outer.tar.gz", buildTar(t, CodecGzip, []entry{
		{name: "inner.zip", data: string(innerZip)},
		{name: "plain.txt", data: "plain"},
	}))

	// An archive member that is itself an archive comes back as raw bytes
	data, err := cfs.Path("outer.tar.gz").Join("inner.zip").ReadFile()
	if err != nil {
		t.Fatalf("Failed to read nested archive member: %v", err)
	}
	if !bytes.Equal(data, innerZip) {
		t.Fatal("Expected raw zip bytes, got transformed content")
	}
}

func TestCorruptArchive(t *testing.T) {
	cfs, base := newTestFS(t, nil)
	writeFile(t, base, "bad.zip", []byte("PK but not really a zip file"))
	writeFile(t, base, "bad.tar.gz", compress(t, CodecGzip, []byte("not a tar stream, nowhere near 512 bytes of header")))

	for _, name := range []string{"bad.zip", "bad.tar.gz"} {
		if _, err := cfs.Path(name).ReadDir(); !errors.Is(err, ErrCorruptData) {
			t.Errorf("ReadDir(%s): expected ErrCorruptData, got %v", name, err)
		}
	}
}

func TestEmptyArchive(t *testing.T) {
	cfs, base := newTestFS(t, nil)
	writeFile(t, base, "empty.zip", buildZip(t, nil))

	p := cfs.Path("empty.zip")
	if !p.IsDir() {
		t.Error("Empty archive should be directory-like")
	}
	children, err := p.ReadDir()
	if err != nil {
		t.Fatalf("Failed to list: %v", err)
	}
	if len(children) != 0 {
		t.Fatalf("Expected no children, got %d", len(children))
	}
	if _, err := p.Open(); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Expected fs.ErrNotExist opening empty archive, got %v", err)
	}
}

func TestSoleDirectoryMember(t *testing.T) {
	cfs, base := newTestFS(t, nil)
	writeFile(t, base, "dironly.tar.gz", buildTar(t, CodecGzip, []entry{
		{name: "only", dir: true},
		{name: "only/one.txt", data: "1"},
		{name: "only/two.txt", data: "2"},
	}))

	// A single top-level directory is not an implicit file target
	p := cfs.Path("dironly.tar.gz")
	if !p.IsDir() {
		t.Error("Archive with a sole directory member should be directory-like")
	}
	if _, err := p.Open(); !errors.Is(err, ErrUnsupportedOperation) {
		t.Errorf("Expected ErrUnsupportedOperation, got %v", err)
	}

	children, err := p.ReadDir()
	if err != nil {
		t.Fatalf("Failed to list: %v", err)
	}
	if len(children) != 1 || children[0].Name() != "only" {
		t.Fatalf("Unexpected listing: %v", children)
	}
}

func TestArchiveMemberString(t *testing.T) {
	cfs, _ := newTestFS(t, nil)

	p := cfs.Path("bundle.zip").Join("data", "values.csv")
	if p.String() != "bundle.zip/data/values.csv" {
		t.Errorf("String() = %q", p.String())
	}
	if p.Name() != "values.csv" {
		t.Errorf("Name() = %q", p.Name())
	}
	if p.Parent().String() != "bundle.zip/data" {
		t.Errorf("Parent().String() = %q", p.Parent().String())
	}
	if p.Parent().Parent().String() != "bundle.zip" {
		t.Errorf("Parent().Parent().String() = %q", p.Parent().Parent().String())
	}
}
