package rootfs

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// entryKind tags what a template path refers to.
type entryKind int

const (
	kindFile entryKind = iota
	kindDirectory
	kindLink
)

// templateEntry is one path's record in a Template's arena. File
// entries carry their bytes directly rather than an (offset, length)
// pointer back into the archive, a deliberate simplification from the
// source's zero-copy random-access reader: rootfs.Mount materializes
// real files on disk for a real chroot, so the template only ever
// needs to serve whole-file reads.
type templateEntry struct {
	kind       entryKind
	data       []byte
	linkTarget string
	mode       os.FileMode
}

// Template is the read-only, shareable base filesystem for one
// language plugin, indexed by path. It is loaded once at plugin-load
// time and referenced by every Filesystem built from it.
type Template struct {
	entries map[string]templateEntry
}

// LoadTemplate reads a tar archive (optionally zstd-compressed, by
// extension) at path and indexes it by path.
func LoadTemplate(path string) (*Template, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening rootfs archive %s: %w", path, err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".zst") {
		zr, err := zstd.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("opening zstd stream: %w", err)
		}
		defer zr.Close()
		r = zr
	}

	return loadTemplateFrom(r)
}

func loadTemplateFrom(r io.Reader) (*Template, error) {
	entries := make(map[string]templateEntry)
	tr := tar.NewReader(r)

	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading tar entry: %w", err)
		}

		name := cleanPath(hdr.Name)
		switch hdr.Typeflag {
		case tar.TypeDir:
			entries[name] = templateEntry{kind: kindDirectory, mode: hdr.FileInfo().Mode()}
		case tar.TypeSymlink, tar.TypeLink:
			entries[name] = templateEntry{kind: kindLink, linkTarget: cleanPath(hdr.Linkname)}
		default:
			buf := make([]byte, hdr.Size)
			if _, err := io.ReadFull(tr, buf); err != nil {
				return nil, fmt.Errorf("reading %s: %w", name, err)
			}
			entries[name] = templateEntry{kind: kindFile, data: buf, mode: hdr.FileInfo().Mode()}
		}

		for ancestor := path.Dir(name); ancestor != "." && ancestor != "/"; ancestor = path.Dir(ancestor) {
			if _, ok := entries[ancestor]; !ok {
				entries[ancestor] = templateEntry{kind: kindDirectory, mode: 0o755}
			}
		}
	}

	return &Template{entries: entries}, nil
}

func cleanPath(p string) string {
	return strings.TrimPrefix(path.Clean("/"+p), "/")
}

func (t *Template) lookup(p string) (templateEntry, bool) {
	e, ok := t.entries[cleanPath(p)]
	return e, ok
}

// children returns every indexed path that is an immediate child of
// dir, used to serve directory listings.
func (t *Template) children(dir string) []string {
	dir = cleanPath(dir)
	var out []string
	for name := range t.entries {
		if path.Dir(name) == dir || (dir == "" && !strings.Contains(name, "/")) {
			out = append(out, name)
		}
	}
	return out
}
